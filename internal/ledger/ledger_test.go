package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestWeightedAverageCost(t *testing.T) {
	got := WeightedAverageCost(dec("10"), dec("5"), dec("10"), dec("7"))
	if got.Cmp(dec("6.00")) != 0 {
		t.Fatalf("expected 6.00, got %s", got)
	}
}

func TestWeightedAverageCostZeroTotalKeepsOldCost(t *testing.T) {
	got := WeightedAverageCost(dec("-5"), dec("4"), dec("5"), dec("9"))
	if got.Cmp(dec("4")) != 0 {
		t.Fatalf("expected old cost 4 when total quantity is zero, got %s", got)
	}
}

func TestIncreaseStockReaverages(t *testing.T) {
	p := domain.Product{Name: "Rice 1kg", CurrentStock: dec("10"), PurchasePrice: dec("5")}
	IncreaseStock(&p, dec("10"), dec("7"), true)
	if p.CurrentStock.Cmp(dec("20")) != 0 {
		t.Fatalf("expected stock 20, got %s", p.CurrentStock)
	}
	if p.PurchasePrice.Cmp(dec("6.00")) != 0 {
		t.Fatalf("expected cost 6.00, got %s", p.PurchasePrice)
	}
}

func TestIncreaseStockWithoutReaverage(t *testing.T) {
	p := domain.Product{CurrentStock: dec("3"), PurchasePrice: dec("5")}
	IncreaseStock(&p, dec("2"), dec("100"), false)
	if p.PurchasePrice.Cmp(dec("5")) != 0 {
		t.Fatalf("expected cost unchanged at 5, got %s", p.PurchasePrice)
	}
	if p.CurrentStock.Cmp(dec("5")) != 0 {
		t.Fatalf("expected stock 5, got %s", p.CurrentStock)
	}
}

func TestDecreaseStockStrict(t *testing.T) {
	p := domain.Product{Name: "Sugar", CurrentStock: dec("2")}
	err := DecreaseStock(&p, dec("3"), true)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if p.CurrentStock.Cmp(dec("2")) != 0 {
		t.Fatalf("stock must be untouched on failure, got %s", p.CurrentStock)
	}
}

func TestDecreaseStockLenientGoesNegative(t *testing.T) {
	p := domain.Product{CurrentStock: dec("1")}
	if err := DecreaseStock(&p, dec("4"), false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.CurrentStock.Cmp(dec("-3")) != 0 {
		t.Fatalf("expected stock -3, got %s", p.CurrentStock)
	}
}

func TestDeferredSaleAllowedBoundary(t *testing.T) {
	limit := dec("100")
	if !DeferredSaleAllowed(dec("0"), dec("100"), limit) {
		t.Fatalf("sale of exactly the credit limit must be allowed")
	}
	if DeferredSaleAllowed(dec("0"), dec("100.01"), limit) {
		t.Fatalf("sale one cent past the credit limit must be rejected")
	}
}

func TestBalanceDeltaSigns(t *testing.T) {
	amount := dec("50")
	if CustomerSaleDelta(amount).Cmp(dec("-50")) != 0 {
		t.Fatalf("deferred sale must decrease customer balance")
	}
	if CustomerReturnDelta(amount).Cmp(dec("50")) != 0 {
		t.Fatalf("sale return must restore customer balance")
	}
	if SupplierPurchaseDelta(amount).Cmp(dec("50")) != 0 {
		t.Fatalf("deferred purchase must increase supplier balance")
	}
	if SupplierSettlementDelta(amount).Cmp(dec("-50")) != 0 {
		t.Fatalf("paying a supplier must decrease their balance")
	}
}

func TestExpectedShiftCash(t *testing.T) {
	now := time.Now().UTC()
	txs := []domain.Transaction{
		{Type: domain.TxTypeSale, Amount: dec("200"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CreatedAt: now},
		{Type: domain.TxTypeExpense, Amount: dec("30"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CreatedAt: now},
		// deferred sales never touch the drawer
		{Type: domain.TxTypeSale, Amount: dec("500"), PaymentMethod: domain.PaymentDeferred, Status: domain.StatusCompleted, CreatedAt: now},
		// pending expenses are not counted
		{Type: domain.TxTypeExpense, Amount: dec("5000"), PaymentMethod: domain.PaymentCash, Status: domain.StatusPending, CreatedAt: now},
		{Type: domain.TxTypeSettlement, Amount: dec("40"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CustomerID: "c1", CreatedAt: now},
		{Type: domain.TxTypeSettlement, Amount: dec("15"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, SupplierID: "s1", CreatedAt: now},
		{Type: domain.TxTypeSaleReturn, Amount: dec("20"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CreatedAt: now},
	}
	// 100 + 200 - 30 + 40 - 15 - 20 = 275
	got := ExpectedShiftCash(dec("100"), txs)
	if got.Cmp(dec("275")) != 0 {
		t.Fatalf("expected 275, got %s", got)
	}
}

func TestNetCashFlow(t *testing.T) {
	got := NetCashFlow(dec("1000"), dec("500"), dec("200"), dec("50"), dec("100"), dec("25"))
	if got.Cmp(dec("1175")) != 0 {
		t.Fatalf("expected 1175, got %s", got)
	}
}
