package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
)

func dd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProducts(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []domain.Product{
		{ID: "p1", Code: "P-1", Name: "Alpha", PurchasePrice: dd("5"), SellingPrice: dd("8"), CurrentStock: dd("10"), Active: true},
		{ID: "p2", Code: "P-2", Name: "Beta", PurchasePrice: dd("3"), SellingPrice: dd("4"), CurrentStock: dd("1"), Active: true},
	} {
		if _, err := s.CreateProduct(ctx, p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
}

func TestCommitTransactionAppliesAllChanges(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProducts(t, s)
	if _, err := s.CreateCustomer(ctx, domain.Customer{ID: "c1", Code: "C-1", Name: "Acme", Type: domain.CustomerBusiness, CreditLimit: dd("1000")}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	_, err := s.CommitTransaction(ctx, domain.LedgerCommit{
		Transaction: domain.Transaction{ID: "INV-1", Type: domain.TxTypeSale, Amount: dd("16"), PaymentMethod: domain.PaymentDeferred, Status: domain.StatusCompleted, CustomerID: "c1", CreatedAt: time.Now().UTC()},
		StockChanges: []domain.StockChange{
			{ProductID: "p1", Direction: domain.StockOut, Quantity: dd("2")},
		},
		Balance:     &domain.BalanceChange{CustomerID: "c1", Delta: dd("-16"), EnforceCreditLimit: true},
		StrictStock: true,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	p, _ := s.GetProduct(ctx, "p1")
	if p.CurrentStock.Cmp(dd("8")) != 0 {
		t.Fatalf("expected stock 8, got %s", p.CurrentStock)
	}
	c, _ := s.GetCustomer(ctx, "c1")
	if c.CurrentBalance.Cmp(dd("-16")) != 0 {
		t.Fatalf("expected balance -16, got %s", c.CurrentBalance)
	}
	if _, err := s.GetTransaction(ctx, "INV-1"); err != nil {
		t.Fatalf("transaction not stored: %v", err)
	}
}

func TestCommitTransactionIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProducts(t, s)

	_, err := s.CommitTransaction(ctx, domain.LedgerCommit{
		Transaction: domain.Transaction{ID: "INV-2", Type: domain.TxTypeSale, Amount: dd("20"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CreatedAt: time.Now().UTC()},
		StockChanges: []domain.StockChange{
			{ProductID: "p1", Direction: domain.StockOut, Quantity: dd("2")},
			{ProductID: "p2", Direction: domain.StockOut, Quantity: dd("5")},
		},
		StrictStock: true,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	p1, _ := s.GetProduct(ctx, "p1")
	if p1.CurrentStock.Cmp(dd("10")) != 0 {
		t.Fatalf("line 1 stock must be untouched, got %s", p1.CurrentStock)
	}
	if _, err := s.GetTransaction(ctx, "INV-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("transaction must not exist after failed commit, got %v", err)
	}
}

func TestCommitTransactionRejectsDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	commit := domain.LedgerCommit{
		Transaction: domain.Transaction{ID: "EXP-1", Type: domain.TxTypeExpense, Amount: dd("10"), PaymentMethod: domain.PaymentCash, Status: domain.StatusCompleted, CreatedAt: time.Now().UTC()},
	}
	if _, err := s.CommitTransaction(ctx, commit); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, err := s.CommitTransaction(ctx, commit); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected DUPLICATE_ENTRY, got %v", err)
	}
}

func TestShiftOpenCloseLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	shift := domain.Shift{ID: "sh1", Username: "cashier", Status: domain.ShiftOpen, StartCash: dd("100"), StartTime: now}
	if _, err := s.CreateShift(ctx, shift); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.CreateShift(ctx, domain.Shift{ID: "sh2", Username: "cashier", Status: domain.ShiftOpen, StartTime: now}); !errors.Is(err, domain.ErrShiftAlreadyOpen) {
		t.Fatalf("expected SHIFT_ALREADY_OPEN, got %v", err)
	}

	if _, err := s.CloseShift(ctx, "sh1", dd("150"), dd("145"), now); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.CloseShift(ctx, "sh1", dd("150"), dd("145"), now); !errors.Is(err, domain.ErrShiftAlreadyClosed) {
		t.Fatalf("expected SHIFT_ALREADY_CLOSED, got %v", err)
	}

	open, err := s.GetOpenShift(ctx, "cashier")
	if err != nil || open != nil {
		t.Fatalf("expected no open shift, got %v %v", open, err)
	}
}

func TestDeleteCustomerBalanceGuard(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateCustomer(ctx, domain.Customer{ID: "c1", Code: "C-1", Name: "Debtor", CurrentBalance: dd("-10")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.DeleteCustomer(ctx, "c1"); !errors.Is(err, domain.ErrBalanceNotZero) {
		t.Fatalf("expected BALANCE_NOT_ZERO, got %v", err)
	}
}

func TestDeleteUserLastAdminGuard(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, domain.UserAccount{Username: "boss", Role: domain.RoleAdmin, Active: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.DeleteUser(ctx, "boss"); !errors.Is(err, domain.ErrLastAdmin) {
		t.Fatalf("expected LAST_ADMIN, got %v", err)
	}
}
