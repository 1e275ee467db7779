package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/cache"
	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/store/memory"
	"foxpos/backend/internal/xid"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier})
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "p-rice", Code: "P-1", Name: "Rice 1kg", PurchasePrice: dec("5"), SellingPrice: dec("8"), CurrentStock: dec("10"), Active: true, CreatedAt: now},
		{ID: "p-oil", Code: "P-2", Name: "Cooking Oil", PurchasePrice: dec("20"), SellingPrice: dec("26"), CurrentStock: dec("1"), Active: true, CreatedAt: now},
		{ID: "p-tea", Code: "P-3", Name: "Tea Box", PurchasePrice: dec("12"), SellingPrice: dec("16"), CurrentStock: dec("50"), Active: true, CreatedAt: now},
	}
	for _, p := range products {
		if _, err := repo.CreateProduct(ctx, p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	customers := []domain.Customer{
		{ID: "c-walkin", Code: "C-1", Name: "Walk-in", Type: domain.CustomerConsumer, Active: true, CreatedAt: now},
		{ID: "c-acme", Code: "C-2", Name: "Acme Trading", Type: domain.CustomerBusiness, CreditLimit: dec("100"), Active: true, CreatedAt: now},
	}
	for _, c := range customers {
		if _, err := repo.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("seed customer: %v", err)
		}
	}

	if _, err := repo.CreateSupplier(ctx, domain.Supplier{ID: "s-delta", Code: "S-1", Name: "Delta Wholesale", Active: true, CreatedAt: now}); err != nil {
		t.Fatalf("seed supplier: %v", err)
	}

	svc := New(repo, &xid.Sequence{}, cache.NoopSummaryCache{}, time.Minute)
	return svc, repo
}

func openShift(t *testing.T, svc *Service, ctx context.Context, startCash string) *domain.Shift {
	t.Helper()
	shift, err := svc.OpenShift(ctx, dec(startCash))
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	return shift
}

func saleLine(productID, qty, price string) domain.CartItemInput {
	return domain.CartItemInput{ProductID: productID, Quantity: decPtr(qty), Price: decPtr(price)}
}

func TestCompleteSaleDecrementsStockAndSnapshotsItems(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := cashierCtx()
	openShift(t, svc, ctx, "100")

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "3", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("24"),
	})
	if err != nil {
		t.Fatalf("complete sale: %v", err)
	}
	if tx.Type != domain.TxTypeSale || tx.Status != domain.StatusCompleted {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if tx.ID[:4] != "INV-" {
		t.Fatalf("expected INV- id, got %s", tx.ID)
	}
	if tx.ShiftID == "" {
		t.Fatalf("cashier sale must be attributed to the shift")
	}

	p, _ := repo.GetProduct(context.Background(), "p-rice")
	if p.CurrentStock.Cmp(dec("7")) != 0 {
		t.Fatalf("expected stock 7, got %s", p.CurrentStock)
	}
	if len(tx.Items) != 1 || tx.Items[0].Name != "Rice 1kg" || tx.Items[0].UnitCost.Cmp(dec("5")) != 0 {
		t.Fatalf("unexpected snapshot %+v", tx.Items)
	}
}

func TestCompleteSaleRequiresOpenShiftForCashier(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CompleteSale(cashierCtx(), domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "1", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("8"),
	})
	if !errors.Is(err, domain.ErrShiftNotOpen) {
		t.Fatalf("expected SHIFT_NOT_OPEN, got %v", err)
	}
}

func TestCompleteSaleAdminWithoutShiftIsUnattributed(t *testing.T) {
	svc, _ := newTestService(t)

	tx, err := svc.CompleteSale(adminCtx(), domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "1", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("8"),
	})
	if err != nil {
		t.Fatalf("admin sale: %v", err)
	}
	if tx.ShiftID != "" {
		t.Fatalf("expected unattributed transaction, got shift %s", tx.ShiftID)
	}
}

func TestDeferredSaleRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	_, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "1", "8")},
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("8"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("deferred sale without customer: expected VALIDATION_ERROR, got %v", err)
	}

	_, err = svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "1", "8")},
		CustomerID:    "c-walkin",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("8"),
	})
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Code != domain.CodeBusinessRule {
		t.Fatalf("deferred sale to consumer: expected BUSINESS_RULE_VIOLATION, got %v", err)
	}
}

func TestCreditLimitBoundary(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-tea", "1", "100")},
		CustomerID:    "c-acme",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("100"),
	})
	if err != nil {
		t.Fatalf("sale of exactly the credit limit must succeed: %v", err)
	}
	c, _ := repo.GetCustomer(context.Background(), "c-acme")
	if c.CurrentBalance.Cmp(dec("-100")) != 0 {
		t.Fatalf("expected balance -100, got %s", c.CurrentBalance)
	}

	// settle back to zero so the next check starts clean
	if _, err := svc.SettleCustomerDebt(ctx, "c-acme", domain.SettlementRequest{Amount: dec("100")}); err != nil {
		t.Fatalf("settle: %v", err)
	}
	_ = tx

	_, err = svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-tea", "1", "100.01")},
		CustomerID:    "c-acme",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("100.01"),
	})
	if !errors.Is(err, domain.ErrCreditLimitExceeded) {
		t.Fatalf("expected CREDIT_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestSaleAtomicityUnderFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	_, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items: []domain.CartItemInput{
			saleLine("p-rice", "2", "8"),
			saleLine("p-oil", "5", "26"),
		},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("146"),
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	bg := context.Background()
	rice, _ := repo.GetProduct(bg, "p-rice")
	if rice.CurrentStock.Cmp(dec("10")) != 0 {
		t.Fatalf("line 1 stock must be unchanged, got %s", rice.CurrentStock)
	}
	txs, _ := repo.ListTransactions(bg, domain.TransactionFilter{})
	if len(txs) != 0 {
		t.Fatalf("no transaction may exist after a failed sale, got %d", len(txs))
	}
}

func TestSaleUnknownProductFails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CompleteSale(adminCtx(), domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-ghost", "1", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("8"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSnapshotSurvivesCatalogEdits(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "1", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("8"),
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	bg := context.Background()
	p, _ := repo.GetProduct(bg, "p-rice")
	p.Name = "Premium Rice 1kg"
	p.SellingPrice = dec("99")
	if _, err := repo.UpdateProduct(bg, *p); err != nil {
		t.Fatalf("update product: %v", err)
	}

	stored, _ := repo.GetTransaction(bg, tx.ID)
	if stored.Items[0].Name != "Rice 1kg" || stored.Items[0].UnitPrice.Cmp(dec("8")) != 0 {
		t.Fatalf("snapshot must not change with the catalog, got %+v", stored.Items[0])
	}
}

func TestStockConservationSaleThenReturn(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "4", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("32"),
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	ret, err := svc.ProcessSaleReturn(ctx, tx.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if ret.Type != domain.TxTypeSaleReturn || ret.ID[:4] != "RET-" {
		t.Fatalf("unexpected return transaction %+v", ret)
	}

	p, _ := repo.GetProduct(context.Background(), "p-rice")
	if p.CurrentStock.Cmp(dec("10")) != 0 {
		t.Fatalf("stock must return to its pre-sale value, got %s", p.CurrentStock)
	}
	if p.PurchasePrice.Cmp(dec("5")) != 0 {
		t.Fatalf("a return must not re-average cost, got %s", p.PurchasePrice)
	}
}

func TestSaleReturnRestoresDeferredBalance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-tea", "2", "16")},
		CustomerID:    "c-acme",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("32"),
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := svc.ProcessSaleReturn(ctx, tx.ID); err != nil {
		t.Fatalf("return: %v", err)
	}

	c, _ := repo.GetCustomer(context.Background(), "c-acme")
	if c.CurrentBalance.Sign() != 0 {
		t.Fatalf("balance must be restored to zero, got %s", c.CurrentBalance)
	}
}

func TestReturnGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.ProcessSaleReturn(ctx, "INV-NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	exp, err := svc.CreateExpense(ctx, domain.CashMovementRequest{Amount: dec("10")})
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if _, err := svc.ProcessSaleReturn(ctx, exp.ID); !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected INVALID_TYPE, got %v", err)
	}
	if _, err := svc.ProcessPurchaseReturn(ctx, exp.ID); !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected INVALID_TYPE, got %v", err)
	}
}

func TestDirectSaleInvariant(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "5", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("40"),
		DirectSale:    true,
	})
	if err != nil {
		t.Fatalf("direct sale: %v", err)
	}

	bg := context.Background()
	p, _ := repo.GetProduct(bg, "p-rice")
	if p.CurrentStock.Cmp(dec("10")) != 0 {
		t.Fatalf("direct sale must never change stock, got %s", p.CurrentStock)
	}

	expenses, _ := repo.ListTransactions(bg, domain.TransactionFilter{Type: domain.TxTypeExpense})
	if len(expenses) != 1 {
		t.Fatalf("expected exactly one companion expense, got %d", len(expenses))
	}
	// 5 units at the product's cost of 5
	if expenses[0].Amount.Cmp(dec("25")) != 0 {
		t.Fatalf("expected cost-of-goods 25, got %s", expenses[0].Amount)
	}
	_ = tx
}

func TestDirectSaleReturnLeavesExpenseInPlace(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "2", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("16"),
		DirectSale:    true,
	})
	if err != nil {
		t.Fatalf("direct sale: %v", err)
	}
	if _, err := svc.ProcessSaleReturn(ctx, tx.ID); err != nil {
		t.Fatalf("return: %v", err)
	}

	bg := context.Background()
	p, _ := repo.GetProduct(bg, "p-rice")
	if p.CurrentStock.Cmp(dec("10")) != 0 {
		t.Fatalf("returning a direct sale must not touch stock, got %s", p.CurrentStock)
	}
	expenses, _ := repo.ListTransactions(bg, domain.TransactionFilter{Type: domain.TxTypeExpense})
	if len(expenses) != 1 || expenses[0].Status != domain.StatusCompleted {
		t.Fatalf("the cost-of-goods expense must remain on the books, got %+v", expenses)
	}
}

func TestPurchaseCostAveraging(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompletePurchase(ctx, domain.PurchaseRequest{
		Items:         []domain.CartItemInput{{ProductID: "p-rice", Quantity: decPtr("10"), CostPrice: decPtr("7")}},
		SupplierID:    "s-delta",
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("70"),
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if tx.ID[:4] != "PUR-" {
		t.Fatalf("expected PUR- id, got %s", tx.ID)
	}

	p, _ := repo.GetProduct(context.Background(), "p-rice")
	if p.CurrentStock.Cmp(dec("20")) != 0 {
		t.Fatalf("expected stock 20, got %s", p.CurrentStock)
	}
	if p.PurchasePrice.Cmp(dec("6.00")) != 0 {
		t.Fatalf("expected weighted-average cost 6.00, got %s", p.PurchasePrice)
	}
}

func TestPurchaseValidatesProductsBeforeWriting(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	_, err := svc.CompletePurchase(ctx, domain.PurchaseRequest{
		Items: []domain.CartItemInput{
			{ProductID: "p-rice", Quantity: decPtr("10"), CostPrice: decPtr("7")},
			{ProductID: "p-ghost", Quantity: decPtr("1"), CostPrice: decPtr("1")},
		},
		SupplierID:    "s-delta",
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("71"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	bg := context.Background()
	p, _ := repo.GetProduct(bg, "p-rice")
	if p.CurrentStock.Cmp(dec("10")) != 0 {
		t.Fatalf("nothing may be written before every product resolves, got stock %s", p.CurrentStock)
	}
	txs, _ := repo.ListTransactions(bg, domain.TransactionFilter{})
	if len(txs) != 0 {
		t.Fatalf("no transaction may exist after a failed purchase, got %d", len(txs))
	}
}

func TestPurchaseDeferredMovesSupplierBalance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompletePurchase(ctx, domain.PurchaseRequest{
		Items:         []domain.CartItemInput{{ProductID: "p-tea", Quantity: decPtr("5"), CostPrice: decPtr("12")}},
		SupplierID:    "s-delta",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("60"),
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	bg := context.Background()
	sp, _ := repo.GetSupplier(bg, "s-delta")
	if sp.CurrentBalance.Cmp(dec("60")) != 0 {
		t.Fatalf("expected supplier balance 60, got %s", sp.CurrentBalance)
	}

	ret, err := svc.ProcessPurchaseReturn(ctx, tx.ID)
	if err != nil {
		t.Fatalf("purchase return: %v", err)
	}
	if ret.ID[:5] != "PRET-" {
		t.Fatalf("expected PRET- id, got %s", ret.ID)
	}
	sp, _ = repo.GetSupplier(bg, "s-delta")
	if sp.CurrentBalance.Sign() != 0 {
		t.Fatalf("return must reverse the supplier balance, got %s", sp.CurrentBalance)
	}
	p, _ := repo.GetProduct(bg, "p-tea")
	if p.CurrentStock.Cmp(dec("50")) != 0 {
		t.Fatalf("expected stock back at 50, got %s", p.CurrentStock)
	}
}

func TestPurchaseReturnChecksWholeCartFirst(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	tx, err := svc.CompletePurchase(ctx, domain.PurchaseRequest{
		Items:         []domain.CartItemInput{{ProductID: "p-oil", Quantity: decPtr("2"), CostPrice: decPtr("20")}},
		SupplierID:    "s-delta",
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("40"),
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	// Sell the stock down so the return would go negative.
	if _, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-oil", "2", "26")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("52"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	if _, err := svc.ProcessPurchaseReturn(ctx, tx.ID); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	p, _ := repo.GetProduct(context.Background(), "p-oil")
	if p.CurrentStock.Cmp(dec("1")) != 0 {
		t.Fatalf("stock must be untouched by the failed return, got %s", p.CurrentStock)
	}
}

func TestShiftMutualExclusionAndReconciliation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx()

	shift := openShift(t, svc, ctx, "100")
	if _, err := svc.OpenShift(ctx, dec("50")); !errors.Is(err, domain.ErrShiftAlreadyOpen) {
		t.Fatalf("expected SHIFT_ALREADY_OPEN, got %v", err)
	}

	if _, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "2", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("16"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, domain.CashMovementRequest{Amount: dec("6")}); err != nil {
		t.Fatalf("expense: %v", err)
	}

	closed, err := svc.CloseShift(ctx, dec("111"))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ID != shift.ID || closed.Status != domain.ShiftClosed {
		t.Fatalf("unexpected closed shift %+v", closed)
	}
	// 100 + 16 - 6
	if closed.ExpectedCash.Cmp(dec("110")) != 0 {
		t.Fatalf("expected cash 110, got %s", closed.ExpectedCash)
	}
	if closed.EndCash.Cmp(dec("111")) != 0 {
		t.Fatalf("end cash must record the operator count, got %s", closed.EndCash)
	}

	if _, err := svc.CloseShift(ctx, dec("0")); !errors.Is(err, domain.ErrShiftAlreadyClosed) {
		t.Fatalf("expected SHIFT_ALREADY_CLOSED, got %v", err)
	}
}

func TestExpenseApprovalRule(t *testing.T) {
	svc, _ := newTestService(t)
	cashier := cashierCtx()
	admin := adminCtx()
	openShift(t, svc, cashier, "0")

	small, err := svc.CreateExpense(cashier, domain.CashMovementRequest{Amount: dec("2000")})
	if err != nil {
		t.Fatalf("small expense: %v", err)
	}
	if small.Status != domain.StatusCompleted {
		t.Fatalf("expense at the threshold must complete, got %s", small.Status)
	}

	big, err := svc.CreateExpense(cashier, domain.CashMovementRequest{Amount: dec("2000.01")})
	if err != nil {
		t.Fatalf("big expense: %v", err)
	}
	if big.Status != domain.StatusPending {
		t.Fatalf("cashier expense above the threshold must be pending, got %s", big.Status)
	}

	adminBig, err := svc.CreateExpense(admin, domain.CashMovementRequest{Amount: dec("9000")})
	if err != nil {
		t.Fatalf("admin expense: %v", err)
	}
	if adminBig.Status != domain.StatusCompleted {
		t.Fatalf("admin expenses never need approval, got %s", adminBig.Status)
	}

	if _, err := svc.ApproveTransaction(cashier, big.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("cashier approval must be forbidden, got %v", err)
	}
	approved, err := svc.ApproveTransaction(admin, big.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", approved.Status)
	}
	if _, err := svc.RejectTransaction(admin, big.ID); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("completed is terminal, expected INVALID_STATUS, got %v", err)
	}
}

func TestSettlementsWriteFactRecords(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	// Put the customer into debt first.
	if _, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-tea", "1", "50")},
		CustomerID:    "c-acme",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("50"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}

	tx, err := svc.SettleCustomerDebt(ctx, "c-acme", domain.SettlementRequest{Amount: dec("30")})
	if err != nil {
		t.Fatalf("settle customer: %v", err)
	}
	if tx.ID[:4] != "SET-" || tx.CustomerID != "c-acme" {
		t.Fatalf("unexpected settlement record %+v", tx)
	}

	bg := context.Background()
	c, _ := repo.GetCustomer(bg, "c-acme")
	if c.CurrentBalance.Cmp(dec("-20")) != 0 {
		t.Fatalf("expected balance -20, got %s", c.CurrentBalance)
	}

	if _, err := svc.CompletePurchase(ctx, domain.PurchaseRequest{
		Items:         []domain.CartItemInput{{ProductID: "p-tea", Quantity: decPtr("1"), CostPrice: decPtr("12")}},
		SupplierID:    "s-delta",
		PaymentMethod: domain.PaymentDeferred,
		TotalAmount:   dec("12"),
	}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := svc.SettleSupplierDebt(ctx, "s-delta", domain.SettlementRequest{Amount: dec("12")}); err != nil {
		t.Fatalf("settle supplier: %v", err)
	}
	sp, _ := repo.GetSupplier(bg, "s-delta")
	if sp.CurrentBalance.Sign() != 0 {
		t.Fatalf("expected supplier balance zero, got %s", sp.CurrentBalance)
	}
}

func TestQuotationLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	q, err := svc.CreateQuotation(ctx, domain.QuotationRequest{
		Items:      []domain.CartItemInput{saleLine("p-rice", "2", "8")},
		CustomerID: "c-acme",
		Total:      dec("16"),
	})
	if err != nil {
		t.Fatalf("create quotation: %v", err)
	}
	if q.Number != "Q00001" || q.Status != domain.QuotationDraft {
		t.Fatalf("unexpected quotation %+v", q)
	}

	sale, err := svc.ConvertQuotation(ctx, q.ID, domain.PaymentCash)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if sale.ID != "Q00001" {
		t.Fatalf("the quotation number must become the invoice id, got %s", sale.ID)
	}
	p, _ := repo.GetProduct(context.Background(), "p-rice")
	if p.CurrentStock.Cmp(dec("8")) != 0 {
		t.Fatalf("conversion must move stock, got %s", p.CurrentStock)
	}

	if _, err := svc.ConvertQuotation(ctx, q.ID, domain.PaymentCash); !errors.Is(err, domain.ErrAlreadyConverted) {
		t.Fatalf("expected ALREADY_CONVERTED, got %v", err)
	}
}

func TestNegativeStockPolicyCanBeRelaxed(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	settings, _ := repo.GetSettings(context.Background())
	settings.PreventNegativeStock = false
	if _, err := svc.UpdateSettings(ctx, *settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	if _, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-oil", "3", "26")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("78"),
	}); err != nil {
		t.Fatalf("oversell with relaxed policy: %v", err)
	}
	p, _ := repo.GetProduct(context.Background(), "p-oil")
	if p.CurrentStock.Cmp(dec("-2")) != 0 {
		t.Fatalf("expected stock -2, got %s", p.CurrentStock)
	}
}

func TestCartInputVariantsNormalize(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()

	// cartQuantity/sellPrice variant, as older clients send it
	_, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{{ProductID: "p-rice", CartQuantity: decPtr("2"), SellPrice: decPtr("8")}},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("16"),
	})
	if err != nil {
		t.Fatalf("variant cart sale: %v", err)
	}
	p, _ := repo.GetProduct(context.Background(), "p-rice")
	if p.CurrentStock.Cmp(dec("8")) != 0 {
		t.Fatalf("expected stock 8, got %s", p.CurrentStock)
	}
}

func TestDailySummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.CompleteSale(ctx, domain.SaleRequest{
		Items:         []domain.CartItemInput{saleLine("p-rice", "2", "8")},
		PaymentMethod: domain.PaymentCash,
		TotalAmount:   dec("16"),
	}); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, domain.CashMovementRequest{Amount: dec("6")}); err != nil {
		t.Fatalf("expense: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	summary, err := svc.DailySummary(ctx, today)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Sales.Cmp(dec("16")) != 0 || summary.Expenses.Cmp(dec("6")) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.NetCashFlow.Cmp(dec("10")) != 0 {
		t.Fatalf("expected net cash flow 10, got %s", summary.NetCashFlow)
	}
}

func TestUserManagementRules(t *testing.T) {
	svc, _ := newTestService(t)
	admin := adminCtx()

	if _, err := svc.CreateUser(cashierCtx(), "helper", "secret1", domain.RoleCashier); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("cashier must not create users, got %v", err)
	}
	if _, err := svc.CreateUser(admin, "helper", "secret1", domain.RoleCashier); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := svc.CreateUser(admin, "helper", "secret2", domain.RoleCashier); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected DUPLICATE_ENTRY, got %v", err)
	}
	if err := svc.ChangePassword(cashierCtx(), "helper", "newsecret"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("cashier must not change another user's password, got %v", err)
	}
	if err := svc.DeleteUser(admin, "helper"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
}
