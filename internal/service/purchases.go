package service

import (
	"context"
	"fmt"
	"time"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

// CompletePurchase records an incoming delivery. Every cart product id is
// resolved before anything is written, so a bad line can never leave a
// half-applied purchase behind; the commit then raises stock with a
// weighted-average cost recompute per line.
func (s *Service) CompletePurchase(ctx context.Context, req domain.PurchaseRequest) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return nil, domain.E(domain.CodeValidation, "unsupported payment method: %s", req.PaymentMethod)
	}
	if err := requirePositive(req.TotalAmount, "total amount"); err != nil {
		return nil, err
	}
	if req.SupplierID == "" {
		return nil, domain.E(domain.CodeValidation, "supplier is required")
	}
	lines, err := normalizeCart(req.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	// Purchases are never blocked by shift absence.
	shiftID, err := s.resolveShift(ctx, actor, false)
	if err != nil {
		return nil, err
	}

	products := make(map[string]*domain.Product, len(lines))
	for _, line := range lines {
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		products[line.ProductID] = product
	}

	now := time.Now().UTC()
	items := make([]domain.TransactionItem, 0, len(lines))
	commit := domain.LedgerCommit{}
	for _, line := range lines {
		product := products[line.ProductID]
		cost := line.UnitCost
		if cost.Sign() == 0 {
			cost = line.UnitPrice
		}
		items = append(items, domain.TransactionItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitCost:  cost,
			UnitPrice: product.SellingPrice,
		})
		commit.StockChanges = append(commit.StockChanges, domain.StockChange{
			ProductID: line.ProductID,
			Direction: domain.StockIn,
			Quantity:  line.Quantity,
			UnitCost:  cost,
			Reaverage: true,
		})
	}

	commit.Transaction = domain.Transaction{
		ID:            s.nextTxID(domain.TxTypePurchase),
		Type:          domain.TxTypePurchase,
		Amount:        req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.StatusCompleted,
		SupplierID:    req.SupplierID,
		ShiftID:       shiftID,
		Items:         items,
		CreatedBy:     actor.Username,
		CreatedAt:     now,
	}

	if req.PaymentMethod == domain.PaymentDeferred {
		commit.Balance = &domain.BalanceChange{
			SupplierID: req.SupplierID,
			Delta:      ledger.SupplierPurchaseDelta(req.TotalAmount),
		}
	}

	return s.repo.CommitTransaction(ctx, commit)
}

// ProcessPurchaseReturn sends goods back to a supplier. The whole snapshot
// is checked against current stock before any decrement (you cannot
// return more than is on hand), then the commit removes stock and
// reverses a deferred supplier balance.
func (s *Service) ProcessPurchaseReturn(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	original, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.Type != domain.TxTypePurchase {
		return nil, domain.E(domain.CodeInvalidType, "only purchase transactions can be returned here")
	}

	for _, item := range original.Items {
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.CurrentStock.Cmp(item.Quantity) < 0 {
			return nil, domain.E(domain.CodeInsufficientStock, "not enough stock to return product: %s", product.Name)
		}
	}

	shiftID, err := s.resolveShift(ctx, actor, false)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:            s.nextTxID(domain.TxTypePurchaseReturn),
		Type:          domain.TxTypePurchaseReturn,
		Amount:        original.Amount,
		PaymentMethod: original.PaymentMethod,
		Status:        domain.StatusCompleted,
		Description:   fmt.Sprintf("return of %s", transactionID),
		SupplierID:    original.SupplierID,
		ShiftID:       shiftID,
		Items:         original.Items,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}

	commit := domain.LedgerCommit{Transaction: tx, StrictStock: true}
	for _, item := range original.Items {
		commit.StockChanges = append(commit.StockChanges, domain.StockChange{
			ProductID: item.ProductID,
			Direction: domain.StockOut,
			Quantity:  item.Quantity,
		})
	}
	if original.PaymentMethod == domain.PaymentDeferred && original.SupplierID != "" {
		commit.Balance = &domain.BalanceChange{
			SupplierID: original.SupplierID,
			Delta:      ledger.SupplierReturnDelta(original.Amount),
		}
	}

	return s.repo.CommitTransaction(ctx, commit)
}
