package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

// CompleteSale runs the sale workflow: shift, customer, deferred rules,
// stock pre-check, credit limit, then one atomic commit of the sale
// record, its stock decrements, the optional cost-of-goods companion and
// the deferred balance move. Any failure leaves nothing behind.
func (s *Service) CompleteSale(ctx context.Context, req domain.SaleRequest) (*domain.Transaction, error) {
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
	lines, err := normalizeCart(req.Items)
	if err != nil {
		return nil, err
	}

	shiftID, err := s.resolveShift(ctx, actor, true)
	if err != nil {
		return nil, err
	}

	var customer *domain.Customer
	if req.CustomerID != "" {
		customer, err = s.repo.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	if req.PaymentMethod == domain.PaymentDeferred {
		if customer == nil {
			return nil, domain.E(domain.CodeValidation, "deferred payment requires a customer")
		}
		if customer.Type == domain.CustomerConsumer {
			return nil, domain.E(domain.CodeBusinessRule, "deferred payment is for business customers only")
		}
	}

	strict := s.strictStockPolicy(ctx)

	// Advisory pre-check so the caller gets NOT_FOUND / INSUFFICIENT_STOCK
	// before any id is spent; the commit re-verifies under lock.
	if !req.DirectSale {
		for _, line := range lines {
			product, err := s.repo.GetProduct(ctx, line.ProductID)
			if err != nil {
				return nil, err
			}
			if strict && product.CurrentStock.Cmp(line.Quantity) < 0 {
				return nil, domain.E(domain.CodeInsufficientStock, "insufficient stock for product: %s", product.Name)
			}
		}
	}

	if req.PaymentMethod == domain.PaymentDeferred {
		if !ledger.DeferredSaleAllowed(customer.CurrentBalance, req.TotalAmount, customer.CreditLimit) {
			return nil, domain.E(domain.CodeCreditLimitExceeded, "credit limit exceeded for customer: %s", customer.Name)
		}
	}

	invoiceID := req.InvoiceID
	if invoiceID == "" {
		invoiceID = s.nextTxID(domain.TxTypeSale)
	}

	now := time.Now().UTC()
	items := make([]domain.TransactionItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, s.snapshotLine(ctx, line))
	}

	tx := domain.Transaction{
		ID:            invoiceID,
		Type:          domain.TxTypeSale,
		Amount:        req.TotalAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.StatusCompleted,
		CustomerID:    req.CustomerID,
		ShiftID:       shiftID,
		Items:         items,
		DirectSale:    req.DirectSale,
		CreatedBy:     actor.Username,
		CreatedAt:     now,
	}

	commit := domain.LedgerCommit{Transaction: tx, StrictStock: strict}

	if !req.DirectSale {
		for _, line := range lines {
			commit.StockChanges = append(commit.StockChanges, domain.StockChange{
				ProductID: line.ProductID,
				Direction: domain.StockOut,
				Quantity:  line.Quantity,
			})
		}
	} else {
		// A direct sale never touches stock; cost of goods is recognized
		// through a synthetic expense instead.
		cogs := decimal.Zero
		for _, item := range items {
			cogs = cogs.Add(item.UnitCost.Mul(item.Quantity))
		}
		commit.Companion = &domain.Transaction{
			ID:            s.nextTxID(domain.TxTypeExpense),
			Type:          domain.TxTypeExpense,
			Amount:        cogs,
			PaymentMethod: domain.PaymentCash,
			Status:        domain.StatusCompleted,
			Description:   fmt.Sprintf("cost of goods sold - %s", invoiceID),
			Category:      "cost_of_goods",
			ShiftID:       shiftID,
			CreatedBy:     actor.Username,
			CreatedAt:     now,
		}
	}

	if req.PaymentMethod == domain.PaymentDeferred {
		commit.Balance = &domain.BalanceChange{
			CustomerID:         req.CustomerID,
			Delta:              ledger.CustomerSaleDelta(req.TotalAmount),
			EnforceCreditLimit: true,
		}
	}

	return s.repo.CommitTransaction(ctx, commit)
}

// ProcessSaleReturn reverses a sale: a RET- record copying the original's
// amount, method, customer and snapshot; stock restored at the absorbed
// cost (no re-average) unless the sale was direct; deferred balance
// restored. The synthetic cost-of-goods expense of a direct sale is
// deliberately left in place.
func (s *Service) ProcessSaleReturn(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	original, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.Type != domain.TxTypeSale {
		return nil, domain.E(domain.CodeInvalidType, "only sale transactions can be returned here")
	}

	shiftID, err := s.resolveShift(ctx, actor, false)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:            s.nextTxID(domain.TxTypeSaleReturn),
		Type:          domain.TxTypeSaleReturn,
		Amount:        original.Amount,
		PaymentMethod: original.PaymentMethod,
		Status:        domain.StatusCompleted,
		Description:   fmt.Sprintf("return of %s", transactionID),
		CustomerID:    original.CustomerID,
		ShiftID:       shiftID,
		Items:         original.Items,
		DirectSale:    original.DirectSale,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}

	commit := domain.LedgerCommit{Transaction: tx}
	if !original.DirectSale {
		for _, item := range original.Items {
			commit.StockChanges = append(commit.StockChanges, domain.StockChange{
				ProductID: item.ProductID,
				Direction: domain.StockIn,
				Quantity:  item.Quantity,
				UnitCost:  item.UnitCost,
				Reaverage: false,
			})
		}
	}
	if original.PaymentMethod == domain.PaymentDeferred && original.CustomerID != "" {
		commit.Balance = &domain.BalanceChange{
			CustomerID: original.CustomerID,
			Delta:      ledger.CustomerReturnDelta(original.Amount),
		}
	}

	return s.repo.CommitTransaction(ctx, commit)
}
