package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

// Expenses above this amount need admin approval when recorded by a cashier.
var expenseApprovalThreshold = decimal.NewFromInt(2000)

func (s *Service) createCashMovement(ctx context.Context, txType string, req domain.CashMovementRequest, status string) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(req.Amount, "amount"); err != nil {
		return nil, err
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	if !isSupportedPaymentMethod(method) {
		return nil, domain.E(domain.CodeValidation, "unsupported payment method: %s", method)
	}

	shiftID, err := s.resolveShift(ctx, actor, true)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:            s.nextTxID(txType),
		Type:          txType,
		Amount:        req.Amount,
		PaymentMethod: method,
		Status:        status,
		Description:   req.Description,
		Category:      req.Category,
		ShiftID:       shiftID,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}
	return s.repo.CommitTransaction(ctx, domain.LedgerCommit{Transaction: tx})
}

// CreateExpense records an outgoing cost. Cashier expenses above the
// approval threshold start pending and must be completed or rejected by
// an admin.
func (s *Service) CreateExpense(ctx context.Context, req domain.CashMovementRequest) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	status := domain.StatusCompleted
	if req.Amount.Cmp(expenseApprovalThreshold) > 0 && !actor.IsAdmin() {
		status = domain.StatusPending
	}
	return s.createCashMovement(ctx, domain.TxTypeExpense, req, status)
}

func (s *Service) CreateCapitalDeposit(ctx context.Context, req domain.CashMovementRequest) (*domain.Transaction, error) {
	return s.createCashMovement(ctx, domain.TxTypeCapitalDeposit, req, domain.StatusCompleted)
}

func (s *Service) CreateWithdrawal(ctx context.Context, req domain.CashMovementRequest) (*domain.Transaction, error) {
	return s.createCashMovement(ctx, domain.TxTypeWithdrawal, req, domain.StatusCompleted)
}

// SettleCustomerDebt records a payment received from a customer: their
// balance moves toward zero and a SET- record lands in the cash book so
// shift reconciliation sees the money.
func (s *Service) SettleCustomerDebt(ctx context.Context, customerID string, req domain.SettlementRequest) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(req.Amount, "amount"); err != nil {
		return nil, err
	}
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	shiftID, err := s.resolveShift(ctx, actor, true)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:            s.nextTxID(domain.TxTypeSettlement),
		Type:          domain.TxTypeSettlement,
		Amount:        req.Amount,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.StatusCompleted,
		Description:   "debt settlement from " + customer.Name,
		CustomerID:    customerID,
		ShiftID:       shiftID,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}
	return s.repo.CommitTransaction(ctx, domain.LedgerCommit{
		Transaction: tx,
		Balance: &domain.BalanceChange{
			CustomerID: customerID,
			Delta:      ledger.CustomerSettlementDelta(req.Amount),
		},
	})
}

// SettleSupplierDebt records a payment made to a supplier.
func (s *Service) SettleSupplierDebt(ctx context.Context, supplierID string, req domain.SettlementRequest) (*domain.Transaction, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(req.Amount, "amount"); err != nil {
		return nil, err
	}
	supplier, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	shiftID, err := s.resolveShift(ctx, actor, true)
	if err != nil {
		return nil, err
	}

	tx := domain.Transaction{
		ID:            s.nextTxID(domain.TxTypeSettlement),
		Type:          domain.TxTypeSettlement,
		Amount:        req.Amount,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.StatusCompleted,
		Description:   "debt settlement to " + supplier.Name,
		SupplierID:    supplierID,
		ShiftID:       shiftID,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}
	return s.repo.CommitTransaction(ctx, domain.LedgerCommit{
		Transaction: tx,
		Balance: &domain.BalanceChange{
			SupplierID: supplierID,
			Delta:      ledger.SupplierSettlementDelta(req.Amount),
		},
	})
}

// ApproveTransaction completes a pending transaction. Completed and
// rejected are terminal, so anything not pending fails INVALID_STATUS.
func (s *Service) ApproveTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.UpdateTransactionStatus(ctx, id, domain.StatusPending, domain.StatusCompleted)
}

func (s *Service) RejectTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.UpdateTransactionStatus(ctx, id, domain.StatusPending, domain.StatusRejected)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}
