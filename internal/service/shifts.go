package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

// OpenShift starts a cashier session. The store enforces the one open
// shift per user invariant.
func (s *Service) OpenShift(ctx context.Context, startCash decimal.Decimal) (*domain.Shift, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if startCash.Sign() < 0 {
		return nil, domain.E(domain.CodeValidation, "start cash must not be negative")
	}
	shift := domain.Shift{
		ID:           s.ids.Next("SH-"),
		Username:     actor.Username,
		Status:       domain.ShiftOpen,
		StartCash:    startCash,
		EndCash:      decimal.Zero,
		ExpectedCash: decimal.Zero,
		StartTime:    time.Now().UTC(),
	}
	return s.repo.CreateShift(ctx, shift)
}

// CloseShift ends the actor's open shift, recording the counted drawer
// amount and the expected amount derived from the shift's completed
// cash-method transactions.
func (s *Service) CloseShift(ctx context.Context, endCash decimal.Decimal) (*domain.Shift, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if endCash.Sign() < 0 {
		return nil, domain.E(domain.CodeValidation, "end cash must not be negative")
	}
	shift, err := s.repo.GetOpenShift(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, domain.E(domain.CodeShiftAlreadyClosed, "no open shift for user %s", actor.Username)
	}

	txs, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{ShiftID: shift.ID})
	if err != nil {
		return nil, err
	}
	expected := ledger.ExpectedShiftCash(shift.StartCash, txs)

	return s.repo.CloseShift(ctx, shift.ID, endCash, expected, time.Now().UTC())
}

func (s *Service) GetShift(ctx context.Context, id string) (*domain.Shift, error) {
	return s.repo.GetShift(ctx, id)
}

// CurrentShift returns the actor's open shift, or nil when none is open.
func (s *Service) CurrentShift(ctx context.Context) (*domain.Shift, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOpenShift(ctx, actor.Username)
}

func (s *Service) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	return s.repo.ListShifts(ctx)
}
