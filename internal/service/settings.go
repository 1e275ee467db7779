package service

import (
	"context"

	"foxpos/backend/internal/domain"
)

func (s *Service) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if settings.NextInvoiceNumber < 1 {
		return nil, domain.E(domain.CodeValidation, "next invoice number must be at least 1")
	}
	if settings.TaxRate.Sign() < 0 {
		return nil, domain.E(domain.CodeValidation, "tax rate must not be negative")
	}
	return s.repo.UpdateSettings(ctx, settings)
}
