package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
)

// Catalog and counterparty management. Stock is mutated exclusively by
// the transaction flows; AdjustProductStock is the one manual override.

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.E(domain.CodeValidation, "product name is required")
	}
	if p.SellingPrice.Sign() < 0 || p.PurchasePrice.Sign() < 0 {
		return nil, domain.E(domain.CodeValidation, "product prices must not be negative")
	}
	if p.ID == "" {
		p.ID = s.ids.Next("PRD-")
	}
	if p.Code == "" {
		p.Code = "P-" + strings.TrimPrefix(p.ID, "PRD-")
	}
	p.Active = true
	p.CreatedAt = time.Now().UTC()
	return s.repo.CreateProduct(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	// Stock and cost basis belong to the ledger; catalog edits keep them.
	p.CurrentStock = existing.CurrentStock
	p.PurchasePrice = existing.PurchasePrice
	p.CreatedAt = existing.CreatedAt
	return s.repo.UpdateProduct(ctx, p)
}

// AdjustProductStock sets an absolute stock level outside the transaction
// flows (stocktake corrections).
func (s *Service) AdjustProductStock(ctx context.Context, id string, newStock decimal.Decimal) (*domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.CurrentStock = newStock
	return s.repo.UpdateProduct(ctx, *product)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, domain.E(domain.CodeValidation, "customer name is required")
	}
	if c.Type == "" {
		c.Type = domain.CustomerConsumer
	}
	if c.Type != domain.CustomerConsumer && c.Type != domain.CustomerBusiness {
		return nil, domain.E(domain.CodeValidation, "unknown customer type: %s", c.Type)
	}
	if c.Type == domain.CustomerConsumer && c.CreditLimit.Sign() != 0 {
		return nil, domain.E(domain.CodeValidation, "consumer customers cannot have a credit limit")
	}
	if c.CreditLimit.Sign() < 0 {
		return nil, domain.E(domain.CodeValidation, "credit limit must not be negative")
	}
	if c.ID == "" {
		c.ID = s.ids.Next("CUS-")
	}
	if c.Code == "" {
		c.Code = "C-" + strings.TrimPrefix(c.ID, "CUS-")
	}
	c.CurrentBalance = decimal.Zero
	c.Active = true
	c.CreatedAt = time.Now().UTC()
	return s.repo.CreateCustomer(ctx, c)
}

func (s *Service) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetCustomer(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	// Balances move only through the ledger.
	c.CurrentBalance = existing.CurrentBalance
	c.CreatedAt = existing.CreatedAt
	return s.repo.UpdateCustomer(ctx, c)
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sp.Name) == "" {
		return nil, domain.E(domain.CodeValidation, "supplier name is required")
	}
	if sp.ID == "" {
		sp.ID = s.ids.Next("SUP-")
	}
	if sp.Code == "" {
		sp.Code = "S-" + strings.TrimPrefix(sp.ID, "SUP-")
	}
	sp.CurrentBalance = decimal.Zero
	sp.Active = true
	sp.CreatedAt = time.Now().UTC()
	return s.repo.CreateSupplier(ctx, sp)
}

func (s *Service) UpdateSupplier(ctx context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetSupplier(ctx, sp.ID)
	if err != nil {
		return nil, err
	}
	sp.CurrentBalance = existing.CurrentBalance
	sp.CreatedAt = existing.CreatedAt
	return s.repo.UpdateSupplier(ctx, sp)
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}
