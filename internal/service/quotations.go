package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"foxpos/backend/internal/domain"
)

// CreateQuotation stores a draft priced cart under a sequential Q#####
// number. Nothing in the ledger moves until the quotation is converted.
func (s *Service) CreateQuotation(ctx context.Context, req domain.QuotationRequest) (*domain.Quotation, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(req.Total, "total"); err != nil {
		return nil, err
	}
	lines, err := normalizeCart(req.Items)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != "" {
		if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
			return nil, err
		}
	}

	seq, err := s.repo.NextQuotationNumber(ctx)
	if err != nil {
		return nil, err
	}
	number := fmt.Sprintf("Q%05d", seq)

	items := make([]domain.TransactionItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, s.snapshotLine(ctx, line))
	}

	return s.repo.CreateQuotation(ctx, domain.Quotation{
		ID:         number,
		Number:     number,
		CustomerID: req.CustomerID,
		Items:      items,
		Total:      req.Total,
		Status:     domain.QuotationDraft,
		CreatedBy:  actor.Username,
		CreatedAt:  time.Now().UTC(),
	})
}

// ConvertQuotation turns a draft quotation into a completed sale. The
// quotation number becomes the invoice id, which keeps the external
// reference stable and makes a concurrent double-convert fail on the
// duplicate id before the quotation is marked.
func (s *Service) ConvertQuotation(ctx context.Context, id string, paymentMethod string) (*domain.Transaction, error) {
	q, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status == domain.QuotationConverted {
		return nil, domain.E(domain.CodeAlreadyConverted, "quotation %s already converted", q.Number)
	}

	items := make([]domain.CartItemInput, 0, len(q.Items))
	for _, item := range q.Items {
		qty, price, cost := item.Quantity, item.UnitPrice, item.UnitCost
		items = append(items, domain.CartItemInput{
			ProductID: item.ProductID,
			Quantity:  &qty,
			Price:     &price,
			CostPrice: &cost,
		})
	}

	sale, err := s.CompleteSale(ctx, domain.SaleRequest{
		Items:         items,
		CustomerID:    q.CustomerID,
		PaymentMethod: paymentMethod,
		TotalAmount:   q.Total,
		InvoiceID:     q.Number,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.MarkQuotationConverted(ctx, id, time.Now().UTC()); err != nil {
		// The sale is committed; a failed mark only risks a later
		// ALREADY_CONVERTED surfacing as DUPLICATE_ENTRY instead.
		log.Printf("[service] failed to mark quotation %s converted: %v", id, err)
	}
	return sale, nil
}

func (s *Service) GetQuotation(ctx context.Context, id string) (*domain.Quotation, error) {
	return s.repo.GetQuotation(ctx, id)
}

func (s *Service) ListQuotations(ctx context.Context) ([]domain.Quotation, error) {
	return s.repo.ListQuotations(ctx)
}
