// Package service holds the orchestrators that turn carts and cash
// movements into ledger commits. Every write path validates first, then
// hands the store one atomic LedgerCommit; the store re-verifies stock
// and credit invariants under its own lock.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/cache"
	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/store"
	"foxpos/backend/internal/xid"
)

type Service struct {
	repo       store.Repository
	ids        xid.Generator
	summaries  cache.SummaryCache
	summaryTTL time.Duration
}

func New(repo store.Repository, ids xid.Generator, summaries cache.SummaryCache, summaryTTL time.Duration) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if summaryTTL <= 0 {
		summaryTTL = time.Minute
	}
	return &Service{repo: repo, ids: ids, summaries: summaries, summaryTTL: summaryTTL}
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

func (s *Service) requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		return domain.Actor{}, domain.E(domain.CodeAuthFailed, "no authenticated actor")
	}
	return actor, nil
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	if !actor.IsAdmin() {
		return domain.Actor{}, domain.E(domain.CodeForbidden, "admin role required")
	}
	return actor, nil
}

// resolveShift applies the shift rule shared by every transaction flow:
// a cashier must have an open shift, an admin may proceed without one
// (the transaction is then unattributed).
func (s *Service) resolveShift(ctx context.Context, actor domain.Actor, mandatory bool) (string, error) {
	shift, err := s.repo.GetOpenShift(ctx, actor.Username)
	if err != nil {
		return "", err
	}
	if shift == nil {
		if mandatory && !actor.IsAdmin() {
			return "", domain.E(domain.CodeShiftNotOpen, "open a shift before recording transactions")
		}
		return "", nil
	}
	return shift.ID, nil
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentWallet, domain.PaymentInstant, domain.PaymentDeferred:
		return true
	}
	return false
}

// normalizeCart folds the duck-typed input variants into canonical lines
// exactly once; every business rule downstream sees only CartLine.
func normalizeCart(items []domain.CartItemInput) ([]domain.CartLine, error) {
	if len(items) == 0 {
		return nil, domain.E(domain.CodeValidation, "cart is empty")
	}
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		line := item.Normalize()
		if line.ProductID == "" {
			return nil, domain.E(domain.CodeValidation, "cart item missing product id")
		}
		if line.Quantity.Sign() <= 0 {
			return nil, domain.E(domain.CodeValidation, "cart item quantity must be positive")
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// snapshotLine builds the write-once item record. Unresolvable products
// fall back to a placeholder name instead of failing, so stale cart
// entries do not block flows that allow them.
func (s *Service) snapshotLine(ctx context.Context, line domain.CartLine) domain.TransactionItem {
	item := domain.TransactionItem{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitCost:  line.UnitCost,
		UnitPrice: line.UnitPrice,
		Discount:  line.Discount,
	}
	product, err := s.repo.GetProduct(ctx, line.ProductID)
	if err != nil {
		item.Name = fmt.Sprintf("product #%s", line.ProductID)
		return item
	}
	item.Name = product.Name
	item.UnitCost = product.PurchasePrice
	if item.UnitPrice.Sign() == 0 {
		item.UnitPrice = product.SellingPrice
	}
	return item
}

func (s *Service) nextTxID(txType string) string {
	return s.ids.Next(domain.TxPrefixes[txType])
}

func (s *Service) strictStockPolicy(ctx context.Context) bool {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		log.Printf("[service] settings unavailable (%v), defaulting to strict stock", err)
		return true
	}
	return settings.PreventNegativeStock
}

func requirePositive(amount decimal.Decimal, what string) error {
	if amount.Sign() <= 0 {
		return domain.E(domain.CodeValidation, "%s must be positive", what)
	}
	return nil
}
