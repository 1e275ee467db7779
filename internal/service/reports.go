package service

import (
	"context"
	"log"
	"time"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

// DailySummary aggregates one day's completed transactions. Results are
// served from the summary cache when warm; cache trouble is logged and
// the summary is computed from the store instead.
func (s *Service) DailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, domain.E(domain.CodeValidation, "invalid date %q, want YYYY-MM-DD", date)
	}

	key := "daily-summary:" + date
	if cached, ok, err := s.summaries.Get(ctx, key); err != nil {
		log.Printf("[service] summary cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	txs, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{
		Status: domain.StatusCompleted,
		From:   day,
		To:     day.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	summary := domain.DailySummary{Date: date, TxCount: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TxTypeSale:
			summary.Sales = summary.Sales.Add(tx.Amount)
		case domain.TxTypePurchase:
			summary.Purchases = summary.Purchases.Add(tx.Amount)
		case domain.TxTypeExpense:
			summary.Expenses = summary.Expenses.Add(tx.Amount)
		case domain.TxTypeWithdrawal:
			summary.Withdrawals = summary.Withdrawals.Add(tx.Amount)
		case domain.TxTypeCapitalDeposit:
			summary.Capital = summary.Capital.Add(tx.Amount)
		case domain.TxTypeSaleReturn:
			summary.SaleReturns = summary.SaleReturns.Add(tx.Amount)
		case domain.TxTypePurchaseReturn:
			summary.PurchaseReturns = summary.PurchaseReturns.Add(tx.Amount)
		}
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	summary.NetCashFlow = ledger.NetCashFlow(settings.OpeningBalance,
		summary.Sales, summary.Purchases, summary.Expenses, summary.Withdrawals, summary.Capital)

	if err := s.summaries.Set(ctx, key, &summary, s.summaryTTL); err != nil {
		log.Printf("[service] summary cache write failed: %v", err)
	}
	return &summary, nil
}
