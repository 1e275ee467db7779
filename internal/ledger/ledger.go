// Package ledger holds the pure stock, balance, and shift-cash math.
// These functions never touch storage; the stores call them while holding
// their own locks so the read-compute-write cycle is never interleaved.
package ledger

import (
	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/money"
)

// WeightedAverageCost blends the existing cost basis with an incoming
// batch. When oldQty+addQty is zero or negative the old cost is returned
// unchanged (guards division by zero).
func WeightedAverageCost(oldQty, oldCost, addQty, addCost decimal.Decimal) decimal.Decimal {
	total := oldQty.Add(addQty)
	if total.Sign() <= 0 {
		return oldCost
	}
	blended := oldQty.Mul(oldCost).Add(addQty.Mul(addCost)).Div(total)
	return money.Round2(blended)
}

// IncreaseStock applies an incoming quantity to a product. Purchases
// recompute the weighted-average cost; sale returns pass reaverage=false
// because the returned units come back at the already-absorbed cost.
func IncreaseStock(p *domain.Product, qty, unitCost decimal.Decimal, reaverage bool) {
	if reaverage {
		p.PurchasePrice = WeightedAverageCost(p.CurrentStock, p.PurchasePrice, qty, unitCost)
	}
	p.CurrentStock = p.CurrentStock.Add(qty)
}

// DecreaseStock removes quantity from a product. With strict=true the
// call fails with INSUFFICIENT_STOCK instead of driving stock negative.
func DecreaseStock(p *domain.Product, qty decimal.Decimal, strict bool) error {
	if strict && p.CurrentStock.Cmp(qty) < 0 {
		return domain.E(domain.CodeInsufficientStock, "insufficient stock for product: %s", p.Name)
	}
	p.CurrentStock = p.CurrentStock.Sub(qty)
	return nil
}

// DeferredSaleAllowed reports whether a deferred sale of amount keeps the
// customer within their credit limit: balance - amount >= -credit_limit.
func DeferredSaleAllowed(balance, amount, creditLimit decimal.Decimal) bool {
	return balance.Sub(amount).Cmp(creditLimit.Neg()) >= 0
}

// Customer balance convention: negative means the customer owes us.

func CustomerSaleDelta(amount decimal.Decimal) decimal.Decimal { return amount.Neg() }
func CustomerReturnDelta(amount decimal.Decimal) decimal.Decimal { return amount }
func CustomerSettlementDelta(paid decimal.Decimal) decimal.Decimal { return paid }

// Supplier balance convention: positive means we owe the supplier.

func SupplierPurchaseDelta(amount decimal.Decimal) decimal.Decimal { return amount }
func SupplierReturnDelta(amount decimal.Decimal) decimal.Decimal { return amount.Neg() }
func SupplierSettlementDelta(paid decimal.Decimal) decimal.Decimal { return paid.Neg() }

// cashFlowSign gives the direction a completed cash transaction moves the
// drawer: +1 money in, -1 money out, 0 no cash effect.
func cashFlowSign(txType string) int {
	switch txType {
	case domain.TxTypeSale, domain.TxTypeCapitalDeposit, domain.TxTypePurchaseReturn:
		return 1
	case domain.TxTypePurchase, domain.TxTypeExpense, domain.TxTypeWithdrawal, domain.TxTypeSaleReturn:
		return -1
	}
	return 0
}

// settlementCashSign: a customer settlement brings cash in, paying a
// supplier takes cash out. The settlement record itself does not say
// which side it was, so the counterparty link decides.
func settlementCashSign(tx domain.Transaction) int {
	if tx.CustomerID != "" {
		return 1
	}
	if tx.SupplierID != "" {
		return -1
	}
	return 0
}

// ExpectedShiftCash computes the drawer amount a closing shift should
// hold: start cash plus the net flow of completed cash-method
// transactions attributed to the shift.
func ExpectedShiftCash(startCash decimal.Decimal, txs []domain.Transaction) decimal.Decimal {
	expected := startCash
	for _, tx := range txs {
		if tx.Status != domain.StatusCompleted || tx.PaymentMethod != domain.PaymentCash {
			continue
		}
		sign := cashFlowSign(tx.Type)
		if tx.Type == domain.TxTypeSettlement {
			sign = settlementCashSign(tx)
		}
		switch sign {
		case 1:
			expected = expected.Add(tx.Amount)
		case -1:
			expected = expected.Sub(tx.Amount)
		}
	}
	return expected
}

// NetCashFlow is the daily-report aggregate:
// opening + sales - purchases - expenses - withdrawals + capital.
func NetCashFlow(opening, sales, purchases, expenses, withdrawals, capital decimal.Decimal) decimal.Decimal {
	return opening.Add(sales).Sub(purchases).Sub(expenses).Sub(withdrawals).Add(capital)
}
