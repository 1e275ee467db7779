package domain

import "github.com/shopspring/decimal"

// Stock change directions inside a LedgerCommit.
const (
	StockIn  = "in"
	StockOut = "out"
)

// StockChange is one product mutation inside a LedgerCommit. Reaverage
// controls whether an "in" change recomputes the weighted-average cost
// (purchases do, sale returns give units back at the absorbed cost).
type StockChange struct {
	ProductID string
	Direction string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reaverage bool
}

// BalanceChange is the optional customer or supplier balance delta inside
// a LedgerCommit. Exactly one of CustomerID/SupplierID is set. When
// EnforceCreditLimit is true the store rejects the commit with
// CREDIT_LIMIT_EXCEEDED if the resulting customer balance would fall
// below -credit_limit.
type BalanceChange struct {
	CustomerID         string
	SupplierID         string
	Delta              decimal.Decimal
	EnforceCreditLimit bool
}

// LedgerCommit is the all-or-nothing unit an orchestrator hands to the
// store: the transaction record, an optional companion record (the
// synthetic cost-of-goods expense of a direct sale), the stock changes,
// and the balance delta. The store re-verifies stock and credit
// invariants under its own lock before applying anything; on any failure
// nothing is written.
type LedgerCommit struct {
	Transaction  Transaction
	Companion    *Transaction
	StockChanges []StockChange
	Balance      *BalanceChange

	// StrictStock rejects "out" changes that would drive stock negative.
	// It follows the prevent_negative_stock setting for sales and is
	// always true for purchase returns.
	StrictStock bool
}
