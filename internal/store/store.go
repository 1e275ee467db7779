// Package store defines the persistence boundary. Business failures come
// back as *domain.Error values; anything else is an infrastructure error.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
)

// Repository is the persistence surface shared by the in-memory and
// PostgreSQL stores.
//
// CommitTransaction is the atomic heart of the ledger: it re-verifies the
// stock and credit invariants of the given LedgerCommit under the store's
// own lock (serializable transaction with row locks in postgres, the
// store mutex in memory) and applies the whole unit or nothing.
type Repository interface {
	CommitTransaction(ctx context.Context, commit domain.LedgerCommit) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	// UpdateTransactionStatus transitions from->to and fails with
	// INVALID_STATUS if the stored status is not `from`.
	UpdateTransactionStatus(ctx context.Context, id string, from string, to string) (*domain.Transaction, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	// DeleteCustomer fails with BALANCE_NOT_ZERO while a balance remains.
	DeleteCustomer(ctx context.Context, id string) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error

	// CreateShift fails with SHIFT_ALREADY_OPEN if the user already has an
	// open shift; CloseShift fails with SHIFT_ALREADY_CLOSED on a closed one.
	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetShift(ctx context.Context, id string) (*domain.Shift, error)
	GetOpenShift(ctx context.Context, username string) (*domain.Shift, error)
	CloseShift(ctx context.Context, id string, endCash, expectedCash decimal.Decimal, closedAt time.Time) (*domain.Shift, error)
	ListShifts(ctx context.Context) ([]domain.Shift, error)

	CreateQuotation(ctx context.Context, q domain.Quotation) (*domain.Quotation, error)
	GetQuotation(ctx context.Context, id string) (*domain.Quotation, error)
	ListQuotations(ctx context.Context) ([]domain.Quotation, error)
	// MarkQuotationConverted fails with ALREADY_CONVERTED on a second call.
	MarkQuotationConverted(ctx context.Context, id string, at time.Time) (*domain.Quotation, error)
	NextQuotationNumber(ctx context.Context) (int64, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, s domain.Settings) (*domain.Settings, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
	// DeleteUser fails with LAST_ADMIN when removing the only admin.
	DeleteUser(ctx context.Context, username string) error
}
