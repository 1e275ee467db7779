package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxTypeSale           = "sale"
	TxTypePurchase       = "purchase"
	TxTypeSaleReturn     = "sale_return"
	TxTypePurchaseReturn = "purchase_return"
	TxTypeExpense        = "expense"
	TxTypeCapitalDeposit = "capital_deposit"
	TxTypeWithdrawal     = "withdrawal"
	TxTypeSettlement     = "debt_settlement"
)

const (
	PaymentCash     = "cash"
	PaymentWallet   = "wallet"
	PaymentInstant  = "instant_transfer"
	PaymentDeferred = "deferred"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

const (
	CustomerConsumer = "consumer"
	CustomerBusiness = "business"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	QuotationDraft     = "draft"
	QuotationConverted = "converted"
)

// TxPrefixes maps each transaction type to its human-readable id prefix.
var TxPrefixes = map[string]string{
	TxTypeSale:           "INV-",
	TxTypePurchase:       "PUR-",
	TxTypeSaleReturn:     "RET-",
	TxTypePurchaseReturn: "PRET-",
	TxTypeExpense:        "EXP-",
	TxTypeCapitalDeposit: "CAP-",
	TxTypeWithdrawal:     "WDR-",
	TxTypeSettlement:     "SET-",
}

type Product struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Customer struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Type           string          `json:"type"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Supplier struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionItem is the write-once line snapshot stored inside a
// Transaction. It captures the product name and prices at the moment the
// transaction was created; later catalog edits never alter it.
type TransactionItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

type Transaction struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	PaymentMethod string            `json:"payment_method"`
	Status        string            `json:"status"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	CustomerID    string            `json:"customer_id,omitempty"`
	SupplierID    string            `json:"supplier_id,omitempty"`
	ShiftID       string            `json:"shift_id,omitempty"`
	Items         []TransactionItem `json:"items,omitempty"`
	DirectSale    bool              `json:"direct_sale,omitempty"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

type Shift struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Status       string          `json:"status"`
	StartCash    decimal.Decimal `json:"start_cash"`
	EndCash      decimal.Decimal `json:"end_cash"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      *time.Time      `json:"end_time,omitempty"`
}

type Quotation struct {
	ID          string            `json:"id"`
	Number      string            `json:"number"`
	CustomerID  string            `json:"customer_id,omitempty"`
	Items       []TransactionItem `json:"items"`
	Total       decimal.Decimal   `json:"total"`
	Status      string            `json:"status"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	ConvertedAt *time.Time        `json:"converted_at,omitempty"`
}

// Settings is the single process-wide configuration record, loaded and
// updated explicitly. The negative-stock policy feeds the inventory ledger.
type Settings struct {
	CompanyName          string          `json:"company_name"`
	Address              string          `json:"address"`
	Phone                string          `json:"phone"`
	NextInvoiceNumber    int64           `json:"next_invoice_number"`
	OpeningBalance       decimal.Decimal `json:"opening_balance"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	PreventNegativeStock bool            `json:"prevent_negative_stock"`
	AutoPrint            bool            `json:"auto_print"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Actor struct {
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// CartItemInput accepts the field variants different clients send for the
// same line item (quantity vs cartQuantity, price vs sellPrice, cost_price
// vs costPrice). It is normalized exactly once at the service boundary;
// nothing downstream ever looks at the variant fields.
type CartItemInput struct {
	ProductID    string           `json:"id"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	CartQuantity *decimal.Decimal `json:"cartQuantity,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	SellPrice    *decimal.Decimal `json:"sellPrice,omitempty"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	CostPriceAlt *decimal.Decimal `json:"costPrice,omitempty"`
	Discount     *decimal.Decimal `json:"discount,omitempty"`
}

// CartLine is the canonical normalized form of a cart item.
type CartLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
	Discount  decimal.Decimal
}

// Normalize maps the input variants onto canonical fields.
func (c CartItemInput) Normalize() CartLine {
	pick := func(values ...*decimal.Decimal) decimal.Decimal {
		for _, v := range values {
			if v != nil {
				return *v
			}
		}
		return decimal.Zero
	}
	return CartLine{
		ProductID: strings.TrimSpace(c.ProductID),
		Quantity:  pick(c.Quantity, c.CartQuantity),
		UnitPrice: pick(c.Price, c.SellPrice),
		UnitCost:  pick(c.CostPrice, c.CostPriceAlt),
		Discount:  pick(c.Discount),
	}
}

type SaleRequest struct {
	Items         []CartItemInput `json:"items"`
	CustomerID    string          `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	DirectSale    bool            `json:"direct_sale,omitempty"`
}

type PurchaseRequest struct {
	Items         []CartItemInput `json:"items"`
	SupplierID    string          `json:"supplier_id"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type CashMovementRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
}

type SettlementRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type QuotationRequest struct {
	Items      []CartItemInput `json:"items"`
	CustomerID string          `json:"customer_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
}

type TransactionFilter struct {
	Type       string
	Status     string
	ShiftID    string
	CustomerID string
	SupplierID string
	From       time.Time
	To         time.Time
}

// DailySummary aggregates one day's completed transactions.
type DailySummary struct {
	Date            string          `json:"date"`
	Sales           decimal.Decimal `json:"sales"`
	Purchases       decimal.Decimal `json:"purchases"`
	Expenses        decimal.Decimal `json:"expenses"`
	Withdrawals     decimal.Decimal `json:"withdrawals"`
	Capital         decimal.Decimal `json:"capital"`
	SaleReturns     decimal.Decimal `json:"sale_returns"`
	PurchaseReturns decimal.Decimal `json:"purchase_returns"`
	NetCashFlow     decimal.Decimal `json:"net_cash_flow"`
	TxCount         int             `json:"transaction_count"`
}
