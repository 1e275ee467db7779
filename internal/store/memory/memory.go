// Package memory is the in-process store used for dev mode and tests. All
// multi-record commits happen inside one critical section, so the
// validate-then-apply cycle of a LedgerCommit can never interleave with
// another writer.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	customers       map[string]domain.Customer
	suppliers       map[string]domain.Supplier
	transactions    map[string]domain.Transaction
	shifts          map[string]domain.Shift
	openShiftByUser map[string]string
	quotations      map[string]domain.Quotation
	quotationSeq    int64
	settings        domain.Settings
	users           map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		customers:       make(map[string]domain.Customer),
		suppliers:       make(map[string]domain.Supplier),
		transactions:    make(map[string]domain.Transaction),
		shifts:          make(map[string]domain.Shift),
		openShiftByUser: make(map[string]string),
		quotations:      make(map[string]domain.Quotation),
		settings:        defaultSettings(),
		users:           make(map[string]domain.UserAccount),
	}
}

func defaultSettings() domain.Settings {
	return domain.Settings{
		CompanyName:          "Fox Retail",
		NextInvoiceNumber:    1,
		OpeningBalance:       decimal.Zero,
		TaxRate:              decimal.Zero,
		PreventNegativeStock: true,
		AutoPrint:            false,
	}
}

// seedUsers builds the initial accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "prd-rice-01", Code: "P-0001", Name: "Rice 1kg", Category: "grocery", Unit: "bag", PurchasePrice: dec("11.50"), SellingPrice: dec("14.00"), CurrentStock: dec("120"), MinStockLevel: dec("20"), Active: true, CreatedAt: now},
		{ID: "prd-oil-01", Code: "P-0002", Name: "Cooking Oil 1L", Category: "grocery", Unit: "bottle", PurchasePrice: dec("21.00"), SellingPrice: dec("26.50"), CurrentStock: dec("60"), MinStockLevel: dec("10"), Active: true, CreatedAt: now},
		{ID: "prd-sugar-01", Code: "P-0003", Name: "Sugar 1kg", Category: "grocery", Unit: "bag", PurchasePrice: dec("9.75"), SellingPrice: dec("12.00"), CurrentStock: dec("80"), MinStockLevel: dec("15"), Active: true, CreatedAt: now},
		{ID: "prd-tea-01", Code: "P-0004", Name: "Tea 100 Bags", Category: "beverage", Unit: "box", PurchasePrice: dec("17.25"), SellingPrice: dec("22.00"), CurrentStock: dec("45"), MinStockLevel: dec("10"), Active: true, CreatedAt: now},
		{ID: "prd-soap-01", Code: "P-0005", Name: "Hand Soap", Category: "household", Unit: "piece", PurchasePrice: dec("4.10"), SellingPrice: dec("6.50"), CurrentStock: dec("200"), MinStockLevel: dec("30"), Active: true, CreatedAt: now},
		{ID: "prd-cheese-05", Code: "P-0006", Name: "Cheese (per kg)", Category: "dairy", Unit: "kg", PurchasePrice: dec("52.00"), SellingPrice: dec("68.00"), CurrentStock: dec("12.50"), MinStockLevel: dec("2"), Active: true, CreatedAt: now},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	customers := []domain.Customer{
		{ID: "cus-walkin", Code: "C-0001", Name: "Walk-in Customer", Type: domain.CustomerConsumer, CurrentBalance: decimal.Zero, CreditLimit: decimal.Zero, Active: true, CreatedAt: now},
		{ID: "cus-horizon", Code: "C-0002", Name: "Horizon Trading Co", Type: domain.CustomerBusiness, CurrentBalance: decimal.Zero, CreditLimit: dec("5000"), Active: true, CreatedAt: now},
		{ID: "cus-nile", Code: "C-0003", Name: "Nile Mini Market", Type: domain.CustomerBusiness, CurrentBalance: dec("-350"), CreditLimit: dec("2000"), Active: true, CreatedAt: now},
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}

	suppliers := []domain.Supplier{
		{ID: "sup-delta", Code: "S-0001", Name: "Delta Wholesale", CurrentBalance: decimal.Zero, Active: true, CreatedAt: now},
		{ID: "sup-cairo", Code: "S-0002", Name: "Cairo Foods Distribution", CurrentBalance: dec("1200"), Active: true, CreatedAt: now},
	}
	for _, sp := range suppliers {
		s.suppliers[sp.ID] = sp
	}

	s.users = seedUsers()
	return s
}

// CommitTransaction validates the whole unit first, then applies it. Both
// phases run under the write lock so no other writer can observe or
// clobber intermediate state.
func (s *Store) CommitTransaction(_ context.Context, commit domain.LedgerCommit) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[commit.Transaction.ID]; exists {
		return nil, domain.E(domain.CodeDuplicate, "transaction id already exists: %s", commit.Transaction.ID)
	}
	if commit.Companion != nil {
		if _, exists := s.transactions[commit.Companion.ID]; exists {
			return nil, domain.E(domain.CodeDuplicate, "transaction id already exists: %s", commit.Companion.ID)
		}
	}

	// Validation pass: nothing is written until every change is known good.
	staged := make(map[string]domain.Product, len(commit.StockChanges))
	for _, change := range commit.StockChanges {
		p, ok := staged[change.ProductID]
		if !ok {
			stored, exists := s.products[change.ProductID]
			if !exists {
				return nil, domain.E(domain.CodeNotFound, "product not found: %s", change.ProductID)
			}
			p = stored
		}
		switch change.Direction {
		case domain.StockIn:
			ledger.IncreaseStock(&p, change.Quantity, change.UnitCost, change.Reaverage)
		case domain.StockOut:
			if err := ledger.DecreaseStock(&p, change.Quantity, commit.StrictStock); err != nil {
				return nil, err
			}
		default:
			return nil, domain.E(domain.CodeValidation, "unknown stock direction: %s", change.Direction)
		}
		staged[change.ProductID] = p
	}

	var (
		stagedCustomer *domain.Customer
		stagedSupplier *domain.Supplier
	)
	if b := commit.Balance; b != nil {
		switch {
		case b.CustomerID != "":
			c, exists := s.customers[b.CustomerID]
			if !exists {
				return nil, domain.E(domain.CodeNotFound, "customer not found: %s", b.CustomerID)
			}
			next := c.CurrentBalance.Add(b.Delta)
			if b.EnforceCreditLimit && next.Cmp(c.CreditLimit.Neg()) < 0 {
				return nil, domain.E(domain.CodeCreditLimitExceeded, "credit limit exceeded for customer: %s", c.Name)
			}
			c.CurrentBalance = next
			stagedCustomer = &c
		case b.SupplierID != "":
			sp, exists := s.suppliers[b.SupplierID]
			if !exists {
				return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", b.SupplierID)
			}
			sp.CurrentBalance = sp.CurrentBalance.Add(b.Delta)
			stagedSupplier = &sp
		default:
			return nil, domain.E(domain.CodeValidation, "balance change without a counterparty")
		}
	}

	// Apply pass.
	tx := cloneTransaction(commit.Transaction)
	s.transactions[tx.ID] = tx
	if commit.Companion != nil {
		companion := cloneTransaction(*commit.Companion)
		s.transactions[companion.ID] = companion
	}
	for id, p := range staged {
		s.products[id] = p
	}
	if stagedCustomer != nil {
		s.customers[stagedCustomer.ID] = *stagedCustomer
	}
	if stagedSupplier != nil {
		s.suppliers[stagedSupplier.ID] = *stagedSupplier
	}

	result := cloneTransaction(tx)
	return &result, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "transaction not found: %s", id)
	}
	result := cloneTransaction(tx)
	return &result, nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if !matchesFilter(tx, filter) {
			continue
		}
		result = append(result, cloneTransaction(tx))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func matchesFilter(tx domain.Transaction, f domain.TransactionFilter) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.ShiftID != "" && tx.ShiftID != f.ShiftID {
		return false
	}
	if f.CustomerID != "" && tx.CustomerID != f.CustomerID {
		return false
	}
	if f.SupplierID != "" && tx.SupplierID != f.SupplierID {
		return false
	}
	if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func (s *Store) UpdateTransactionStatus(_ context.Context, id string, from string, to string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "transaction not found: %s", id)
	}
	if tx.Status != from {
		return nil, domain.E(domain.CodeInvalidStatus, "transaction %s is %s, expected %s", id, tx.Status, from)
	}
	tx.Status = to
	s.transactions[id] = tx
	result := cloneTransaction(tx)
	return &result, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "product not found: %s", id)
	}
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return nil, domain.E(domain.CodeDuplicate, "product id already exists: %s", p.ID)
	}
	for _, existing := range s.products {
		if existing.Code == p.Code {
			return nil, domain.E(domain.CodeDuplicate, "product code already exists: %s", p.Code)
		}
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return nil, domain.E(domain.CodeNotFound, "product not found: %s", p.ID)
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return domain.E(domain.CodeNotFound, "product not found: %s", id)
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "customer not found: %s", id)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customers[c.ID]; exists {
		return nil, domain.E(domain.CodeDuplicate, "customer id already exists: %s", c.ID)
	}
	s.customers[c.ID] = c
	return &c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return nil, domain.E(domain.CodeNotFound, "customer not found: %s", c.ID)
	}
	s.customers[c.ID] = c
	return &c, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return domain.E(domain.CodeNotFound, "customer not found: %s", id)
	}
	if c.CurrentBalance.Sign() != 0 {
		return domain.E(domain.CodeBalanceNotZero, "customer %s has outstanding balance %s", c.Name, c.CurrentBalance)
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sp := range s.suppliers {
		result = append(result, sp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.suppliers[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", id)
	}
	return &sp, nil
}

func (s *Store) CreateSupplier(_ context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suppliers[sp.ID]; exists {
		return nil, domain.E(domain.CodeDuplicate, "supplier id already exists: %s", sp.ID)
	}
	s.suppliers[sp.ID] = sp
	return &sp, nil
}

func (s *Store) UpdateSupplier(_ context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[sp.ID]; !ok {
		return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", sp.ID)
	}
	s.suppliers[sp.ID] = sp
	return &sp, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.suppliers[id]
	if !ok {
		return domain.E(domain.CodeNotFound, "supplier not found: %s", id)
	}
	if sp.CurrentBalance.Sign() != 0 {
		return domain.E(domain.CodeBalanceNotZero, "supplier %s has outstanding balance %s", sp.Name, sp.CurrentBalance)
	}
	delete(s.suppliers, id)
	return nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if openID, exists := s.openShiftByUser[shift.Username]; exists {
		return nil, domain.E(domain.CodeShiftAlreadyOpen, "user %s already has open shift %s", shift.Username, openID)
	}
	s.shifts[shift.ID] = shift
	s.openShiftByUser[shift.Username] = shift.ID
	return &shift, nil
}

func (s *Store) GetShift(_ context.Context, id string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "shift not found: %s", id)
	}
	return &shift, nil
}

// GetOpenShift returns (nil, nil) when the user has no open shift; the
// caller decides whether that is an error.
func (s *Store) GetOpenShift(_ context.Context, username string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.openShiftByUser[username]
	if !ok {
		return nil, nil
	}
	shift := s.shifts[id]
	return &shift, nil
}

func (s *Store) CloseShift(_ context.Context, id string, endCash, expectedCash decimal.Decimal, closedAt time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "shift not found: %s", id)
	}
	if shift.Status == domain.ShiftClosed {
		return nil, domain.E(domain.CodeShiftAlreadyClosed, "shift %s is already closed", id)
	}
	shift.Status = domain.ShiftClosed
	shift.EndCash = endCash
	shift.ExpectedCash = expectedCash
	shift.EndTime = &closedAt
	s.shifts[id] = shift
	delete(s.openShiftByUser, shift.Username)
	return &shift, nil
}

func (s *Store) ListShifts(_ context.Context) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Shift, 0, len(s.shifts))
	for _, shift := range s.shifts {
		result = append(result, shift)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	return result, nil
}

func (s *Store) CreateQuotation(_ context.Context, q domain.Quotation) (*domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.quotations[q.ID]; exists {
		return nil, domain.E(domain.CodeDuplicate, "quotation id already exists: %s", q.ID)
	}
	q.Items = cloneItems(q.Items)
	s.quotations[q.ID] = q
	result := q
	result.Items = cloneItems(q.Items)
	return &result, nil
}

func (s *Store) GetQuotation(_ context.Context, id string) (*domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotations[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "quotation not found: %s", id)
	}
	result := q
	result.Items = cloneItems(q.Items)
	return &result, nil
}

func (s *Store) ListQuotations(_ context.Context) ([]domain.Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Quotation, 0, len(s.quotations))
	for _, q := range s.quotations {
		clone := q
		clone.Items = cloneItems(q.Items)
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (s *Store) MarkQuotationConverted(_ context.Context, id string, at time.Time) (*domain.Quotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotations[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "quotation not found: %s", id)
	}
	if q.Status == domain.QuotationConverted {
		return nil, domain.E(domain.CodeAlreadyConverted, "quotation %s already converted", q.Number)
	}
	q.Status = domain.QuotationConverted
	q.ConvertedAt = &at
	s.quotations[id] = q
	result := q
	result.Items = cloneItems(q.Items)
	return &result, nil
}

func (s *Store) NextQuotationNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotationSeq++
	return s.quotationSeq, nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	return &settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.Settings) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return &settings, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return domain.E(domain.CodeDuplicate, "username already exists: %s", user.Username)
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "user not found: %s", username)
	}
	return &user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return domain.E(domain.CodeNotFound, "user not found: %s", username)
	}
	user.Password = password
	s.users[username] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return domain.E(domain.CodeNotFound, "user not found: %s", username)
	}
	if user.Role == domain.RoleAdmin {
		admins := 0
		for _, u := range s.users {
			if u.Role == domain.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return domain.E(domain.CodeLastAdmin, "cannot delete the last admin account")
		}
	}
	delete(s.users, username)
	return nil
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	clone := tx
	clone.Items = cloneItems(tx.Items)
	return clone
}

func cloneItems(items []domain.TransactionItem) []domain.TransactionItem {
	if items == nil {
		return nil
	}
	clone := make([]domain.TransactionItem, len(items))
	copy(clone, items)
	return clone
}
