package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/service"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts, "cashier", "admin"))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions, "cashier", "admin"))
	mux.HandleFunc("/api/v1/customers", a.requireAuth(a.handleCustomers, "cashier", "admin"))
	mux.HandleFunc("/api/v1/customers/", a.requireAuth(a.handleCustomerActions, "cashier", "admin"))
	mux.HandleFunc("/api/v1/suppliers", a.requireAuth(a.handleSuppliers, "cashier", "admin"))
	mux.HandleFunc("/api/v1/suppliers/", a.requireAuth(a.handleSupplierActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/sales", a.requireAuth(a.handleSales, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/", a.requireAuth(a.handleSaleActions, "cashier", "admin"))
	mux.HandleFunc("/api/v1/purchases", a.requireAuth(a.handlePurchases, "cashier", "admin"))
	mux.HandleFunc("/api/v1/purchases/", a.requireAuth(a.handlePurchaseActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/expenses", a.requireAuth(a.handleExpenses, "cashier", "admin"))
	mux.HandleFunc("/api/v1/capital-deposits", a.requireAuth(a.handleCapitalDeposits, "cashier", "admin"))
	mux.HandleFunc("/api/v1/withdrawals", a.requireAuth(a.handleWithdrawals, "cashier", "admin"))

	mux.HandleFunc("/api/v1/transactions", a.requireAuth(a.handleTransactions, "cashier", "admin"))
	mux.HandleFunc("/api/v1/transactions/", a.requireAuth(a.handleTransactionActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/shifts", a.requireAuth(a.handleShifts, "cashier", "admin"))
	mux.HandleFunc("/api/v1/shifts/open", a.requireAuth(a.handleShiftOpen, "cashier", "admin"))
	mux.HandleFunc("/api/v1/shifts/close", a.requireAuth(a.handleShiftClose, "cashier", "admin"))
	mux.HandleFunc("/api/v1/shifts/current", a.requireAuth(a.handleShiftCurrent, "cashier", "admin"))
	mux.HandleFunc("/api/v1/shifts/", a.requireAuth(a.handleShiftLookup, "cashier", "admin"))

	mux.HandleFunc("/api/v1/quotations", a.requireAuth(a.handleQuotations, "cashier", "admin"))
	mux.HandleFunc("/api/v1/quotations/", a.requireAuth(a.handleQuotationActions, "cashier", "admin"))

	mux.HandleFunc("/api/v1/settings", a.requireAuth(a.handleSettings, "cashier", "admin"))
	mux.HandleFunc("/api/v1/reports/daily", a.requireAuth(a.handleDailySummary, "cashier", "admin"))
	mux.HandleFunc("/api/v1/users", a.requireAuth(a.handleUsers, "admin"))
	mux.HandleFunc("/api/v1/users/", a.requireAuth(a.handleUserActions, "admin"))
	mux.HandleFunc("/api/v1/auth/password", a.requireAuth(a.handleChangePassword, "cashier", "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.Product
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/products/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	if action == "stock" {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req stockAdjustRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.AdjustProductStock(r.Context(), id, req.CurrentStock)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
		return
	}
	if action != "" {
		writeError(w, http.StatusBadRequest, errors.New("unknown product action"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodPut:
		var req domain.Product
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.ID = id
		product, err := a.service.UpdateProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	case http.MethodPost:
		var req domain.Customer
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/customers/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("customer id required"))
		return
	}

	if action == "settle" {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.SettlementRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tx, err := a.service.SettleCustomerDebt(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
		return
	}
	if action != "" {
		writeError(w, http.StatusBadRequest, errors.New("unknown customer action"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		customer, err := a.service.GetCustomer(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
	case http.MethodPut:
		var req domain.Customer
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.ID = id
		customer, err := a.service.UpdateCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
	case http.MethodDelete:
		if err := a.service.DeleteCustomer(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		suppliers, err := a.service.ListSuppliers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
	case http.MethodPost:
		var req domain.Supplier
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		supplier, err := a.service.CreateSupplier(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"supplier": supplier})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSupplierActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/suppliers/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("supplier id required"))
		return
	}

	if action == "settle" {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.SettlementRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tx, err := a.service.SettleSupplierDebt(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
		return
	}
	if action != "" {
		writeError(w, http.StatusBadRequest, errors.New("unknown supplier action"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		supplier, err := a.service.GetSupplier(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"supplier": supplier})
	case http.MethodPut:
		var req domain.Supplier
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		req.ID = id
		supplier, err := a.service.UpdateSupplier(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"supplier": supplier})
	case http.MethodDelete:
		if err := a.service.DeleteSupplier(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := a.service.CompleteSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/sales/")
	if id == "" || action != "return" {
		writeError(w, http.StatusBadRequest, errors.New("invalid sale action path"))
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	tx, err := a.service.ProcessSaleReturn(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := a.service.CompletePurchase(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handlePurchaseActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/purchases/")
	if id == "" || action != "return" {
		writeError(w, http.StatusBadRequest, errors.New("invalid purchase action path"))
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	tx, err := a.service.ProcessPurchaseReturn(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	a.handleCashMovement(w, r, a.service.CreateExpense)
}

func (a *API) handleCapitalDeposits(w http.ResponseWriter, r *http.Request) {
	a.handleCashMovement(w, r, a.service.CreateCapitalDeposit)
}

func (a *API) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	a.handleCashMovement(w, r, a.service.CreateWithdrawal)
}

func (a *API) handleCashMovement(w http.ResponseWriter, r *http.Request, create func(ctx context.Context, req domain.CashMovementRequest) (*domain.Transaction, error)) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.CashMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	filter := domain.TransactionFilter{
		Type:       query.Get("type"),
		Status:     query.Get("status"),
		ShiftID:    query.Get("shift_id"),
		CustomerID: query.Get("customer_id"),
		SupplierID: query.Get("supplier_id"),
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid from date, want YYYY-MM-DD"))
			return
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid to date, want YYYY-MM-DD"))
			return
		}
		filter.To = to.Add(24 * time.Hour)
	}

	txs, err := a.service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleTransactionActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/transactions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("transaction id required"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		tx, err := a.service.GetTransaction(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
	case "approve":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		tx, err := a.service.ApproveTransaction(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
	case "reject":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		tx, err := a.service.RejectTransaction(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown transaction action"))
	}
}

func (a *API) handleShifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	shifts, err := a.service.ListShifts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

func (a *API) handleShiftOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req shiftOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	shift, err := a.service.OpenShift(r.Context(), req.StartCash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"shift": shift})
}

func (a *API) handleShiftClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req shiftCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	shift, err := a.service.CloseShift(r.Context(), req.EndCash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleShiftCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	shift, err := a.service.CurrentShift(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleShiftLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	id, action := splitResourcePath(r.URL.Path, "/api/v1/shifts/")
	if id == "" || action != "" {
		writeError(w, http.StatusBadRequest, errors.New("shift id required"))
		return
	}
	shift, err := a.service.GetShift(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleQuotations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		quotations, err := a.service.ListQuotations(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quotations": quotations})
	case http.MethodPost:
		var req domain.QuotationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		quotation, err := a.service.CreateQuotation(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"quotation": quotation})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleQuotationActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitResourcePath(r.URL.Path, "/api/v1/quotations/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("quotation id required"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		quotation, err := a.service.GetQuotation(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quotation": quotation})
	case "convert":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req quotationConvertRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tx, err := a.service.ConvertQuotation(r.Context(), id, req.PaymentMethod)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown quotation action"))
	}
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := a.service.GetSettings(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	case http.MethodPut:
		var req domain.Settings
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settings, err := a.service.UpdateSettings(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	summary, err := a.service.DailySummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := a.service.ListUsers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		var req userCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		user, err := a.service.CreateUser(r.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user": user})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleUserActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	username, action := splitResourcePath(r.URL.Path, "/api/v1/users/")
	if username == "" || action != "" {
		writeError(w, http.StatusBadRequest, errors.New("username required"))
		return
	}
	if err := a.service.DeleteUser(r.Context(), username); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req passwordChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.ChangePassword(r.Context(), req.Username, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

type shiftOpenRequest struct {
	StartCash decimal.Decimal `json:"start_cash"`
}

type shiftCloseRequest struct {
	EndCash decimal.Decimal `json:"end_cash"`
}

type quotationConvertRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type stockAdjustRequest struct {
	CurrentStock decimal.Decimal `json:"current_stock"`
}

type userCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type passwordChangeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// splitResourcePath splits "/api/v1/products/PRD-1/stock" into the
// resource id and a single trailing action segment.
func splitResourcePath(path, prefix string) (id string, action string) {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" {
		return "", ""
	}
	parts := strings.SplitN(tail, "/", 2)
	id = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		action = strings.TrimSpace(parts[1])
	}
	return id, action
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// writeServiceError maps a business failure code onto an HTTP status.
// Anything that is not a *domain.Error is treated as an internal fault.
func writeServiceError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeError(w, statusForCode(derr.Code), err)
}

func statusForCode(code string) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeAuthFailed:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeDuplicate, domain.CodeInsufficientStock, domain.CodeShiftAlreadyOpen,
		domain.CodeShiftAlreadyClosed, domain.CodeInvalidStatus, domain.CodeAlreadyConverted:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx messages stay generic so storage errors never reach clients.
	msg := err.Error()
	payload := map[string]any{}
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		payload["error_code"] = derr.Code
		msg = derr.Message
	}
	payload["error"] = msg
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
