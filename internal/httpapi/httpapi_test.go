package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"foxpos/backend/internal/cache"
	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/service"
	"foxpos/backend/internal/store/memory"
	"foxpos/backend/internal/xid"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager
// and real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, user := range []struct {
		name, pass, role string
	}{
		{"admin", "admin123", domain.RoleAdmin},
		{"cashier", "cashier123", domain.RoleCashier},
	} {
		if err := repo.CreateUser(ctx, domain.UserAccount{
			Username:  user.name,
			Password:  mustHashPassword(t, user.pass),
			Role:      user.role,
			Active:    true,
			CreatedAt: now,
		}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	if _, err := repo.CreateProduct(ctx, domain.Product{
		ID: "p-rice", Code: "P-1", Name: "Rice 1kg",
		PurchasePrice: decimal.RequireFromString("5"),
		SellingPrice:  decimal.RequireFromString("8"),
		CurrentStock:  decimal.RequireFromString("10"),
		Active:        true, CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	svc := service.New(repo, &xid.Sequence{}, cache.NoopSummaryCache{}, time.Minute)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)
	return New(svc, auth, "*")
}

func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected access_token, got %v", body)
	}
	return token
}

func doJSON(handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	handler := newTestAPI(t).Handler()

	// The loginLimiter allows 5 attempts per minute; httptest requests
	// share the RemoteAddr 192.0.2.1:1234.
	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "badpass"})
	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(handler, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleUsers_CashierForbidden(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(handler, http.MethodGet, "/api/v1/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestSaleFlowThroughAPI(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "cashier", "cashier123")

	rec := doJSON(handler, http.MethodPost, "/api/v1/shifts/open", token, map[string]any{"start_cash": "100"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open shift: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"id": "p-rice", "quantity": "2", "price": "8"}},
		"payment_method": "cash",
		"total_amount":   "16",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(handler, http.MethodGet, "/api/v1/products/p-rice", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get product: expected 200, got %d", rec.Code)
	}
	var body struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if body.Product.CurrentStock.Cmp(decimal.RequireFromString("8")) != 0 {
		t.Fatalf("expected stock 8 after sale, got %s", body.Product.CurrentStock)
	}
}

func TestSaleErrorsMapToStatusCodes(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "admin", "admin123")

	rec := doJSON(handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"id": "p-ghost", "quantity": "1", "price": "8"}},
		"payment_method": "cash",
		"total_amount":   "8",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{{"id": "p-rice", "quantity": "999", "price": "8"}},
		"payment_method": "cash",
		"total_amount":   "7992",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("oversell: expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error_code"] != domain.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK code, got %v", body["error_code"])
	}

	rec = doJSON(handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items":          []map[string]any{},
		"payment_method": "cash",
		"total_amount":   "0",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	actor, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	signer := NewAuthManager("secret-one", time.Hour, nil)
	verifier := NewAuthManager("secret-two", time.Hour, nil)

	token, err := signer.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected verification failure with a different secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
