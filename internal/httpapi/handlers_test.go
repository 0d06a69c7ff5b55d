package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/service"
	"electropos/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, 0)
	auth := NewAuthManager("test-secret-0123456789abcdef01234567", time.Hour, repo)
	return New(svc, auth, "http://127.0.0.1:3000", "test-csrf-secret", nil)
}

type testRequest struct {
	method string
	path   string
	body   any
	token  string
	csrf   string
	client string
}

func do(t *testing.T, handler http.Handler, req testRequest) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewBuffer(payload)
	} else {
		body = bytes.NewBuffer(nil)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.csrf != "" {
		r.Header.Set("X-CSRF-Token", req.csrf)
	}
	if req.client != "" {
		r.Header.Set("X-Forwarded-For", req.client)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   domain.LoginRequest{Username: username, Password: password},
		client: "login-" + t.Name(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s failed: %d %s", username, w.Code, w.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func csrfToken(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/auth/csrf-token"})
	if w.Code != http.StatusOK {
		t.Fatalf("csrf token fetch failed: %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode csrf response: %v", err)
	}
	return resp["csrf_token"]
}

func TestHealthz(t *testing.T) {
	handler := newTestAPI(t).Handler()

	w := do(t, handler, testRequest{method: http.MethodGet, path: "/healthz"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestLoginReturnsTokenAndPermissions(t *testing.T) {
	handler := newTestAPI(t).Handler()

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   domain.LoginRequest{Username: "admin", Password: "admin123"},
		client: "perm-" + t.Name(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != "admin" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	if len(resp.Permissions) != 1 || resp.Permissions[0] != "*" {
		t.Fatalf("unexpected permissions %v", resp.Permissions)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Fatalf("bad expires_at %q: %v", resp.ExpiresAt, err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler := newTestAPI(t).Handler()

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   domain.LoginRequest{Username: "admin", Password: "wrong"},
		client: "wrong-" + t.Name(),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	handler := newTestAPI(t).Handler()

	client := "limited-" + t.Name()
	for i := 0; i < 5; i++ {
		w := do(t, handler, testRequest{
			method: http.MethodPost,
			path:   "/api/v1/auth/login",
			body:   domain.LoginRequest{Username: "admin", Password: "wrong"},
			client: client,
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   domain.LoginRequest{Username: "admin", Password: "admin123"},
		client: client,
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	w := do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/products"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/products", token: "not-a-jwt"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", w.Code)
	}
}

func TestStaffCannotReachAdminRoutes(t *testing.T) {
	handler := newTestAPI(t).Handler()
	staff := login(t, handler, "staff", "staff123")

	for _, path := range []string{"/api/v1/suppliers", "/api/v1/purchase-orders", "/api/v1/users", "/api/v1/expenses"} {
		w := do(t, handler, testRequest{method: http.MethodGet, path: path, token: staff})
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for staff on %s, got %d", path, w.Code)
		}
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	handler := newTestAPI(t).Handler()
	staff := login(t, handler, "staff", "staff123")
	csrf := csrfToken(t, handler)

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/checkout",
		token:  staff,
		csrf:   csrf,
		body: domain.CheckoutRequest{
			Items:         []domain.CartItem{{ProductID: "prod-usbc-cable", Qty: 1}},
			PaymentMethod: domain.PaymentCash,
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}

	var resp domain.CheckoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.Sale.InvoiceNo, "INV-") {
		t.Fatalf("unexpected invoice %q", resp.Sale.InvoiceNo)
	}
	if resp.Sale.TotalCents != 29900 {
		t.Fatalf("expected total 29900, got %d", resp.Sale.TotalCents)
	}

	w = do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/products/prod-usbc-cable", token: staff})
	if w.Code != http.StatusOK {
		t.Fatalf("get product: %d", w.Code)
	}
	var product domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if product.Stock != 39 {
		t.Fatalf("expected stock 39, got %d", product.Stock)
	}
}

func TestReceivePurchaseOrderTwiceConflicts(t *testing.T) {
	handler := newTestAPI(t).Handler()
	admin := login(t, handler, "admin", "admin123")
	csrf := csrfToken(t, handler)

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/purchase-orders",
		token:  admin,
		csrf:   csrf,
		body: domain.PurchaseOrderCreateRequest{
			SupplierID: "sup-techsource",
			Items:      []domain.PurchaseOrderItemInput{{ProductID: "prod-usbc-cable", Qty: 5, BuyPriceCents: 18000}},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create po: %d %s", w.Code, w.Body.String())
	}
	var created domain.PurchaseOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	receivePath := fmt.Sprintf("/api/v1/purchase-orders/%s/receive", created.PurchaseOrder.ID)
	w = do(t, handler, testRequest{method: http.MethodPost, path: receivePath, token: admin, csrf: csrf})
	if w.Code != http.StatusOK {
		t.Fatalf("first receive: %d %s", w.Code, w.Body.String())
	}

	w = do(t, handler, testRequest{method: http.MethodPost, path: receivePath, token: admin, csrf: csrf})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second receive, got %d", w.Code)
	}
}

func TestSalesReportCSV(t *testing.T) {
	handler := newTestAPI(t).Handler()
	admin := login(t, handler, "admin", "admin123")

	day := time.Now().UTC().Format("2006-01-02")
	w := do(t, handler, testRequest{
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/v1/reports/sales?from=%s&to=%s&format=csv", day, day),
		token:  admin,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "section,label,") {
		t.Fatalf("unexpected csv header: %s", w.Body.String())
	}
}

func TestSalesReportRequiresRange(t *testing.T) {
	handler := newTestAPI(t).Handler()
	admin := login(t, handler, "admin", "admin123")

	w := do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/reports/sales", token: admin})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without range, got %d", w.Code)
	}
}

func TestUnknownProductIs404(t *testing.T) {
	handler := newTestAPI(t).Handler()
	staff := login(t, handler, "staff", "staff123")

	w := do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/products/prod-nope", token: staff})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSettingsUpdateIsAdminOnly(t *testing.T) {
	handler := newTestAPI(t).Handler()
	staff := login(t, handler, "staff", "staff123")
	admin := login(t, handler, "admin", "admin123")
	csrf := csrfToken(t, handler)

	settings := domain.ShopSettings{StoreName: "ElectroHub Downtown", Phone: "+91-80-4111-2233"}

	w := do(t, handler, testRequest{method: http.MethodPut, path: "/api/v1/settings", token: staff, csrf: csrf, body: settings})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", w.Code)
	}

	w = do(t, handler, testRequest{method: http.MethodPut, path: "/api/v1/settings", token: admin, csrf: csrf, body: settings})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d %s", w.Code, w.Body.String())
	}

	w = do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/settings", token: staff})
	if w.Code != http.StatusOK {
		t.Fatalf("staff read settings: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ElectroHub Downtown") {
		t.Fatalf("settings not updated: %s", w.Body.String())
	}
}

func TestSalePrintRendersInvoice(t *testing.T) {
	handler := newTestAPI(t).Handler()
	staff := login(t, handler, "staff", "staff123")
	csrf := csrfToken(t, handler)

	w := do(t, handler, testRequest{
		method: http.MethodPost,
		path:   "/api/v1/checkout",
		token:  staff,
		csrf:   csrf,
		body:   domain.CheckoutRequest{Items: []domain.CartItem{{ProductID: "prod-earbuds", Qty: 1}}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", w.Code, w.Body.String())
	}
	var resp domain.CheckoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = do(t, handler, testRequest{
		method: http.MethodGet,
		path:   "/api/v1/sales/" + resp.Sale.ID + "/print",
		token:  staff,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("print: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, resp.Sale.InvoiceNo) || !strings.Contains(body, "ElectroHub") {
		t.Fatal("invoice page missing invoice number or store name")
	}
	// 1299.00 for the earbuds
	if !strings.Contains(body, "1299.00") {
		t.Fatal("invoice page missing formatted total")
	}
}

func TestBackupExportImportOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	admin := login(t, handler, "admin", "admin123")
	csrf := csrfToken(t, handler)

	w := do(t, handler, testRequest{method: http.MethodGet, path: "/api/v1/backup/export", token: admin})
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	var doc domain.BackupDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(doc.Products) == 0 {
		t.Fatal("expected seeded products in export")
	}

	w = do(t, handler, testRequest{method: http.MethodPost, path: "/api/v1/backup/import", token: admin, csrf: csrf, body: doc})
	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
}
