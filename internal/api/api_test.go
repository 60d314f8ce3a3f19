package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecomapi/internal/config"
	"ecomapi/internal/loader"
	"ecomapi/internal/query"
	"ecomapi/internal/slogutil"
	"ecomapi/internal/storage"
)

const testUsers = `id,first_name,last_name,email,city,country
1,Ada,Lovelace,ada@example.com,London,United Kingdom
2,Alan,Turing,alan@example.com,Wilmslow,United Kingdom
3,Grace,Hopper,grace@example.com,New York,United States
`

const testOrders = `order_id,user_id,status,created_at,num_of_item
10,1,Complete,2023-01-01 00:00:00 UTC,2
11,1,Complete,2023-02-01 00:00:00 UTC,1
12,1,Processing,2023-03-01 00:00:00 UTC,4
13,3,Shipped,2023-03-02 00:00:00 UTC,1
`

// seedDB loads the test CSVs into a fresh store file and returns its path
func seedDB(t *testing.T, users, orders string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecommerce.db")

	db, err := storage.Open(path, slogutil.NewDiscardLogger(), storage.Options{})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	l := loader.New(db, slogutil.NewDiscardLogger(), loader.Options{})
	ctx := context.Background()
	if _, err := l.LoadReader(ctx, storage.UsersTable, strings.NewReader(users)); err != nil {
		t.Fatalf("Failed to load users: %v", err)
	}
	if _, err := l.LoadReader(ctx, storage.OrdersTable, strings.NewReader(orders)); err != nil {
		t.Fatalf("Failed to load orders: %v", err)
	}
	return path
}

// newTestServer creates a server over the store at path
func newTestServer(t *testing.T, path string, mutate ...func(*config.Config)) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.Path = path
	for _, m := range mutate {
		m(cfg)
	}

	logger := slogutil.NewDiscardLogger()
	db, err := storage.OpenReadOnly(path, logger, cfg.Database.BusyTimeoutMs)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc, err := query.NewService(db, logger, query.Options{})
	if err != nil {
		t.Fatalf("Failed to create query service: %v", err)
	}

	server, err := NewServer(cfg, svc, logger)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func doGet(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func TestListCustomersEndpoint(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/api/customers?page=1&per_page=2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var resp query.CustomerPage
	decode(t, w, &resp)

	if len(resp.Data) != 2 {
		t.Fatalf("Expected 2 customers, got %d", len(resp.Data))
	}
	if resp.Data[0].ID != 1 || resp.Data[0].OrderCount != 3 {
		t.Errorf("Unexpected first customer: %+v", resp.Data[0])
	}
	want := query.Meta{Page: 1, PerPage: 2, TotalCount: 3, TotalPages: 2}
	if resp.Meta != want {
		t.Errorf("Expected meta %+v, got %+v", want, resp.Meta)
	}
}

func TestListCustomersEndpoint_Defaults(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders), func(c *config.Config) {
		c.API.MaxPerPage = 2
	})

	tests := []struct {
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"", 1, 10},
		{"?page=abc&per_page=xyz", 1, 10},
		{"?page=0&per_page=-5", 1, 10},
		{"?page=2&per_page=1", 2, 1},
		{"?per_page=500", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doGet(t, server, "/api/customers"+tt.query)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp query.CustomerPage
			decode(t, w, &resp)
			// the default per_page is capped too
			wantPerPage := min(tt.wantPerPage, 2)
			if resp.Meta.Page != tt.wantPage || resp.Meta.PerPage != wantPerPage {
				t.Errorf("Expected page=%d per_page=%d, got %+v", tt.wantPage, wantPerPage, resp.Meta)
			}
		})
	}
}

func TestGetCustomerEndpoint(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/api/customers/1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !strings.Contains(body, `"status_distribution":{"Complete":2,"Processing":1}`) {
		t.Errorf("Expected ordered status distribution, got %s", body)
	}

	var resp struct {
		Customer     map[string]interface{}   `json:"customer"`
		OrderCount   int                      `json:"order_count"`
		OrderStats   map[string]interface{}   `json:"order_stats"`
		RecentOrders []map[string]interface{} `json:"recent_orders"`
	}
	decode(t, w, &resp)

	if resp.OrderCount != 3 {
		t.Errorf("Expected order_count 3, got %d", resp.OrderCount)
	}
	if resp.OrderStats["total_items"] != float64(7) {
		t.Errorf("Expected total_items 7, got %v", resp.OrderStats["total_items"])
	}
	if resp.Customer["email"] != "ada@example.com" {
		t.Errorf("Unexpected customer: %v", resp.Customer)
	}
	if _, ok := resp.Customer["age"]; !ok {
		t.Error("Expected full customer record with null columns")
	}
	if len(resp.RecentOrders) != 3 || resp.RecentOrders[0]["order_id"] != float64(12) {
		t.Errorf("Unexpected recent orders: %v", resp.RecentOrders)
	}
}

func TestGetCustomerEndpoint_NoOrders(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/api/customers/2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]json.RawMessage
	decode(t, w, &resp)
	if string(resp["order_count"]) != "0" {
		t.Errorf("Expected order_count 0, got %s", resp["order_count"])
	}
	if string(resp["order_stats"]) != "{}" {
		t.Errorf("Expected empty order_stats, got %s", resp["order_stats"])
	}
	if string(resp["recent_orders"]) != "[]" {
		t.Errorf("Expected empty recent_orders, got %s", resp["recent_orders"])
	}
}

func TestGetCustomerEndpoint_NotFound(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	tests := []struct {
		path    string
		wantMsg string
	}{
		{"/api/customers/999", "Customer not found"},
		{"/api/customers/abc", "Resource not found"},
		{"/api/customers/1.5", "Resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doGet(t, server, tt.path)
			if w.Code != http.StatusNotFound {
				t.Fatalf("Expected status 404, got %d", w.Code)
			}
			var resp ErrorResponse
			decode(t, w, &resp)
			if resp.Error != tt.wantMsg {
				t.Errorf("Expected error %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp query.Stats
	decode(t, w, &resp)

	if resp.TotalCustomers != 3 || resp.TotalOrders != 4 {
		t.Errorf("Unexpected totals: %+v", resp)
	}
	if resp.OrdersByStatus.Total() != resp.TotalOrders {
		t.Errorf("orders_by_status sums to %d, want %d", resp.OrdersByStatus.Total(), resp.TotalOrders)
	}
	if keys := resp.TopCountries.Keys(); len(keys) != 2 || keys[0] != "United Kingdom" {
		t.Errorf("Unexpected top_countries order: %v", keys)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, seedDB(t, testUsers, testOrders))
		w := doGet(t, server, "/api/health")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp HealthResponse
		decode(t, w, &resp)
		if resp.Status != "healthy" || resp.Message != query.HealthyMessage {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		w := doGet(t, newTestServer(t, path), "/api/health")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("missing store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		w := doGet(t, newTestServer(t, path), "/api/health")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("Expected status 500, got %d", w.Code)
		}
		var resp HealthResponse
		decode(t, w, &resp)
		if resp.Status != "error" || !strings.Contains(resp.Message, "not found") {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})
}

func TestQueryFailureEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	server := newTestServer(t, path)

	w := doGet(t, server, "/api/stats")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Code != "QUERY_FAILURE" || !strings.Contains(resp.Error, "no such table") {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestReportsEndpoints(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/api/reports")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list struct {
		Reports []map[string]interface{} `json:"reports"`
	}
	decode(t, w, &list)
	if len(list.Reports) != 7 {
		t.Errorf("Expected 7 reports, got %d", len(list.Reports))
	}
	if _, ok := list.Reports[0]["SQL"]; ok {
		t.Error("Report SQL must not be exposed")
	}

	w = doGet(t, server, "/api/reports/top-countries")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var result struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}
	decode(t, w, &result)
	if len(result.Columns) != 2 || len(result.Rows) != 2 {
		t.Errorf("Unexpected report result: %+v", result)
	}

	w = doGet(t, server, "/api/reports/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRootEndpoint(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	w := doGet(t, server, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	decode(t, w, &resp)
	if resp["name"] != "ecomapi" {
		t.Errorf("Unexpected index: %v", resp)
	}
}

func TestUnknownPath(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	for _, target := range []string{"/nope", "/api/customer", "/api/customers/1/orders"} {
		w := doGet(t, server, target)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, w.Code)
			continue
		}
		if strings.TrimSpace(w.Body.String()) != `{"error":"Resource not found"}` {
			t.Errorf("%s: unexpected body %s", target, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/customers", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("POST: expected status 404, got %d", w.Code)
	}
}

func TestCORSAndRequestID(t *testing.T) {
	server := newTestServer(t, seedDB(t, testUsers, testOrders))

	for _, target := range []string{"/api/stats", "/nope", "/api/customers/999"} {
		w := doGet(t, server, target)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: expected CORS header, got %q", target, got)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: expected a generated request ID", target)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected request ID to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/customers", nil)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight 200, got %d", w.Code)
	}
}

func TestGzip(t *testing.T) {
	var users strings.Builder
	users.WriteString("id,first_name,last_name,email\n")
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&users, "%d,First%d,Last%d,user%d@example.com\n", i, i, i, i)
	}
	path := seedDB(t, users.String(), "order_id\n")

	t.Run("enabled", func(t *testing.T) {
		server := newTestServer(t, path)
		req := httptest.NewRequest(http.MethodGet, "/api/customers?per_page=50", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		if w.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("Expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
		}
		zr, err := gzip.NewReader(w.Body)
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(zr)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(body), "user50@example.com") {
			t.Error("Decompressed body is missing the last customer")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		server := newTestServer(t, path, func(c *config.Config) { c.Server.Gzip = false })
		req := httptest.NewRequest(http.MethodGet, "/api/customers?per_page=50", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		if w.Header().Get("Content-Encoding") != "" {
			t.Errorf("Expected no encoding, got %q", w.Header().Get("Content-Encoding"))
		}
	})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>customers</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := newTestServer(t, seedDB(t, testUsers, testOrders), func(c *config.Config) {
		c.Server.StaticDir = dir
	})

	w := doGet(t, server, "/app/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "customers") {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Cache-Control"), "no-store") {
		t.Errorf("Expected no-store, got %q", w.Header().Get("Cache-Control"))
	}
}
