package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/qkart/pkg/metrics"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type fakeBackend struct {
	mu   sync.Mutex
	cart []types.CartEntry
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	write := func(status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(types.Envelope[any]{Data: data})
	}
	products := []types.Product{
		{ID: "A", Name: "Duffle", Category: "Fashion", Cost: decimal.NewFromInt(100), Rating: 4},
		{ID: "B", Name: "Headphones", Category: "Electronics", Cost: decimal.NewFromInt(50), Rating: 5},
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/api/v1/products":
		write(http.StatusOK, products)
	case r.URL.Path == "/api/v1/auth/login":
		write(http.StatusCreated, types.LoginResponse{Token: "jwt", Username: "crio.do", Balance: decimal.NewFromInt(5000)})
	case r.URL.Path == "/api/v1/auth/logout":
		write(http.StatusOK, map[string]bool{"revoked": true})
	case r.URL.Path == "/api/v1/cart" && r.Header.Get("Authorization") != "Bearer jwt":
		w.WriteHeader(http.StatusUnauthorized)
	case r.URL.Path == "/api/v1/cart" && r.Method == http.MethodGet:
		write(http.StatusOK, f.cart)
	case r.URL.Path == "/api/v1/cart" && r.Method == http.MethodPost:
		var body types.CartUpdate
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.cart = []types.CartEntry{{ProductID: body.ProductID, Qty: *body.Qty}}
		write(http.StatusOK, f.cart)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func runCLI(t *testing.T, apiURL, sessionFile string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", apiURL, "--session-file", sessionFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIFlow(t *testing.T) {
	srv := httptest.NewServer(&fakeBackend{cart: []types.CartEntry{}})
	defer srv.Close()
	apiURL := srv.URL + "/api/v1"
	sessionFile := filepath.Join(t.TempDir(), "session.yaml")

	out, err := runCLI(t, apiURL, sessionFile, "products")
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if !strings.Contains(out, "Duffle") || !strings.Contains(out, "$50.00") {
		t.Fatalf("unexpected products output:\n%s", out)
	}

	if _, err := runCLI(t, apiURL, sessionFile, "cart", "add", "A"); err == nil || userMessage(err) != "Login to add an item to the Cart" {
		t.Fatalf("expected login prompt, got %v", err)
	}

	if _, err := runCLI(t, apiURL, sessionFile, "login", "-u", "crio.do", "-p", "learnbydoing"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err = runCLI(t, apiURL, sessionFile, "whoami")
	if err != nil || !strings.Contains(out, "crio.do") || !strings.Contains(out, "$5000.00") {
		t.Fatalf("whoami: %q %v", out, err)
	}

	if _, err := runCLI(t, apiURL, sessionFile, "cart", "add", "A"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err = runCLI(t, apiURL, sessionFile, "cart", "inc", "A")
	if err != nil {
		t.Fatalf("inc: %v", err)
	}
	if !strings.Contains(out, "$200.00") {
		t.Fatalf("expected total 200 after increment:\n%s", out)
	}

	if _, err := runCLI(t, apiURL, sessionFile, "cart", "add", "A"); err == nil || !strings.HasPrefix(userMessage(err), "Item already in cart") {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	out, err = runCLI(t, apiURL, sessionFile, "checkout-summary")
	if err != nil {
		t.Fatalf("checkout summary: %v", err)
	}
	if !strings.Contains(out, "Order Details") || !strings.Contains(out, "Shipping Charges") {
		t.Fatalf("unexpected summary:\n%s", out)
	}

	if _, err := runCLI(t, apiURL, sessionFile, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _ = runCLI(t, apiURL, sessionFile, "whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Fatalf("expected logged out, got %q", out)
	}
}

func TestMetricFieldsFlattensCartCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	cm := metrics.NewCartMetrics(reg)
	cm.IncMutation(metrics.OutcomeSuccess)
	cm.IncMutation(metrics.OutcomeSuccess)
	cm.AddDropped(3)

	fields := metricFields(reg)
	if fields["storefront_cart_mutations_total.success"] != float64(2) {
		t.Fatalf("expected two successful mutations, got %v", fields)
	}
	if fields["storefront_cart_dropped_records_total"] != float64(3) {
		t.Fatalf("expected three dropped records, got %v", fields)
	}
}
