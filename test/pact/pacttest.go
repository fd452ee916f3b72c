//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "checkout-web"

	StateCatalogSeeded = "desk mat costs 10.00 with 5 in stock"
	StatePriceRaised   = "desk mat price raised to 12.00"
	StateOrderExists   = "order 1 for user 11 exists"
	StateOrderMissing  = "no order with id 404"
)

const (
	DeskMatID      int64 = 7
	CustomerUserID int64 = 11

	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 404
)

// AmountPattern matches amounts rendered with exactly two decimals.
const AmountPattern = `^\d+\.\d{2}$`

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the checkout consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckout is two desk mats at 10.00 each.
func ExampleCheckout() map[string]any {
	return map[string]any{
		"customerName":    "Ada Lovelace",
		"customerEmail":   "ada@example.com",
		"customerPhone":   "+44 20 0000",
		"shippingAddress": "12 Analytical Way",
		"items": []map[string]any{
			{"productId": DeskMatID, "quantity": 2, "unitPrice": "10.00"},
		},
		"totalAmount": "20.00",
	}
}

// ExampleStaleCheckout is one desk mat at the price shown before it was raised.
func ExampleStaleCheckout() map[string]any {
	checkout := ExampleCheckout()
	checkout["items"] = []map[string]any{
		{"productId": DeskMatID, "quantity": 1, "unitPrice": "10.00"},
	}
	checkout["totalAmount"] = "10.00"
	return checkout
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
