package openfoodfacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupBarcodeParsesPer100g(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/5000112548167.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Cola Zero",
    "brands": "Fizz Co, Fizz Group",
    "nutriments": {
      "energy-kcal_100g": 0.4,
      "carbohydrates_100g": 0,
      "sugars_100g": "0",
      "sodium_100g": 0.01
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, err := c.LookupBarcode(context.Background(), "5000112548167")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.Name != "Cola Zero" || item.Brand == nil || *item.Brand != "Fizz Co" {
		t.Fatalf("unexpected parsed item: %+v", item)
	}
	if item.Calories == nil || *item.Calories != 0 {
		t.Fatalf("expected rounded calories 0, got %v", item.Calories)
	}
	if item.Sugar == nil || *item.Sugar != 0 {
		t.Fatalf("expected sugar parsed from string")
	}
	if item.Fat != nil {
		t.Fatalf("expected missing fat to stay nil")
	}
}

func TestLookupBarcodeStatusZeroIsNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, err := c.LookupBarcode(context.Background(), "00000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
