package upcitemdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupBarcodeScalesGramServingToPer100g(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/trial/lookup" || r.URL.Query().Get("upc") != "012345678905" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "code": "OK",
  "items": [
    {
      "title": "Test Cereal",
      "brand": "Test Brand",
      "size": "40 g",
      "nutrition_facts": {
        "Calories": "150",
        "Protein": "3g",
        "Total Carbohydrate": "30g",
        "Total Fat": "2g",
        "Saturated Fat": "0.5g",
        "Sodium": "120mg"
      }
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, err := c.LookupBarcode(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if p.Name != "Test Cereal" || p.Brand == nil || *p.Brand != "Test Brand" {
		t.Fatalf("unexpected product identity: %+v", p)
	}
	if p.Calories == nil || *p.Calories != 375 {
		t.Fatalf("expected 375 kcal/100g, got %v", p.Calories)
	}
	if p.Fat == nil || *p.Fat != 5 {
		t.Fatalf("expected total fat 5g/100g, got %v", p.Fat)
	}
	if p.Sodium == nil || *p.Sodium != 0.3 {
		t.Fatalf("expected sodium 0.3g/100g, got %v", p.Sodium)
	}
	if p.Fiber != nil {
		t.Fatalf("expected no fiber value, got %v", *p.Fiber)
	}
}

func TestLookupBarcodeDropsNutrientsForNonGramServing(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"OK","items":[{"title":"Cola","size":"12 fl oz","nutrition_facts":{"Calories":"140"}}]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, err := c.LookupBarcode(context.Background(), "049000000443")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if p.Name != "Cola" || p.Calories != nil || p.Brand != nil {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestLookupBarcodeUsesKeyedEndpoint(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/v1/lookup" || r.Header.Get("user_key") != "k" || r.Header.Get("key_type") != "3scale" {
			t.Errorf("unexpected keyed request %s %v", r.URL, r.Header)
		}
		_, _ = w.Write([]byte(`{"code":"OK","items":[]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, APIKey: "k", HTTPClient: ts.Client()}
	if _, err := c.LookupBarcode(context.Background(), "012345678905"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupBarcodePrefersTotalsOverSubLabels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		facts string
		sugar float64
		fiber float64
		carbs float64
	}{
		{
			name:  "totals beside sub labels",
			facts: `{"Total Sugars":"10g","Added Sugars":"4g","Dietary Fiber":"2g","Soluble Fiber":"1g","Insoluble Fiber":"1g","Total Carbohydrate":"30g","Net Carbs":"28g"}`,
			sugar: 25, fiber: 5, carbs: 75,
		},
		{
			name:  "short labels",
			facts: `{"sugars":"6 g","FIBER":"0.4g","Carbohydrates":"12g","Added Sugars":"6g"}`,
			sugar: 15, fiber: 1, carbs: 30,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"code":"OK","items":[{"title":"Granola","size":"40 g","nutrition_facts":` + tc.facts + `}]}`))
			}))
			defer ts.Close()

			c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
			for i := 0; i < 50; i++ {
				p, err := c.LookupBarcode(context.Background(), "012345678905")
				if err != nil {
					t.Fatalf("lookup barcode: %v", err)
				}
				if p.Sugar == nil || *p.Sugar != tc.sugar {
					t.Fatalf("run %d: expected sugar %v, got %v", i, tc.sugar, p.Sugar)
				}
				if p.Fiber == nil || *p.Fiber != tc.fiber {
					t.Fatalf("run %d: expected fiber %v, got %v", i, tc.fiber, p.Fiber)
				}
				if p.Carbs == nil || *p.Carbs != tc.carbs {
					t.Fatalf("run %d: expected carbs %v, got %v", i, tc.carbs, p.Carbs)
				}
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]float64{"3g": 3, "120 mg": 120, "1,200mg": 1200, "0.5": 0.5} {
		if got, ok := parseAmount(in); !ok || got != want {
			t.Fatalf("parseAmount(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := parseAmount("<1g"); ok {
		t.Fatalf("expected no amount for a bound")
	}
}
