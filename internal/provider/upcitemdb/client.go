package upcitemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/healthsync/internal/model"
)

const defaultBaseURL = "https://api.upcitemdb.com"

var ErrNotFound = errors.New("upcitemdb product not found")

// Client looks up UPC/EAN codes. Without an API key it uses the trial
// endpoint (100 requests/day per IP).
type Client struct {
	BaseURL    string
	APIKey     string
	APIKeyType string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.ProductInfo, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	barcode = strings.TrimSpace(barcode)
	path := "/prod/trial/lookup"
	if strings.TrimSpace(c.APIKey) != "" {
		path = "/prod/v1/lookup"
	}
	url := fmt.Sprintf("%s%s?upc=%s", base, path, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("create upcitemdb request: %w", err)
	}
	if strings.TrimSpace(c.APIKey) != "" {
		keyType := strings.TrimSpace(c.APIKeyType)
		if keyType == "" {
			keyType = "3scale"
		}
		req.Header.Set("key_type", keyType)
		req.Header.Set("user_key", strings.TrimSpace(c.APIKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("execute upcitemdb request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("read upcitemdb response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.ProductInfo{}, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ProductInfo{}, fmt.Errorf("upcitemdb request failed with status %d", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.ProductInfo{}, fmt.Errorf("decode upcitemdb response: %w", err)
	}
	if strings.ToUpper(parsed.Code) != "OK" || len(parsed.Items) == 0 {
		return model.ProductInfo{}, ErrNotFound
	}
	it := parsed.Items[0]
	name := strings.TrimSpace(it.Title)
	if name == "" {
		return model.ProductInfo{}, ErrNotFound
	}
	out := model.ProductInfo{Barcode: barcode, Name: name}
	if brand := strings.TrimSpace(it.Brand); brand != "" {
		out.Brand = &brand
	}

	// Nutrition facts are per serving; they only carry over when the serving
	// is stated in grams.
	grams, ok := servingGrams(it.Size)
	if !ok {
		return out, nil
	}
	facts := normalizeFacts(it.NutritionFacts)
	scale := 100 / grams
	per100 := func(names []string) *float64 {
		v, ok := lookupNutrient(facts, names)
		if !ok {
			return nil
		}
		v *= scale
		return &v
	}
	if kcal := per100(caloriesKeys); kcal != nil {
		k := int(math.Round(*kcal))
		out.Calories = &k
	}
	out.Protein = per100(proteinKeys)
	out.Carbs = per100(carbsKeys)
	out.Fat = per100(fatKeys)
	out.Fiber = per100(fiberKeys)
	out.Sugar = per100(sugarKeys)
	if mg := per100(sodiumKeys); mg != nil {
		g := *mg / 1000
		out.Sodium = &g
	}
	return out, nil
}

func servingGrams(size string) (float64, bool) {
	parts := strings.Fields(strings.TrimSpace(size))
	if len(parts) < 2 || !strings.EqualFold(parts[1], "g") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Trim(parts[0], ","), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// Label spellings seen in nutrition_facts, most specific first. Labels are
// matched whole, so "Added Sugars" or "Soluble Fiber" never stand in for the
// totals.
var (
	caloriesKeys = []string{"calories", "energy"}
	proteinKeys  = []string{"protein"}
	carbsKeys    = []string{"total carbohydrate", "total carbohydrates", "carbohydrate", "carbohydrates", "total carbs", "carbs"}
	fatKeys      = []string{"total fat", "fat"}
	fiberKeys    = []string{"dietary fiber", "total fiber", "fiber", "dietary fibre", "fibre"}
	sugarKeys    = []string{"total sugars", "total sugar", "sugars", "sugar"}
	sodiumKeys   = []string{"sodium"}
)

func normalizeFacts(n map[string]any) map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		out[strings.Join(strings.Fields(strings.ToLower(k)), " ")] = v
	}
	return out
}

func lookupNutrient(facts map[string]any, names []string) (float64, bool) {
	for _, name := range names {
		v, ok := facts[name]
		if !ok {
			continue
		}
		if f, ok := parseAmount(v); ok {
			return f, true
		}
	}
	return 0, false
}

// parseAmount reads the leading number of values like "3g" or "120 mg".
func parseAmount(v any) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(fmt.Sprintf("%v", v)), ",", "")
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type response struct {
	Code  string `json:"code"`
	Items []item `json:"items"`
}

type item struct {
	Title          string         `json:"title"`
	Brand          string         `json:"brand"`
	Size           string         `json:"size"`
	NutritionFacts map[string]any `json:"nutrition_facts"`
}
