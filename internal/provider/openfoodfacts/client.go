package openfoodfacts

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

const defaultBaseURL = "https://world.openfoodfacts.org"

// ErrNotFound is returned when Open Food Facts has no usable record for a barcode.
var ErrNotFound = errors.New("openfoodfacts product not found")

// Client is a per-100g product lookup used to name products the backend
// catalog does not know.
type Client struct {
	BaseURL    string
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
	url := fmt.Sprintf("%s/api/v2/product/%s.json", base, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", "healthsync/1.0 (+https://github.com/saadjs/healthsync)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.ProductInfo{}, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ProductInfo{}, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.ProductInfo{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	name := strings.TrimSpace(parsed.Product.ProductName)
	if parsed.Status != 1 || name == "" {
		return model.ProductInfo{}, ErrNotFound
	}

	info := model.ProductInfo{
		Barcode: barcode,
		Name:    name,
		Carbs:   nutrient100g(parsed.Product.Nutriments, "carbohydrates"),
		Fat:     nutrient100g(parsed.Product.Nutriments, "fat"),
		Fiber:   nutrient100g(parsed.Product.Nutriments, "fiber"),
		Protein: nutrient100g(parsed.Product.Nutriments, "proteins"),
		Sodium:  nutrient100g(parsed.Product.Nutriments, "sodium"),
		Sugar:   nutrient100g(parsed.Product.Nutriments, "sugars"),
	}
	if brand := firstBrand(parsed.Product.Brands); brand != "" {
		info.Brand = &brand
	}
	if kcal := nutrient100g(parsed.Product.Nutriments, "energy-kcal"); kcal != nil {
		v := int(math.Round(*kcal))
		info.Calories = &v
	}
	return info, nil
}

func firstBrand(brands string) string {
	parts := strings.Split(brands, ",")
	return strings.TrimSpace(parts[0])
}

func nutrient100g(n map[string]any, base string) *float64 {
	v, ok := parseFloatAny(n[base+"_100g"])
	if !ok {
		return nil
	}
	return &v
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code        string         `json:"code"`
	ProductName string         `json:"product_name"`
	Brands      string         `json:"brands"`
	Nutriments  map[string]any `json:"nutriments"`
}
