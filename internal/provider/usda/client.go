package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saadjs/healthsync/internal/model"
)

const defaultBaseURL = "https://api.nal.usda.gov"

var (
	ErrNotFound      = errors.New("usda branded food not found")
	ErrMissingAPIKey = errors.New("missing USDA API key")
)

// Client searches FoodData Central branded foods by GTIN. Branded nutrient
// values are reported per 100 g.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.ProductInfo, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return model.ProductInfo{}, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	barcode = strings.TrimSpace(barcode)

	payload, err := json.Marshal(map[string]any{
		"query":    barcode,
		"dataType": []string{"Branded"},
		"pageSize": 20,
	})
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("marshal USDA search payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ProductInfo{}, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ProductInfo{}, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.ProductInfo{}, fmt.Errorf("decode USDA response: %w", err)
	}
	food, ok := selectBarcodeMatch(parsed.Foods, barcode)
	if !ok {
		return model.ProductInfo{}, ErrNotFound
	}

	out := model.ProductInfo{Barcode: barcode, Name: strings.TrimSpace(food.Description)}
	if out.Name == "" {
		out.Name = model.UnknownProductName
	}
	if brand := strings.TrimSpace(food.BrandOwner); brand != "" {
		out.Brand = &brand
	}
	for _, n := range food.FoodNutrients {
		v := n.Value
		switch strings.ToLower(strings.TrimSpace(n.NutrientName)) {
		case "energy":
			if strings.EqualFold(n.UnitName, "kj") {
				continue
			}
			k := int(math.Round(v))
			out.Calories = &k
		case "protein":
			out.Protein = &v
		case "carbohydrate, by difference":
			out.Carbs = &v
		case "total lipid (fat)":
			out.Fat = &v
		case "fiber, total dietary":
			out.Fiber = &v
		case "sugars, total including nlea", "sugars, total":
			out.Sugar = &v
		case "sodium, na":
			g := v / 1000
			out.Sodium = &g
		}
	}
	return out, nil
}

// selectBarcodeMatch only accepts an exact GTIN match; leading zeros differ
// between UPC-A and EAN-13 spellings of the same code.
func selectBarcodeMatch(foods []usdaFood, barcode string) (usdaFood, bool) {
	want := strings.TrimLeft(barcode, "0")
	for _, f := range foods {
		if strings.TrimLeft(strings.TrimSpace(f.GTINUPC), "0") == want {
			return f, true
		}
	}
	return usdaFood{}, false
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	BrandOwner    string         `json:"brandOwner"`
	GTINUPC       string         `json:"gtinUpc"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
