package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/observability"
)

const (
	DefaultEndpoint  = "https://nutrifit-backend-api.onrender.com/graphql"
	DefaultTimeout   = 12 * time.Second
	defaultUserAgent = "healthsync/1.0 (+https://github.com/saadjs/healthsync)"
)

// Client talks to the NutriFit GraphQL endpoint. It keeps no state between
// calls and is safe for concurrent use.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Token      string
	UserAgent  string
	Timeout    time.Duration
	Logger     logrus.FieldLogger
}

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (c *Client) SyncHealthTotals(ctx context.Context, sub model.TotalsSubmission) (model.SyncResult, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return model.SyncResult{}, ValidationFailure(OpSyncHealthTotals, fmt.Errorf("user id is required"))
	}
	if strings.TrimSpace(sub.Date) == "" {
		return model.SyncResult{}, ValidationFailure(OpSyncHealthTotals, fmt.Errorf("date is required"))
	}
	if sub.Totals.Steps < 0 || sub.Totals.ActiveEnergy < 0 || sub.Totals.RestingEnergy < 0 {
		return model.SyncResult{}, ValidationFailure(OpSyncHealthTotals, fmt.Errorf("totals must be >= 0"))
	}
	vars := map[string]any{
		"input": map[string]any{
			"timestamp":   sub.Timestamp.Format(timestampLayout),
			"date":        sub.Date,
			"steps":       sub.Totals.Steps,
			"caloriesOut": sub.Totals.TotalEnergy(),
			"userId":      sub.UserID,
		},
	}
	data, err := c.do(ctx, OpSyncHealthTotals, syncHealthTotalsDoc, vars)
	if err != nil {
		return model.SyncResult{}, err
	}
	raw, present, null := field(data, "syncHealthTotals")
	if !present || null {
		return model.SyncResult{}, protocolFailure(OpSyncHealthTotals, fmt.Errorf("syncHealthTotals missing from response"))
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return model.SyncResult{}, protocolFailure(OpSyncHealthTotals, fmt.Errorf("decode syncHealthTotals: %w", err))
	}
	// The verdict and the delta object are required; only the numbers inside
	// the delta fall back to zero.
	accepted, ok := obj["accepted"].(bool)
	if !ok {
		return model.SyncResult{}, protocolFailure(OpSyncHealthTotals, fmt.Errorf("syncHealthTotals.accepted missing or not a boolean"))
	}
	delta, ok := obj["delta"].(map[string]any)
	if !ok {
		return model.SyncResult{}, protocolFailure(OpSyncHealthTotals, fmt.Errorf("syncHealthTotals.delta missing or not an object"))
	}
	return model.SyncResult{
		Accepted:  accepted,
		Duplicate: boolField(obj, "duplicate"),
		Reset:     boolField(obj, "reset"),
		Delta: model.SyncDelta{
			StepsDelta:       intField(delta, "stepsDelta"),
			CaloriesOutDelta: floatField(delta, "caloriesOutDelta"),
			StepsTotal:       intField(delta, "stepsTotal"),
			CaloriesOutTotal: floatField(delta, "caloriesOutTotal"),
		},
	}, nil
}

func (c *Client) FetchDailySummary(ctx context.Context, userID, date string) (model.DailySummary, error) {
	if strings.TrimSpace(userID) == "" {
		return model.DailySummary{}, ValidationFailure(OpDailySummary, fmt.Errorf("user id is required"))
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return model.DailySummary{}, ValidationFailure(OpDailySummary, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date))
	}
	data, err := c.do(ctx, OpDailySummary, dailySummaryDoc, map[string]any{"userId": userID, "date": date})
	if err != nil {
		return model.DailySummary{}, err
	}
	raw, present, null := field(data, "dailySummary")
	if !present || null {
		return model.DailySummary{}, protocolFailure(OpDailySummary, fmt.Errorf("dailySummary missing from response"))
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return model.DailySummary{}, protocolFailure(OpDailySummary, fmt.Errorf("decode dailySummary: %w", err))
	}
	return model.DailySummary{
		UserID:                     stringField(obj, "userId"),
		Date:                       stringField(obj, "date"),
		Calories:                   intField(obj, "calories"),
		Carbs:                      floatField(obj, "carbs"),
		Fat:                        floatField(obj, "fat"),
		Protein:                    floatField(obj, "protein"),
		Sugar:                      floatField(obj, "sugar"),
		Fiber:                      floatField(obj, "fiber"),
		Sodium:                     floatField(obj, "sodium"),
		Meals:                      intField(obj, "meals"),
		CaloriesDeficit:            intField(obj, "caloriesDeficit"),
		ActivityEvents:             intField(obj, "activityEvents"),
		ActivityCaloriesOut:        floatField(obj, "activityCaloriesOut"),
		ActivitySteps:              intField(obj, "activitySteps"),
		CaloriesReplenishedPercent: intField(obj, "caloriesReplenishedPercent"),
	}, nil
}

// LookupProduct reports found=false when the catalog answers with an explicit
// null product. That outcome is not an error.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (model.ProductInfo, bool, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.ProductInfo{}, false, ValidationFailure(OpProduct, fmt.Errorf("barcode is required"))
	}
	data, err := c.do(ctx, OpProduct, productDoc, map[string]any{"barcode": barcode})
	if err != nil {
		return model.ProductInfo{}, false, err
	}
	raw, present, null := field(data, "product")
	if !present {
		return model.ProductInfo{}, false, protocolFailure(OpProduct, fmt.Errorf("product missing from response"))
	}
	if null {
		return model.ProductInfo{}, false, nil
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return model.ProductInfo{}, false, protocolFailure(OpProduct, fmt.Errorf("decode product: %w", err))
	}
	info := model.ProductInfo{
		Barcode:  stringField(obj, "barcode"),
		Name:     strings.TrimSpace(stringField(obj, "name")),
		Brand:    optionalString(obj, "brand"),
		Calories: optionalInt(obj, "calories"),
		Carbs:    optionalFloat(obj, "carbs"),
		Fat:      optionalFloat(obj, "fat"),
		Fiber:    optionalFloat(obj, "fiber"),
		Protein:  optionalFloat(obj, "protein"),
		Sodium:   optionalFloat(obj, "sodium"),
		Sugar:    optionalFloat(obj, "sugar"),
	}
	if info.Barcode == "" {
		info.Barcode = barcode
	}
	if info.Name == "" {
		info.Name = model.UnknownProductName
	}
	return info, true, nil
}

func (c *Client) LogMeal(ctx context.Context, req model.MealLogRequest) (model.MealRecord, error) {
	if err := ValidateQuantity(req.QuantityGrams); err != nil {
		return model.MealRecord{}, ValidationFailure(OpLogMeal, err)
	}
	if strings.TrimSpace(req.Barcode) == "" {
		return model.MealRecord{}, ValidationFailure(OpLogMeal, fmt.Errorf("barcode is required"))
	}
	if strings.TrimSpace(req.UserID) == "" {
		return model.MealRecord{}, ValidationFailure(OpLogMeal, fmt.Errorf("user id is required"))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = model.DefaultMealName
	}
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	vars := map[string]any{
		"input": map[string]any{
			"barcode":   strings.TrimSpace(req.Barcode),
			"quantityG": req.QuantityGrams,
			"userId":    req.UserID,
			"timestamp": ts.Format(timestampLayout),
			"name":      name,
		},
	}
	data, err := c.do(ctx, OpLogMeal, logMealDoc, vars)
	if err != nil {
		return model.MealRecord{}, err
	}
	raw, present, null := field(data, "logMeal")
	if !present || null {
		return model.MealRecord{}, protocolFailure(OpLogMeal, fmt.Errorf("logMeal missing from response"))
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return model.MealRecord{}, protocolFailure(OpLogMeal, fmt.Errorf("decode logMeal: %w", err))
	}
	return model.MealRecord{
		ID:        stringField(obj, "id"),
		UserID:    stringField(obj, "userId"),
		Name:      stringField(obj, "name"),
		Barcode:   stringField(obj, "barcode"),
		QuantityG: floatField(obj, "quantityG"),
		Timestamp: stringField(obj, "timestamp"),
		Calories:  intField(obj, "calories"),
		Carbs:     floatField(obj, "carbs"),
		Fat:       floatField(obj, "fat"),
		Fiber:     floatField(obj, "fiber"),
		Protein:   floatField(obj, "protein"),
		Sodium:    floatField(obj, "sodium"),
		Sugar:     floatField(obj, "sugar"),
	}, nil
}

// ValidateQuantity rejects quantities that must never reach the server.
func ValidateQuantity(grams float64) error {
	if math.IsNaN(grams) || math.IsInf(grams, 0) {
		return fmt.Errorf("quantity must be a finite number")
	}
	if grams <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, query string, vars map[string]any) (map[string]json.RawMessage, error) {
	requestID := uuid.NewString()
	log := c.logger().WithFields(logrus.Fields{"op": op, "request_id": requestID})
	start := time.Now()
	data, err := c.send(ctx, op, query, vars, requestID, log)
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		log.WithError(err).Debug("graphql call failed")
	} else {
		log.WithField("elapsed", time.Since(start)).Debug("graphql call succeeded")
	}
	observability.RecordRequest(op, outcome, time.Since(start))
	return data, err
}

func (c *Client) send(ctx context.Context, op, query string, vars map[string]any, requestID string, log logrus.FieldLogger) (map[string]json.RawMessage, error) {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(request{Query: query, Variables: vars, OperationName: op})
	if err != nil {
		return nil, protocolFailure(op, fmt.Errorf("encode graphql request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transportFailure(op, fmt.Errorf("create graphql request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	log.WithField("endpoint", endpoint).Debug("sending graphql request")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, transportFailure(op, fmt.Errorf("execute graphql request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportFailure(op, fmt.Errorf("read graphql response: %w", err))
	}
	log.WithField("status", resp.StatusCode).Debug("graphql response received")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serverFailure(op, resp.StatusCode, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, protocolFailure(op, errors.New("empty response body"))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, protocolFailure(op, fmt.Errorf("decode graphql response: %w", err))
	}
	if len(parsed.Errors) > 0 {
		msgs := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, protocolFailure(op, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; ")))
	}
	if isNull(parsed.Data) {
		return nil, protocolFailure(op, errors.New("response has no data"))
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		return nil, protocolFailure(op, fmt.Errorf("decode graphql data: %w", err))
	}
	return data, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
