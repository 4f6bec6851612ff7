// Package service wires the GraphQL client, health reader, scanner and local
// store into the user-facing flows: sync then refetch the summary, and scan,
// look up and log a meal then refetch the summary.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/healthsync/internal/health"
	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/observability"
	"github.com/saadjs/healthsync/internal/provider/graphql"
	"github.com/saadjs/healthsync/internal/scanner"
	"github.com/saadjs/healthsync/internal/state"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrMealInProgress = errors.New("meal submission already in progress")
	ErrNoPendingMeal  = errors.New("no pending meal")
)

// API is the backend surface the flows need; *graphql.Client satisfies it.
type API interface {
	SyncHealthTotals(ctx context.Context, sub model.TotalsSubmission) (model.SyncResult, error)
	FetchDailySummary(ctx context.Context, userID, date string) (model.DailySummary, error)
	LookupProduct(ctx context.Context, barcode string) (model.ProductInfo, bool, error)
	LogMeal(ctx context.Context, req model.MealLogRequest) (model.MealRecord, error)
}

// Catalog is a secondary product source consulted when the backend has no
// entry for a barcode.
type Catalog interface {
	LookupBarcode(ctx context.Context, barcode string) (model.ProductInfo, error)
}

type availabilityChecker interface {
	Available() error
}

type Session struct {
	API    API
	Health health.Reader
	Store  *state.Store
	DB     *sql.DB
	UserID string

	Fallback Catalog
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

type SyncOutcome struct {
	Totals  model.HealthTotals
	Result  model.SyncResult
	Summary *model.DailySummary
	// SummaryErr is set when the sync landed but the refetch did not.
	SummaryErr error
}

type LookupOutcome struct {
	Barcode string
	Product model.ProductInfo
	Found   bool
	// Fallback holds the secondary catalog's record when the backend had none.
	Fallback *model.ProductInfo
}

type MealOutcome struct {
	Record     model.MealRecord
	Summary    *model.DailySummary
	SummaryErr error
}

// ReadTotals reads today's totals from the health source and publishes them.
func (s *Session) ReadTotals(ctx context.Context) (model.HealthTotals, error) {
	if s.Health == nil {
		return model.HealthTotals{}, health.ErrUnavailable
	}
	if c, ok := s.Health.(availabilityChecker); ok {
		if err := c.Available(); err != nil {
			return model.HealthTotals{}, err
		}
	}
	totals, err := health.ReadTotals(ctx, s.Health, health.Today(s.now()))
	if err != nil {
		return model.HealthTotals{}, err
	}
	s.Store.Dispatch(state.TotalsRead{Totals: totals})
	return totals, nil
}

// Sync reads today's totals, submits them, records the attempt and refetches
// the summary unless the server reported a duplicate.
func (s *Session) Sync(ctx context.Context) (SyncOutcome, error) {
	if !s.Store.Begin(func(st state.State) bool { return !st.SyncInFlight }, state.SyncStarted{}) {
		return SyncOutcome{}, ErrSyncInProgress
	}
	log := s.logger().WithField("flow", "sync")

	totals, err := s.ReadTotals(ctx)
	if err != nil {
		s.Store.Dispatch(state.SyncFailed{Reason: err.Error()})
		s.recordSync(model.SyncLogEntry{SyncedAt: s.now(), Date: s.now().Format(model.DateLayout), Outcome: OutcomeHealth, Message: err.Error()})
		return SyncOutcome{}, fmt.Errorf("read health totals: %w", err)
	}

	now := s.now()
	sub := model.TotalsSubmission{
		Totals:    totals,
		UserID:    s.UserID,
		Timestamp: now,
		Date:      now.Format(model.DateLayout),
	}
	out := SyncOutcome{Totals: totals}
	entry := model.SyncLogEntry{SyncedAt: now, Date: sub.Date, Steps: totals.Steps, CaloriesOut: totals.TotalEnergy()}

	result, err := s.API.SyncHealthTotals(ctx, sub)
	if err != nil {
		s.Store.Dispatch(state.SyncFailed{Reason: err.Error()})
		entry.Outcome = graphql.KindOf(err).String()
		entry.Message = err.Error()
		s.recordSync(entry)
		return out, err
	}
	out.Result = result
	s.Store.Dispatch(state.SyncSucceeded{Result: result, At: now})
	observability.RecordSync(now)
	entry.Outcome = syncOutcome(result)
	entry.Result = &result
	s.recordSync(entry)
	log.WithFields(logrus.Fields{
		"steps":     totals.Steps,
		"accepted":  result.Accepted,
		"duplicate": result.Duplicate,
		"reset":     result.Reset,
	}).Info("totals synced")

	if result.Duplicate && !result.Accepted {
		return out, nil
	}
	summary, err := s.RefreshSummary(ctx)
	if err != nil {
		out.SummaryErr = err
		return out, nil
	}
	out.Summary = &summary
	return out, nil
}

// RefreshSummary fetches the summary for the calendar day at call time.
func (s *Session) RefreshSummary(ctx context.Context) (model.DailySummary, error) {
	return s.Summary(ctx, s.now().Format(model.DateLayout))
}

func (s *Session) Summary(ctx context.Context, date string) (model.DailySummary, error) {
	s.Store.Dispatch(state.SummaryRequested{})
	summary, err := s.API.FetchDailySummary(ctx, s.UserID, date)
	if err != nil {
		s.Store.Dispatch(state.SummaryFailed{Reason: err.Error()})
		return model.DailySummary{}, err
	}
	s.Store.Dispatch(state.SummaryLoaded{Summary: summary})
	return summary, nil
}

func (s *Session) LookupProduct(ctx context.Context, barcode string) (LookupOutcome, error) {
	barcode = strings.TrimSpace(barcode)
	if !scanner.ValidBarcode(barcode) {
		return LookupOutcome{}, graphql.ValidationFailure(graphql.OpProduct, fmt.Errorf("barcode %q must be 8-14 digits", barcode))
	}
	product, found, err := s.API.LookupProduct(ctx, barcode)
	if err != nil {
		return LookupOutcome{}, err
	}
	out := LookupOutcome{Barcode: barcode, Product: product, Found: found}
	if found {
		s.Store.Dispatch(state.ProductResolved{Barcode: barcode, Product: &product})
		return out, nil
	}
	s.Store.Dispatch(state.ProductResolved{Barcode: barcode})
	if s.Fallback != nil {
		alt, err := s.Fallback.LookupBarcode(ctx, barcode)
		if err == nil {
			out.Fallback = &alt
		} else {
			s.logger().WithError(err).WithField("barcode", barcode).Debug("fallback catalog lookup failed")
		}
	}
	return out, nil
}

// ScanProduct captures one barcode, looks it up and stores it as the pending
// meal draft. The capture device is released before the lookup starts.
func (s *Session) ScanProduct(ctx context.Context, c scanner.Capture) (LookupOutcome, error) {
	code, err := scanner.ScanOnce(ctx, c)
	if err != nil {
		return LookupOutcome{}, err
	}
	out, err := s.LookupProduct(ctx, code)
	if err != nil {
		return LookupOutcome{}, err
	}
	if s.DB != nil {
		if _, err := SavePendingMeal(s.DB, model.PendingMeal{
			Barcode:     code,
			ProductName: out.mealName(),
			UpdatedAt:   s.now(),
		}); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (o LookupOutcome) mealName() string {
	if o.Found && o.Product.Name != "" && o.Product.Name != model.UnknownProductName {
		return o.Product.Name
	}
	if o.Fallback != nil && o.Fallback.Name != "" && o.Fallback.Name != model.UnknownProductName {
		return o.Fallback.Name
	}
	return ""
}

// ParseQuantity accepts a positive number of grams; a decimal comma is allowed.
func ParseQuantity(input string) (float64, error) {
	text := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	if text == "" {
		return 0, graphql.ValidationFailure(graphql.OpLogMeal, errors.New("quantity is required"))
	}
	grams, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, graphql.ValidationFailure(graphql.OpLogMeal, fmt.Errorf("quantity %q is not a number", input))
	}
	if err := graphql.ValidateQuantity(grams); err != nil {
		return 0, graphql.ValidationFailure(graphql.OpLogMeal, err)
	}
	return grams, nil
}

// LogMeal submits one meal. Invalid quantities never reach the network. On
// failure the draft, including the raw quantity text, is kept for a retry.
func (s *Session) LogMeal(ctx context.Context, barcode, quantity, name string) (MealOutcome, error) {
	barcode = strings.TrimSpace(barcode)
	s.Store.Dispatch(state.QuantityEntered{Input: quantity})
	grams, err := ParseQuantity(quantity)
	if err != nil {
		return MealOutcome{}, err
	}
	if !scanner.ValidBarcode(barcode) {
		return MealOutcome{}, graphql.ValidationFailure(graphql.OpLogMeal, fmt.Errorf("barcode %q must be 8-14 digits", barcode))
	}
	if !s.Store.Begin(func(st state.State) bool { return !st.MealInFlight }, state.MealStarted{}) {
		return MealOutcome{}, ErrMealInProgress
	}

	if name == "" {
		name = s.knownName(barcode)
	}
	now := s.now()
	rec, err := s.API.LogMeal(ctx, model.MealLogRequest{
		Barcode:       barcode,
		QuantityGrams: grams,
		UserID:        s.UserID,
		Timestamp:     now,
		Name:          name,
	})
	if err != nil {
		s.Store.Dispatch(state.MealFailed{Reason: err.Error()})
		s.keepDraft(barcode, name, quantity, err.Error(), now)
		return MealOutcome{}, err
	}
	s.Store.Dispatch(state.MealLogged{Record: rec})
	if s.DB != nil {
		if err := ClearPendingMeal(s.DB); err != nil {
			s.logger().WithError(err).Warn("meal logged but draft not cleared")
		}
	}

	out := MealOutcome{Record: rec}
	summary, err := s.RefreshSummary(ctx)
	if err != nil {
		out.SummaryErr = err
		return out, nil
	}
	out.Summary = &summary
	return out, nil
}

// RetryPendingMeal resubmits the stored draft, optionally with a new quantity.
func (s *Session) RetryPendingMeal(ctx context.Context, quantity string) (MealOutcome, error) {
	if s.DB == nil {
		return MealOutcome{}, ErrNoPendingMeal
	}
	p, ok, err := GetPendingMeal(s.DB)
	if err != nil {
		return MealOutcome{}, err
	}
	if !ok {
		return MealOutcome{}, ErrNoPendingMeal
	}
	if quantity == "" {
		quantity = p.QuantityInput
	}
	return s.LogMeal(ctx, p.Barcode, quantity, p.ProductName)
}

func (s *Session) knownName(barcode string) string {
	st := s.Store.Snapshot()
	if st.ProductFound && st.ProductBarcode == barcode && st.Product != nil {
		if n := st.Product.Name; n != "" && n != model.UnknownProductName {
			return n
		}
	}
	if s.DB != nil {
		if p, ok, err := GetPendingMeal(s.DB); err == nil && ok && p.Barcode == barcode && p.ProductName != "" {
			return p.ProductName
		}
	}
	return model.DefaultMealName
}

func (s *Session) keepDraft(barcode, name, quantity, lastErr string, at time.Time) {
	if s.DB == nil {
		return
	}
	p, ok, err := GetPendingMeal(s.DB)
	if err != nil || !ok || p.Barcode != barcode {
		p = model.PendingMeal{Barcode: barcode}
	}
	if name != model.DefaultMealName {
		p.ProductName = name
	}
	p.QuantityInput = quantity
	p.LastError = lastErr
	p.UpdatedAt = at
	if _, err := SavePendingMeal(s.DB, p); err != nil {
		s.logger().WithError(err).Warn("meal draft not saved")
	}
}

func (s *Session) recordSync(e model.SyncLogEntry) {
	if s.DB == nil {
		return
	}
	if _, err := RecordSync(s.DB, e); err != nil {
		s.logger().WithError(err).Warn("sync history not recorded")
	}
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Session) logger() logrus.FieldLogger {
	if s.Logger != nil {
		return s.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
