// Package health reads cumulative activity totals from a platform health
// data source.
package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saadjs/healthsync/internal/model"
)

// ErrUnavailable means the data source cannot be read at all, as opposed to
// having no samples for a window.
var ErrUnavailable = errors.New("health data unavailable")

type Window struct {
	Start time.Time
	End   time.Time
}

// Today spans local midnight up to now.
func Today(now time.Time) Window {
	y, m, d := now.Date()
	return Window{Start: time.Date(y, m, d, 0, 0, 0, 0, now.Location()), End: now}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Reader exposes the three aggregate queries. ok is false when the source has
// no samples for the window.
type Reader interface {
	StepCount(ctx context.Context, w Window) (sum float64, ok bool, err error)
	ActiveEnergy(ctx context.Context, w Window) (kcal float64, ok bool, err error)
	RestingEnergy(ctx context.Context, w Window) (kcal float64, ok bool, err error)
}

// ReadTotals issues the three queries concurrently and joins them. A query
// without data contributes zero.
func ReadTotals(ctx context.Context, r Reader, w Window) (model.HealthTotals, error) {
	var steps, active, resting float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, _, err := r.StepCount(gctx, w)
		if err != nil {
			return fmt.Errorf("read step count: %w", err)
		}
		steps = v
		return nil
	})
	g.Go(func() error {
		v, _, err := r.ActiveEnergy(gctx, w)
		if err != nil {
			return fmt.Errorf("read active energy: %w", err)
		}
		active = v
		return nil
	})
	g.Go(func() error {
		v, _, err := r.RestingEnergy(gctx, w)
		if err != nil {
			return fmt.Errorf("read resting energy: %w", err)
		}
		resting = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.HealthTotals{}, err
	}
	if steps < 0 || active < 0 || resting < 0 {
		return model.HealthTotals{}, fmt.Errorf("health source returned negative totals")
	}
	return model.HealthTotals{
		Steps:         int(math.Round(steps)),
		ActiveEnergy:  active,
		RestingEnergy: resting,
	}, nil
}

// Static serves fixed totals, e.g. values passed on the command line.
type Static struct {
	Totals model.HealthTotals
}

func (s Static) StepCount(context.Context, Window) (float64, bool, error) {
	return float64(s.Totals.Steps), true, nil
}

func (s Static) ActiveEnergy(context.Context, Window) (float64, bool, error) {
	return s.Totals.ActiveEnergy, true, nil
}

func (s Static) RestingEnergy(context.Context, Window) (float64, bool, error) {
	return s.Totals.RestingEnergy, true, nil
}
