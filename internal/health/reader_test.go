package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/healthsync/internal/model"
)

func appleTS(t time.Time) float64 {
	return float64(t.Unix() - AppleEpochOffset)
}

func writeMetric(t *testing.T, dir, name, unit string, points map[time.Time]float64) {
	t.Helper()
	body := `{"metric":"` + name + `","date":0,"data":[`
	first := true
	for ts, qty := range points {
		if !first {
			body += ","
		}
		first = false
		body += fmt.Sprintf(`{"start":%f,"end":%f,"unit":%q,"qty":%f}`, appleTS(ts), appleTS(ts.Add(time.Minute)), unit, qty)
	}
	body += "]}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestExportDirSumsSamplesInsideWindow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2026, time.October, 17, 18, 0, 0, 0, time.UTC)
	w := Today(now)
	writeMetric(t, dir, StepCountFile, "count", map[time.Time]float64{
		now.Add(-26 * time.Hour): 9000,
		now.Add(-5 * time.Hour):  3000,
		now.Add(-1 * time.Hour):  1200,
	})
	writeMetric(t, dir, ActiveEnergyFile, "kcal", map[time.Time]float64{
		now.Add(-2 * time.Hour): 310.5,
	})
	writeMetric(t, dir, RestingEnergyFile, "kJ", map[time.Time]float64{
		now.Add(-3 * time.Hour): 4184,
	})

	totals, err := ReadTotals(context.Background(), ExportDir{Path: dir}, w)
	require.NoError(t, err)
	assert.Equal(t, 4200, totals.Steps)
	assert.InDelta(t, 310.5, totals.ActiveEnergy, 1e-6)
	assert.InDelta(t, 1000.0, totals.RestingEnergy, 1e-6)
	assert.InDelta(t, 1310.5, totals.TotalEnergy(), 1e-6)
}

func TestExportDirMissingFilesMeanNoData(t *testing.T) {
	t.Parallel()

	d := ExportDir{Path: t.TempDir()}
	require.NoError(t, d.Available())
	_, ok, err := d.StepCount(context.Background(), Today(time.Now()))
	require.NoError(t, err)
	assert.False(t, ok)

	totals, err := ReadTotals(context.Background(), d, Today(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, model.HealthTotals{}, totals)
}

func TestExportDirUnavailable(t *testing.T) {
	t.Parallel()

	err := ExportDir{Path: filepath.Join(t.TempDir(), "missing")}.Available()
	assert.ErrorIs(t, err, ErrUnavailable)
}

type slowReader struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	failOn   string
}

func (s *slowReader) query(ctx context.Context, name string, v float64) (float64, bool, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
	if name == s.failOn {
		return 0, false, errors.New("store locked")
	}
	return v, true, nil
}

func (s *slowReader) StepCount(ctx context.Context, _ Window) (float64, bool, error) {
	return s.query(ctx, "steps", 10)
}

func (s *slowReader) ActiveEnergy(ctx context.Context, _ Window) (float64, bool, error) {
	return s.query(ctx, "active", 1)
}

func (s *slowReader) RestingEnergy(ctx context.Context, _ Window) (float64, bool, error) {
	return s.query(ctx, "resting", 2)
}

func TestReadTotalsRunsQueriesConcurrently(t *testing.T) {
	t.Parallel()

	r := &slowReader{}
	totals, err := ReadTotals(context.Background(), r, Today(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, model.HealthTotals{Steps: 10, ActiveEnergy: 1, RestingEnergy: 2}, totals)
	assert.Equal(t, int32(3), r.peak.Load())
}

func TestReadTotalsFailsWhenAnyQueryFails(t *testing.T) {
	t.Parallel()

	_, err := ReadTotals(context.Background(), &slowReader{failOn: "active"}, Today(time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read active energy")
}
