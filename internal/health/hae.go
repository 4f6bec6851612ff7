package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AppleEpochOffset is the number of seconds between the Unix epoch and the
// Core Data epoch (2001-01-01) used by Health Auto Export files.
const AppleEpochOffset int64 = 978307200

const (
	StepCountFile     = "step_count.hae"
	ActiveEnergyFile  = "active_energy.hae"
	RestingEnergyFile = "basal_energy_burned.hae"
)

func AppleTimestampToTime(appleTS float64) time.Time {
	sec := int64(appleTS)
	nsec := int64((appleTS - float64(sec)) * 1e9)
	return time.Unix(sec+AppleEpochOffset, nsec).UTC()
}

type haeMetric struct {
	Metric string         `json:"metric"`
	Date   float64        `json:"date"`
	Data   []haeDataPoint `json:"data"`
}

type haeDataPoint struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Unit  string   `json:"unit"`
	Qty   *float64 `json:"qty,omitempty"`
}

// ExportDir reads a Health Auto Export directory with one .hae file per metric.
type ExportDir struct {
	Path string
}

func (d ExportDir) Available() error {
	info, err := os.Stat(d.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUnavailable, d.Path)
	}
	return nil
}

func (d ExportDir) StepCount(ctx context.Context, w Window) (float64, bool, error) {
	return d.sum(ctx, StepCountFile, w)
}

func (d ExportDir) ActiveEnergy(ctx context.Context, w Window) (float64, bool, error) {
	return d.sum(ctx, ActiveEnergyFile, w)
}

func (d ExportDir) RestingEnergy(ctx context.Context, w Window) (float64, bool, error) {
	return d.sum(ctx, RestingEnergyFile, w)
}

// sum adds every sample whose start falls inside the window.
func (d ExportDir) sum(ctx context.Context, name string, w Window) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	raw, err := os.ReadFile(filepath.Join(d.Path, name))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", name, err)
	}
	var metric haeMetric
	if err := json.Unmarshal(raw, &metric); err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", name, err)
	}
	total := 0.0
	found := false
	for _, p := range metric.Data {
		if p.Qty == nil {
			continue
		}
		if !w.Contains(AppleTimestampToTime(p.Start)) {
			continue
		}
		total += toKilocalories(*p.Qty, p.Unit)
		found = true
	}
	return total, found, nil
}

// toKilocalories converts energy samples recorded in kJ; counts pass through.
func toKilocalories(qty float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kj":
		return qty / 4.184
	default:
		return qty
	}
}
