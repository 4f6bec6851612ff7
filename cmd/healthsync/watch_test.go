package healthsync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/healthsync/internal/observability"
)

func TestRunTickerStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := runTicker(ctx, 5*time.Millisecond, func() {
		calls++
		if calls == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("run ticker: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRunTickerCancelledContextNeverCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	if err := runTicker(ctx, time.Millisecond, func() { calls++ }); err != nil {
		t.Fatalf("run ticker: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls, got %d", calls)
	}
}

func TestMetricsServerExposesSyncGauge(t *testing.T) {
	observability.RecordSync(time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC))
	srv := newMetricsServer(":0")
	if srv.ReadHeaderTimeout == 0 {
		t.Fatalf("expected a read header timeout")
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read /metrics: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "healthsync_sync_last_success_timestamp_seconds") {
		t.Fatalf("metrics output missing sync gauge:\n%s", body)
	}

	resp, err = ts.Client().Get(ts.URL + "/other")
	if err != nil {
		t.Fatalf("get /other: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 outside /metrics, got %d", resp.StatusCode)
	}
}
