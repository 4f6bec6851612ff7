package service_test

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saadjs/healthsync/internal/db"
	"github.com/saadjs/healthsync/internal/health"
	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/provider/graphql"
	"github.com/saadjs/healthsync/internal/service"
	"github.com/saadjs/healthsync/internal/state"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthsync.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	return sqldb
}

type reply struct {
	status int
	body   string
}

type call struct {
	Op        string         `json:"operationName"`
	Variables map[string]any `json:"variables"`
}

// backend answers each GraphQL operation with a canned reply and records the
// calls it sees.
type backend struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []call
	// gate, when set, blocks every request until it is closed.
	gate chan struct{}
}

func newBackend(t *testing.T, replies map[string]reply) (*backend, *graphql.Client) {
	t.Helper()
	b := &backend{replies: replies}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var c call
		assert.NoError(t, json.Unmarshal(raw, &c))
		b.mu.Lock()
		b.calls = append(b.calls, c)
		rep, ok := b.replies[c.Op]
		gate := b.gate
		b.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if !ok {
			rep = reply{status: http.StatusInternalServerError}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
	}))
	t.Cleanup(ts.Close)
	return b, &graphql.Client{Endpoint: ts.URL, HTTPClient: ts.Client()}
}

func (b *backend) ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, c.Op)
	}
	return out
}

func (b *backend) call(i int) call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[i]
}

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.Local)

func newSession(t *testing.T, api service.API, totals model.HealthTotals) *service.Session {
	t.Helper()
	return &service.Session{
		API:    api,
		Health: health.Static{Totals: totals},
		Store:  state.NewStore(),
		DB:     newTestDB(t),
		UserID: "000001",
		Now:    func() time.Time { return fixedNow },
	}
}

const (
	acceptedSync  = `{"data":{"syncHealthTotals":{"accepted":true,"duplicate":false,"reset":false,"delta":{"stepsDelta":4200,"caloriesOutDelta":1760.5,"stepsTotal":4200,"caloriesOutTotal":1760.5}}}}`
	duplicateSync = `{"data":{"syncHealthTotals":{"accepted":false,"duplicate":true,"reset":false,"delta":{"stepsDelta":0,"caloriesOutDelta":0,"stepsTotal":4200,"caloriesOutTotal":1760.5}}}}`
	summaryBody   = `{"data":{"dailySummary":{"calories":1850,"userId":"000001","date":"2026-10-17","meals":3,"activitySteps":4200,"activityCaloriesOut":1760.5,"caloriesDeficit":-90,"caloriesReplenishedPercent":95}}}`
	productBody   = `{"data":{"product":{"barcode":"4006381333931","name":"Oat Bar","brand":"Acme","calories":410}}}`
	noProduct     = `{"data":{"product":null}}`
	mealBody      = `{"data":{"logMeal":{"id":"m1","userId":"000001","name":"Oat Bar","barcode":"4006381333931","quantityG":150,"timestamp":"2026-10-17T09:30:00.000Z","calories":615}}}`
)
