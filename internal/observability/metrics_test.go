package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequestCountsByOperationAndOutcome(t *testing.T) {
	ok := graphqlRequests.WithLabelValues("Product", "ok")
	failed := graphqlRequests.WithLabelValues("Product", "server")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordRequest("Product", "ok", 20*time.Millisecond)
	RecordRequest("Product", "ok", 30*time.Millisecond)
	RecordRequest("Product", "server", time.Millisecond)

	assert.Equal(t, beforeOK+2, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestRecordSyncIgnoresZeroTime(t *testing.T) {
	ts := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	RecordSync(ts)
	RecordSync(time.Time{})
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastSyncGauge))
}
