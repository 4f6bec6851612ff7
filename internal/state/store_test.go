package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/healthsync/internal/model"
)

func TestReduceSyncLifecycle(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	s := Reduce(State{}, SyncStarted{})
	assert.True(t, s.SyncInFlight)

	s = Reduce(s, SyncSucceeded{Result: model.SyncResult{Accepted: true}, At: at})
	assert.False(t, s.SyncInFlight)
	assert.Equal(t, "synced", s.Status)
	assert.Equal(t, at, s.LastSync)
	require.NotNil(t, s.LastSyncResult)

	s = Reduce(s, SyncStarted{})
	s = Reduce(s, SyncFailed{Reason: "server error: 502"})
	assert.False(t, s.SyncInFlight)
	assert.Equal(t, "server error: 502", s.Status)
	assert.Equal(t, at, s.LastSync, "failed sync keeps the previous sync time")
}

func TestReduceSummaryReplacesPreviousValue(t *testing.T) {
	t.Parallel()

	s := Reduce(State{}, SummaryLoaded{Summary: model.DailySummary{Calories: 100, Meals: 1}})
	s = Reduce(s, SummaryRequested{})
	assert.True(t, s.SummaryLoading)
	s = Reduce(s, SummaryLoaded{Summary: model.DailySummary{Calories: 300}})
	require.NotNil(t, s.Summary)
	assert.Equal(t, model.DailySummary{Calories: 300}, *s.Summary)

	s = Reduce(s, SummaryFailed{Reason: "network error: timeout"})
	require.NotNil(t, s.Summary)
	assert.Equal(t, 300, s.Summary.Calories)
}

func TestReduceMealFailureKeepsQuantity(t *testing.T) {
	t.Parallel()

	s := Reduce(State{}, QuantityEntered{Input: "150"})
	s = Reduce(s, MealStarted{})
	s = Reduce(s, MealFailed{Reason: "server error: 500"})
	assert.Equal(t, "150", s.PendingQuantity)
	assert.False(t, s.MealInFlight)

	s = Reduce(s, MealStarted{})
	s = Reduce(s, MealLogged{Record: model.MealRecord{ID: "m-1"}})
	assert.Empty(t, s.PendingQuantity)
	require.NotNil(t, s.LastMeal)
	assert.Equal(t, "m-1", s.LastMeal.ID)
}

func TestReduceProductNotFound(t *testing.T) {
	t.Parallel()

	s := Reduce(State{}, ProductResolved{Barcode: "1", Product: &model.ProductInfo{Name: "Cola"}})
	assert.True(t, s.ProductFound)
	s = Reduce(s, ProductResolved{Barcode: "2"})
	assert.False(t, s.ProductFound)
	assert.Nil(t, s.Product)
	assert.Equal(t, "2", s.ProductBarcode)
}

func TestStoreBeginAdmitsOneCaller(t *testing.T) {
	t.Parallel()

	st := NewStore()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st.Begin(func(s State) bool { return !s.MealInFlight }, MealStarted{}) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
	assert.True(t, st.Snapshot().MealInFlight)
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	st := NewStore()
	var seen []string
	st.Subscribe(func(s State) { seen = append(seen, s.Status) })
	st.Dispatch(SyncStarted{})
	st.Dispatch(SyncFailed{Reason: "network error: offline"})
	assert.Equal(t, []string{"syncing", "network error: offline"}, seen)
}
