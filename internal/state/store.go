// Package state holds the client's view-state. Every change goes through
// Reduce, and readers only ever see copies.
package state

import (
	"sync"
	"time"

	"github.com/saadjs/healthsync/internal/model"
)

type State struct {
	Totals         model.HealthTotals
	TotalsRead     bool
	Summary        *model.DailySummary
	SummaryLoading bool
	Product        *model.ProductInfo
	ProductBarcode string
	ProductFound   bool
	// PendingQuantity is the user's raw quantity input; failures leave it as is.
	PendingQuantity string
	SyncInFlight    bool
	MealInFlight    bool
	LastMeal        *model.MealRecord
	LastSync        time.Time
	LastSyncResult  *model.SyncResult
	Status          string
}

type Action interface {
	apply(State) State
}

type TotalsRead struct{ Totals model.HealthTotals }

type SyncStarted struct{}

type SyncSucceeded struct {
	Result model.SyncResult
	At     time.Time
}

type SyncFailed struct{ Reason string }

type SummaryRequested struct{}

type SummaryLoaded struct{ Summary model.DailySummary }

type SummaryFailed struct{ Reason string }

type ProductResolved struct {
	Barcode string
	Product *model.ProductInfo
}

type QuantityEntered struct{ Input string }

type MealStarted struct{}

type MealLogged struct{ Record model.MealRecord }

type MealFailed struct{ Reason string }

func (a TotalsRead) apply(s State) State {
	s.Totals = a.Totals
	s.TotalsRead = true
	return s
}

func (SyncStarted) apply(s State) State {
	s.SyncInFlight = true
	s.Status = "syncing"
	return s
}

func (a SyncSucceeded) apply(s State) State {
	s.SyncInFlight = false
	r := a.Result
	s.LastSyncResult = &r
	s.LastSync = a.At
	switch {
	case r.Duplicate:
		s.Status = "already synced"
	case r.Reset:
		s.Status = "synced (counter reset)"
	default:
		s.Status = "synced"
	}
	return s
}

func (a SyncFailed) apply(s State) State {
	s.SyncInFlight = false
	s.Status = a.Reason
	return s
}

func (SummaryRequested) apply(s State) State {
	s.SummaryLoading = true
	return s
}

func (a SummaryLoaded) apply(s State) State {
	sum := a.Summary
	s.Summary = &sum
	s.SummaryLoading = false
	return s
}

// SummaryFailed keeps the previous summary on screen.
func (a SummaryFailed) apply(s State) State {
	s.SummaryLoading = false
	s.Status = a.Reason
	return s
}

func (a ProductResolved) apply(s State) State {
	s.ProductBarcode = a.Barcode
	s.ProductFound = a.Product != nil
	if a.Product != nil {
		p := *a.Product
		s.Product = &p
	} else {
		s.Product = nil
	}
	return s
}

func (a QuantityEntered) apply(s State) State {
	s.PendingQuantity = a.Input
	return s
}

func (MealStarted) apply(s State) State {
	s.MealInFlight = true
	s.Status = "logging meal"
	return s
}

func (a MealLogged) apply(s State) State {
	s.MealInFlight = false
	rec := a.Record
	s.LastMeal = &rec
	s.PendingQuantity = ""
	s.Status = "meal logged"
	return s
}

func (a MealFailed) apply(s State) State {
	s.MealInFlight = false
	s.Status = a.Reason
	return s
}

// Reduce is the only place State changes.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

type Store struct {
	mu    sync.RWMutex
	state State
	subs  []func(State)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := append([]func(State){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Begin dispatches start only when guard holds for the current state, so two
// callers cannot both enter the same operation.
func (s *Store) Begin(guard func(State) bool, start Action) bool {
	s.mu.Lock()
	if !guard(s.state) {
		s.mu.Unlock()
		return false
	}
	s.state = Reduce(s.state, start)
	next := s.state
	subs := append([]func(State){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
	return true
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called with every new state.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}
