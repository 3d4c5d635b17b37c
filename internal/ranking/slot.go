package ranking

import (
	"sync"

	"routeopt/internal/indicators"
)

// Slot holds the best solution seen by concurrent searchers. Offer runs the
// read-compare-write under one lock.
type Slot[T any] struct {
	mu      sync.Mutex
	set     bool
	best    indicators.Indicators
	payload T
}

// Offer stores ind and payload if the slot is empty or ind ranks strictly
// better than the current best. It reports whether the slot changed.
func (s *Slot[T]) Offer(ind indicators.Indicators, payload T) bool {
	return s.OfferFunc(ind, payload, nil)
}

// OfferFunc is Offer that also calls fn with the stored payload, under the
// slot lock, when the slot changes. Successive fn calls therefore see
// strictly improving solutions. fn must not call back into the slot.
func (s *Slot[T]) OfferFunc(ind indicators.Indicators, payload T, fn func(T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set && !Less(s.best, ind) {
		return false
	}
	s.set = true
	s.best = ind
	s.payload = payload
	if fn != nil {
		fn(payload)
	}
	return true
}

// Load returns the current best, with ok false while the slot is empty.
func (s *Slot[T]) Load() (ind indicators.Indicators, payload T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best, s.payload, s.set
}
