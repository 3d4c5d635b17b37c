package opt

import (
	"sync"

	"routeopt/internal/indicators"
)

// History is the set of solution summaries a search has visited. Equal
// indicators count once, so equally ranked solutions dedupe.
type History struct {
	mu   sync.Mutex
	seen map[indicators.Indicators]int
}

func NewHistory() *History {
	return &History{seen: map[indicators.Indicators]int{}}
}

// Record notes a visit and reports whether ind was new.
func (h *History) Record(ind indicators.Indicators) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[ind]++
	return h.seen[ind] == 1
}

// Visits returns how often ind was recorded.
func (h *History) Visits(ind indicators.Indicators) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen[ind]
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}
