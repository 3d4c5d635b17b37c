package ranking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"routeopt/internal/indicators"
)

func TestSlotOffer(t *testing.T) {
	var s Slot[string]
	_, _, ok := s.Load()
	require.False(t, ok)

	require.True(t, s.Offer(ind(0, 10, 5000, 2), "x"))
	require.False(t, s.Offer(ind(0, 10, 5000, 2), "same"), "equal ranks do not replace")
	require.False(t, s.Offer(ind(0, 9, 1, 1), "worse"))
	require.True(t, s.Offer(ind(0, 12, 9000, 3), "y"))

	best, payload, ok := s.Load()
	require.True(t, ok)
	require.Equal(t, "y", payload)
	require.Equal(t, 12, best.Assigned)
}

func TestSlotConcurrentOffers(t *testing.T) {
	var s Slot[int]
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Offer(ind(0, (i*7+w)%100, int64(i), 1), w)
			}
		}(w)
	}
	wg.Wait()
	best, _, ok := s.Load()
	require.True(t, ok)
	require.Equal(t, 99, best.Assigned)
}

func TestSlotOfferFuncOrdersCallbacks(t *testing.T) {
	var s Slot[indicators.Indicators]
	var seen []indicators.Indicators
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				x := ind(0, (i*13+w*7)%150, int64((i*31+w)%97), 1+(i+w)%4)
				s.OfferFunc(x, x, func(p indicators.Indicators) { seen = append(seen, p) })
			}
		}(w)
	}
	wg.Wait()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		require.True(t, Less(seen[i-1], seen[i]), "callback %d not better than %d", i, i-1)
	}
	best, _, _ := s.Load()
	require.Equal(t, best, seen[len(seen)-1])
}
