package opt

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/ranking"
)

var ErrNoSolution = errors.New("search produced no solution")

// SolveParallel runs one independent trajectory per worker, seeded
// opts.Seed+i, and keeps the global best in a shared ranking.Slot. Workers
// offer every trajectory best as they find it; onImprove, when set, is
// called under the slot lock after each improvement, so calls are serialized
// and see strictly improving solutions. It must not block for long.
func SolveParallel(ctx context.Context, in *model.Input, opts Options, workers int, onImprove func(Solution)) (Solution, []Metrics, error) {
	if err := in.Validate(); err != nil {
		return Solution{}, nil, err
	}
	if workers < 1 {
		workers = 1
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.History == nil {
		opts.History = NewHistory()
	}

	var slot ranking.Slot[Solution]
	offer := func(s Solution) {
		slot.OfferFunc(s.Indicators, s, func(s Solution) {
			metrics.BestAssigned.Set(float64(s.Indicators.Assigned))
			if onImprove != nil {
				onImprove(s)
			}
		})
	}
	ms := make([]Metrics, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		o := opts
		o.Seed = opts.Seed + int64(w)
		o.OnImprove = offer
		if opts.Logger != nil {
			l := opts.Logger.With().Int("worker", w).Logger()
			o.Logger = &l
		}
		g.Go(func() error {
			sol, m := Solve(gctx, in, o)
			m.Worker = w
			ms[w] = m
			offer(sol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Solution{}, ms, err
	}
	_, best, ok := slot.Load()
	if !ok {
		return Solution{}, ms, ErrNoSolution
	}
	return best, ms, nil
}
