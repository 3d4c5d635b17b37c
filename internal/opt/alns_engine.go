package opt

import (
	"cmp"
	"context"
	"math"
	"math/rand"
	"slices"
	"time"

	"routeopt/internal/eval"
	"routeopt/internal/indicators"
	"routeopt/internal/logging"
	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/ranking"
)

// Solve runs an ALNS search: random or related removal, greedy or regret-2
// repair, intra-route local search and simulated-annealing acceptance.
// Candidates are ranked with package ranking. The input must be valid.
func Solve(ctx context.Context, in *model.Input, opts Options) (Solution, Metrics) {
	opts = opts.withDefaults()
	log := logging.OrNop(opts.Logger).With().Int64("seed", opts.Seed).Logger()
	rng := rand.New(rand.NewSource(opts.Seed))
	start := time.Now()
	e := newEngine(in)

	curr := e.seed()
	best := curr
	opts.History.Record(curr.Indicators)
	if opts.OnImprove != nil {
		opts.OnImprove(best.clone())
	}
	// operator weights (removal + insertion)
	remW := []float64{opts.RemovalWeights[0], opts.RemovalWeights[1]}
	insW := []float64{opts.InsertionWeights[0], opts.InsertionWeights[1]}
	temp := opts.InitialTemp
	m := Metrics{Seed: opts.Seed, Initial: curr.Indicators}
	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = start.Add(opts.TimeBudget)
	}
	for {
		if opts.IterationsLimit > 0 && m.Iterations >= opts.IterationsLimit {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		m.Iterations++
		k := 1 + rng.Intn(3)
		// select operators by roulette wheel
		op := selectOp(remW, rng)
		m.RemovalSelects[op]++
		ip := selectOp(insW, rng)
		m.InsertSelects[ip]++

		cand := curr.clone()
		var removed []int
		switch op {
		case 0:
			removed = pickRandomJobs(cand, k, rng)
		case 1:
			removed = relatedRemoval(in, cand, k, rng)
		}
		removeJobs(&cand, removed)
		switch ip {
		case 0:
			e.greedyInsert(&cand)
		case 1:
			e.regretInsert(&cand)
		}
		e.localSearch(&cand)
		e.evaluate(&cand)
		opts.History.Record(cand.Indicators)
		metrics.SearchComparisons.WithLabelValues(ranking.ModeOf(cand.Indicators, curr.Indicators).String()).Inc()

		switch {
		case ranking.Less(best.Indicators, cand.Indicators):
			curr, best = cand, cand
			remW[op] += 0.1
			insW[ip] += 0.1
			m.Improvements++
			log.Debug().Int("iteration", m.Iterations).Int("assigned", best.Indicators.Assigned).
				Int64("cost", eval.UserCost(best.Indicators.Eval.Cost)).Msg("new best")
			if opts.OnImprove != nil {
				opts.OnImprove(best.clone())
			}
		case !ranking.Less(cand.Indicators, curr.Indicators):
			curr = cand
			remW[op] += 0.01
			insW[ip] += 0.01
		case rng.Float64() < math.Exp(-lossOf(curr.Indicators, cand.Indicators)/temp):
			curr = cand
			remW[op] += 0.01
			insW[ip] += 0.01
			m.AcceptedWorse++
		default:
			// slight penalty for non-acceptance
			remW[op] = math.Max(0.01, remW[op]*0.999)
			insW[ip] = math.Max(0.01, insW[ip]*0.999)
		}
		temp *= opts.Cooling
		if m.Iterations%opts.SnapshotEvery == 0 {
			m.Snapshots = append(m.Snapshots, WeightSnapshot{Iteration: m.Iterations, Removal: [2]float64{remW[0], remW[1]}, Insertion: [2]float64{insW[0], insW[1]}})
		}
	}
	m.Best = best.Indicators
	m.FinalRemovalWeights = [2]float64{remW[0], remW[1]}
	m.FinalInsertionWeights = [2]float64{insW[0], insW[1]}
	m.DistinctVisited = opts.History.Len()
	m.Elapsed = time.Since(start)

	metrics.SearchIterations.WithLabelValues(Algo).Add(float64(m.Iterations))
	metrics.SearchImprovements.WithLabelValues(Algo).Add(float64(m.Improvements))
	metrics.SearchAcceptedWorse.WithLabelValues(Algo).Add(float64(m.AcceptedWorse))
	metrics.SearchDuration.WithLabelValues(Algo).Observe(m.Elapsed.Seconds())
	log.Info().Int("iterations", m.Iterations).Int("improvements", m.Improvements).
		Int("assigned", best.Indicators.Assigned).Int64("cost", eval.UserCost(best.Indicators.Eval.Cost)).
		Dur("elapsed", m.Elapsed).Msg("search finished")
	return best, m
}

// lossOf measures how much worse cand is than curr, in user cost units, for
// the annealing criterion. Dropping jobs without priorities is never accepted.
func lossOf(curr, cand indicators.Indicators) float64 {
	if ranking.ModeOf(curr, cand) == ranking.Profit {
		return float64(ranking.ProfitOf(curr)-ranking.ProfitOf(cand)) / float64(eval.PriorityScale)
	}
	if cand.Assigned < curr.Assigned {
		return math.Inf(1)
	}
	return float64(cand.Eval.Cost-curr.Eval.Cost) / float64(eval.PriorityScale)
}

type engine struct {
	in *model.Input
	// profit is set when any job carries a priority; repairs then skip jobs
	// that cost more than they are worth.
	profit bool
	serve  [][]bool // [vehicle][job] skill match
}

func newEngine(in *model.Input) *engine {
	return &engine{in: in, profit: usesPriorities(in), serve: in.ServeMatrix()}
}

func usesPriorities(in *model.Input) bool {
	for _, j := range in.Jobs {
		if j.Priority > 0 {
			return true
		}
	}
	return false
}

func (e *engine) evaluate(s *Solution) {
	s.Indicators = indicators.Build(e.in, s.Routes)
}

// seed builds the initial solution by greedy insertion, highest priority first.
func (e *engine) seed() Solution {
	s := Solution{Routes: make([]RoutePlan, len(e.in.Vehicles)), Unassigned: make([]int, 0, len(e.in.Jobs))}
	for v := range s.Routes {
		s.Routes[v] = RoutePlan{VehicleRank: v, Jobs: []int{}}
	}
	for j := range e.in.Jobs {
		s.Unassigned = append(s.Unassigned, j)
	}
	slices.SortStableFunc(s.Unassigned, func(a, b int) int {
		return cmp.Compare(e.in.Jobs[b].Priority, e.in.Jobs[a].Priority)
	})
	e.greedyInsert(&s)
	e.localSearch(&s)
	e.evaluate(&s)
	return s
}

type insertion struct {
	route, pos int
	delta      int64
	ok         bool
}

// bestInsertions returns the cheapest and second cheapest feasible positions
// for job j across all routes.
func (e *engine) bestInsertions(s *Solution, j int) (best, second insertion) {
	for r, rt := range s.Routes {
		v := rt.VehicleRank
		if !e.serve[v][j] {
			continue
		}
		buf := make([]int, len(rt.Jobs)+1)
		insertAt(buf, rt.Jobs, j, len(rt.Jobs))
		if !e.in.Fits(v, buf) {
			continue
		}
		base := e.in.RouteEval(v, rt.Jobs).Cost
		for pos := 0; pos <= len(rt.Jobs); pos++ {
			insertAt(buf, rt.Jobs, j, pos)
			c := insertion{route: r, pos: pos, delta: e.in.RouteEval(v, buf).Cost - base, ok: true}
			switch {
			case !best.ok || c.delta < best.delta:
				second, best = best, c
			case !second.ok || c.delta < second.delta:
				second = c
			}
		}
	}
	return best, second
}

// gain is the profit change of performing ins for job j.
func (e *engine) gain(j int, ins insertion) int64 {
	return e.in.Jobs[j].Priority*eval.PriorityScale - ins.delta
}

func (e *engine) worthwhile(j int, ins insertion) bool {
	return ins.ok && (!e.profit || e.gain(j, ins) >= 0)
}

// greedyInsert repeatedly performs the most profitable insertion among all
// pending jobs until none is feasible or worthwhile.
func (e *engine) greedyInsert(s *Solution) {
	for len(s.Unassigned) > 0 {
		bestIdx := -1
		var bestIns insertion
		for i, j := range s.Unassigned {
			ins, _ := e.bestInsertions(s, j)
			if !e.worthwhile(j, ins) {
				continue
			}
			if bestIdx < 0 || e.gain(j, ins) > e.gain(s.Unassigned[bestIdx], bestIns) {
				bestIdx, bestIns = i, ins
			}
		}
		if bestIdx < 0 {
			return
		}
		e.apply(s, bestIdx, bestIns)
	}
}

// regretInsert inserts first the job whose second-best option is furthest
// from its best one. Jobs with a single option go first.
func (e *engine) regretInsert(s *Solution) {
	const onlyOption = math.MaxInt64 / 4
	for len(s.Unassigned) > 0 {
		bestIdx := -1
		var bestIns insertion
		var bestRegret int64
		for i, j := range s.Unassigned {
			ins, second := e.bestInsertions(s, j)
			if !e.worthwhile(j, ins) {
				continue
			}
			regret := int64(onlyOption)
			if second.ok {
				regret = second.delta - ins.delta
			}
			if bestIdx < 0 || regret > bestRegret || (regret == bestRegret && e.gain(j, ins) > e.gain(s.Unassigned[bestIdx], bestIns)) {
				bestIdx, bestIns, bestRegret = i, ins, regret
			}
		}
		if bestIdx < 0 {
			return
		}
		e.apply(s, bestIdx, bestIns)
	}
}

func (e *engine) apply(s *Solution, idx int, ins insertion) {
	j := s.Unassigned[idx]
	rt := &s.Routes[ins.route]
	buf := make([]int, len(rt.Jobs)+1)
	insertAt(buf, rt.Jobs, j, ins.pos)
	rt.Jobs = buf
	s.Unassigned = slices.Delete(s.Unassigned, idx, idx+1)
}

func insertAt(dst, src []int, j, pos int) {
	copy(dst, src[:pos])
	dst[pos] = j
	copy(dst[pos+1:], src[pos:])
}

func assignedJobs(s Solution) []int {
	var out []int
	for _, r := range s.Routes {
		out = append(out, r.Jobs...)
	}
	return out
}

func pickRandomJobs(s Solution, k int, rng *rand.Rand) []int {
	all := assignedJobs(s)
	removed := []int{}
	for i := 0; i < k && len(all) > 0; i++ {
		j := rng.Intn(len(all))
		removed = append(removed, all[j])
		all = append(all[:j], all[j+1:]...)
	}
	return removed
}

// relatedRemoval picks a random assigned job and the k-1 assigned jobs
// closest to it by travel time in both directions.
func relatedRemoval(in *model.Input, s Solution, k int, rng *rand.Rand) []int {
	assigned := assignedJobs(s)
	if len(assigned) == 0 {
		return nil
	}
	seedJob := assigned[rng.Intn(len(assigned))]
	from := in.Jobs[seedJob].Location
	rel := make([]int, 0, len(assigned)-1)
	for _, j := range assigned {
		if j != seedJob {
			rel = append(rel, j)
		}
	}
	closeness := func(j int) int64 {
		to := in.Jobs[j].Location
		return in.Durations[from][to] + in.Durations[to][from]
	}
	slices.SortStableFunc(rel, func(a, b int) int { return cmp.Compare(closeness(a), closeness(b)) })
	removed := []int{seedJob}
	for i := 0; i < len(rel) && len(removed) < k; i++ {
		removed = append(removed, rel[i])
	}
	return removed
}

func removeJobs(s *Solution, removed []int) {
	if len(removed) == 0 {
		return
	}
	rm := make(map[int]bool, len(removed))
	for _, j := range removed {
		rm[j] = true
	}
	for i := range s.Routes {
		kept := make([]int, 0, len(s.Routes[i].Jobs))
		for _, j := range s.Routes[i].Jobs {
			if !rm[j] {
				kept = append(kept, j)
			}
		}
		s.Routes[i].Jobs = kept
	}
	s.Unassigned = append(s.Unassigned, removed...)
}

func selectOp(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
