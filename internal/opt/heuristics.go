package opt

// localSearch improves every route in place with first-improvement 2-opt and
// single-job relocation. Route membership never changes, so capacity and
// skills stay feasible.
func (e *engine) localSearch(s *Solution) {
	for i := range s.Routes {
		s.Routes[i].Jobs = e.improveRoute(s.Routes[i].VehicleRank, s.Routes[i].Jobs)
	}
}

func (e *engine) improveRoute(v int, jobs []int) []int {
	if len(jobs) < 2 {
		return jobs
	}
	best := append([]int(nil), jobs...)
	bestCost := e.in.RouteEval(v, best).Cost
	for improved := true; improved; {
		improved = false
		if cand, c, ok := e.twoOpt(v, best, bestCost); ok {
			best, bestCost, improved = cand, c, true
		}
		if cand, c, ok := e.relocate(v, best, bestCost); ok {
			best, bestCost, improved = cand, c, true
		}
	}
	return best
}

// twoOpt returns the first segment reversal that lowers the route cost.
func (e *engine) twoOpt(v int, jobs []int, cost int64) ([]int, int64, bool) {
	n := len(jobs)
	cand := make([]int, n)
	for i := 0; i < n-1; i++ {
		for k := i + 1; k < n; k++ {
			twoOptSwap(cand, jobs, i, k)
			if c := e.in.RouteEval(v, cand).Cost; c < cost {
				return cand, c, true
			}
		}
	}
	return nil, cost, false
}

// twoOptSwap writes src into dst with src[i..k] reversed.
func twoOptSwap(dst, src []int, i, k int) {
	copy(dst, src)
	for a, b := i, k; a < b; a, b = a+1, b-1 {
		dst[a], dst[b] = dst[b], dst[a]
	}
}

// relocate returns the first single-job move that lowers the route cost.
func (e *engine) relocate(v int, jobs []int, cost int64) ([]int, int64, bool) {
	n := len(jobs)
	cand := make([]int, n)
	rest := make([]int, n-1)
	for i := 0; i < n; i++ {
		copy(rest, jobs[:i])
		copy(rest[i:], jobs[i+1:])
		for p := 0; p < n; p++ {
			if p == i {
				continue
			}
			insertAt(cand, rest, jobs[i], p)
			if c := e.in.RouteEval(v, cand).Cost; c < cost {
				return cand, c, true
			}
		}
	}
	return nil, cost, false
}
