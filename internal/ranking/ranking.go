// Package ranking orders solution indicators so the search can accept moves
// and keep its best solution.
//
// Two objectives exist. When either side uses priorities the comparison
// maximises profit, priority_sum*eval.PriorityScale - cost. Otherwise it
// maximises assigned jobs, then minimises cost. Both finish with the same
// tie-break chain: fewer used vehicles, lower duration, lower distance, lower
// routes hash. The result is a strict weak ordering suitable for sorting.
package ranking

import (
	"cmp"
	"slices"

	"routeopt/internal/eval"
	"routeopt/internal/indicators"
)

type Mode int

const (
	Lexicographic Mode = iota
	Profit
)

func (m Mode) String() string {
	if m == Profit {
		return "profit"
	}
	return "lexicographic"
}

// ModeOf decides the objective for one comparison.
func ModeOf(lhs, rhs indicators.Indicators) Mode {
	if lhs.PrioritySum > 0 || rhs.PrioritySum > 0 {
		return Profit
	}
	return Lexicographic
}

// ProfitOf returns priority_sum*PriorityScale - cost. Priority sums are
// bounded by model.MaxPriority per job, so int64 does not overflow.
func ProfitOf(ind indicators.Indicators) int64 {
	return ind.PrioritySum*eval.PriorityScale - ind.Eval.Cost
}

// Compare returns -1 when lhs is worse than rhs, +1 when it is better and 0
// when neither is preferred.
func Compare(lhs, rhs indicators.Indicators) int {
	if ModeOf(lhs, rhs) == Profit {
		if c := cmp.Compare(ProfitOf(lhs), ProfitOf(rhs)); c != 0 {
			return c
		}
	} else {
		if c := cmp.Compare(lhs.Assigned, rhs.Assigned); c != 0 {
			return c
		}
		if c := cmp.Compare(rhs.Eval.Cost, lhs.Eval.Cost); c != 0 {
			return c
		}
	}
	return tieBreak(lhs, rhs)
}

func tieBreak(lhs, rhs indicators.Indicators) int {
	// profit mode ranks assigned here; lexicographic already settled it
	if c := cmp.Compare(lhs.Assigned, rhs.Assigned); c != 0 {
		return c
	}
	if c := cmp.Compare(rhs.UsedVehicles, lhs.UsedVehicles); c != 0 {
		return c
	}
	if c := cmp.Compare(rhs.Eval.Duration, lhs.Eval.Duration); c != 0 {
		return c
	}
	if c := cmp.Compare(rhs.Eval.Distance, lhs.Eval.Distance); c != 0 {
		return c
	}
	return cmp.Compare(rhs.RoutesHash, lhs.RoutesHash)
}

// Less reports whether lhs is worse than rhs, i.e. rhs should be preferred.
func Less(lhs, rhs indicators.Indicators) bool { return Compare(lhs, rhs) < 0 }

// Better reports whether a should be preferred over b.
func Better(a, b indicators.Indicators) bool { return Less(b, a) }

// SortBestFirst orders items from best to worst.
func SortBestFirst(items []indicators.Indicators) {
	slices.SortStableFunc(items, func(a, b indicators.Indicators) int { return Compare(b, a) })
}

// BestIndex returns the index of the best item, the first one on ties, or -1
// for an empty slice.
func BestIndex(items []indicators.Indicators) int {
	best := -1
	for i := range items {
		if best < 0 || Less(items[best], items[i]) {
			best = i
		}
	}
	return best
}
