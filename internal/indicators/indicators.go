// Package indicators projects a candidate solution into the fixed-size
// summary the ranking package compares.
package indicators

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"

	"routeopt/internal/eval"
)

// Indicators summarise one solution. Values are built once and never mutated;
// the struct is comparable and can key a map.
type Indicators struct {
	PrioritySum  int64     `json:"prioritySum"`
	Assigned     int       `json:"assigned"`
	Eval         eval.Eval `json:"eval"`
	UsedVehicles int       `json:"usedVehicles"`
	// RoutesHash fingerprints the sorted route sizes only.
	RoutesHash uint32 `json:"routesHash"`
}

// Route is anything exposing a size and the job ranks it visits in order.
type Route interface {
	Size() int
	Empty() bool
	JobRanks() []int
}

// Context supplies per-job priorities and per-vehicle route evaluation.
type Context interface {
	PrioritySum(jobs []int) int64
	RouteEval(vehicleRank int, jobs []int) eval.Eval
}

// Build aggregates sol, where sol[i] is the route of vehicle rank i.
func Build[R Route](in Context, sol []R) Indicators {
	var ind Indicators
	sizes := make([]uint32, 0, len(sol))
	for v, r := range sol {
		jobs := r.JobRanks()
		ind.PrioritySum += in.PrioritySum(jobs)
		ind.Assigned += r.Size()
		ind.Eval = ind.Eval.Add(in.RouteEval(v, jobs))
		if !r.Empty() {
			ind.UsedVehicles++
		}
		sizes = append(sizes, uint32(r.Size()))
	}
	slices.Sort(sizes)
	ind.RoutesHash = HashSizes(sizes)
	return ind
}

// HashSizes hashes sizes in order: xxhash64 over their little-endian 4-byte
// encoding, folded to 32 bits. The empty sequence hashes the empty input.
func HashSizes(sizes []uint32) uint32 {
	buf := make([]byte, 0, 4*len(sizes))
	for _, s := range sizes {
		buf = binary.LittleEndian.AppendUint32(buf, s)
	}
	h := xxhash.Sum64(buf)
	return uint32(h>>32) ^ uint32(h)
}
