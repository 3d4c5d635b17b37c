package opt

import (
	"time"

	"github.com/rs/zerolog"

	"routeopt/internal/indicators"
)

// Algo labels metrics and stored runs produced by this engine.
const Algo = "alns"

// RoutePlan is the ordered job ranks served by one vehicle.
type RoutePlan struct {
	VehicleRank int   `json:"vehicleRank"`
	Jobs        []int `json:"jobs"`
}

func (r RoutePlan) Size() int       { return len(r.Jobs) }
func (r RoutePlan) Empty() bool     { return len(r.Jobs) == 0 }
func (r RoutePlan) JobRanks() []int { return r.Jobs }

// Solution holds one route per vehicle, in vehicle rank order, plus the jobs
// left out. Indicators are refreshed by the engine after every change.
type Solution struct {
	Routes     []RoutePlan           `json:"routes"`
	Unassigned []int                 `json:"unassigned"`
	Indicators indicators.Indicators `json:"indicators"`
}

func (s Solution) clone() Solution {
	out := Solution{Routes: make([]RoutePlan, len(s.Routes)), Unassigned: append([]int(nil), s.Unassigned...), Indicators: s.Indicators}
	for i, r := range s.Routes {
		out.Routes[i] = RoutePlan{VehicleRank: r.VehicleRank, Jobs: append([]int(nil), r.Jobs...)}
	}
	return out
}

// Options tune a search run. Zero values select defaults.
type Options struct {
	Seed             int64
	TimeBudget       time.Duration
	IterationsLimit  int
	InitialTemp      float64    // initial temperature for SA, in user cost units
	Cooling          float64    // cooling factor per iteration
	RemovalWeights   []float64  // [random, related]
	InsertionWeights []float64  // [greedy, regret2]
	SnapshotEvery    int
	Logger           *zerolog.Logger
	// History collects visited indicators; shared between parallel workers.
	History *History
	// OnImprove is called with every new trajectory best. It may run on
	// several goroutines at once.
	OnImprove func(Solution)
}

const (
	defaultTimeBudget    = 300 * time.Millisecond
	defaultTemp          = 10.0
	defaultCooling       = 0.995
	defaultSnapshotEvery = 50
)

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.TimeBudget <= 0 && o.IterationsLimit <= 0 {
		o.TimeBudget = defaultTimeBudget
	}
	if o.InitialTemp <= 0 {
		o.InitialTemp = defaultTemp
	}
	if o.Cooling <= 0 || o.Cooling >= 1 {
		o.Cooling = defaultCooling
	}
	if len(o.RemovalWeights) != 2 {
		o.RemovalWeights = []float64{1, 1}
	}
	if len(o.InsertionWeights) != 2 {
		o.InsertionWeights = []float64{1, 1}
	}
	if o.SnapshotEvery <= 0 {
		o.SnapshotEvery = defaultSnapshotEvery
	}
	if o.History == nil {
		o.History = NewHistory()
	}
	return o
}

type Metrics struct {
	Worker                int                   `json:"worker"`
	Seed                  int64                 `json:"seed"`
	RemovalSelects        [2]int                `json:"removalSelects"` // random, related
	InsertSelects         [2]int                `json:"insertSelects"`  // greedy, regret2
	Iterations            int                   `json:"iterations"`
	Improvements          int                   `json:"improvements"`
	AcceptedWorse         int                   `json:"acceptedWorse"`
	DistinctVisited       int                   `json:"distinctVisited"`
	Initial               indicators.Indicators `json:"initial"`
	Best                  indicators.Indicators `json:"best"`
	FinalRemovalWeights   [2]float64            `json:"finalRemovalWeights"`
	FinalInsertionWeights [2]float64            `json:"finalInsertionWeights"`
	Snapshots             []WeightSnapshot      `json:"snapshots,omitempty"`
	Elapsed               time.Duration         `json:"elapsed"`
}

type WeightSnapshot struct {
	Iteration int        `json:"iteration"`
	Removal   [2]float64 `json:"removal"`
	Insertion [2]float64 `json:"insertion"`
}
