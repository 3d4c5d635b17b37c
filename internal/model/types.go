package model

import (
    "errors"

    "routeopt/internal/eval"
)

// MaxPriority caps a single job's priority so priority sums stay far from
// int64 overflow once scaled by eval.PriorityScale.
const MaxPriority int64 = 100

var ErrInvalidInput = errors.New("invalid input")

type Job struct {
    ID         string   `json:"id" yaml:"id"`
    Location   int      `json:"location" yaml:"location"`
    ServiceSec int64    `json:"serviceSec,omitempty" yaml:"serviceSec,omitempty"`
    Priority   int64    `json:"priority,omitempty" yaml:"priority,omitempty"`
    Delivery   []int64  `json:"delivery,omitempty" yaml:"delivery,omitempty"`
    Skills     []string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

type Vehicle struct {
    ID       string            `json:"id" yaml:"id"`
    Start    *int              `json:"start,omitempty" yaml:"start,omitempty"`
    End      *int              `json:"end,omitempty" yaml:"end,omitempty"`
    Capacity []int64           `json:"capacity,omitempty" yaml:"capacity,omitempty"`
    Skills   []string          `json:"skills,omitempty" yaml:"skills,omitempty"`
    Costs    eval.VehicleCosts `json:"costs,omitempty" yaml:"costs,omitempty"`
}

// Input is the read-only routing context: jobs, vehicles and the travel
// matrices (seconds and meters) indexed by location.
type Input struct {
    Jobs      []Job     `json:"jobs" yaml:"jobs"`
    Vehicles  []Vehicle `json:"vehicles" yaml:"vehicles"`
    Durations [][]int64 `json:"durations" yaml:"durations"`
    Distances [][]int64 `json:"distances,omitempty" yaml:"distances,omitempty"`
}

// Locations is the matrix dimension.
func (in *Input) Locations() int { return len(in.Durations) }

// Amounts is the capacity dimension shared by jobs and vehicles.
func (in *Input) Amounts() int {
    for _, v := range in.Vehicles {
        if len(v.Capacity) > 0 { return len(v.Capacity) }
    }
    for _, j := range in.Jobs {
        if len(j.Delivery) > 0 { return len(j.Delivery) }
    }
    return 0
}

func (in *Input) duration(from, to int) int64 { return in.Durations[from][to] }

func (in *Input) distance(from, to int) int64 {
    if len(in.Distances) == 0 { return 0 }
    return in.Distances[from][to]
}

// PrioritySum adds up the priorities of the given job ranks.
func (in *Input) PrioritySum(jobs []int) int64 {
    var sum int64
    for _, j := range jobs {
        sum += in.Jobs[j].Priority
    }
    return sum
}

// RouteEval evaluates vehicle v driving from its start through jobs to its
// end. Empty routes cost nothing; non-empty ones also pay the fixed cost.
func (in *Input) RouteEval(v int, jobs []int) eval.Eval {
    if len(jobs) == 0 { return eval.Eval{} }
    veh := in.Vehicles[v]
    total := eval.Eval{Cost: veh.Costs.FixedCost()}
    prev := -1
    if veh.Start != nil { prev = *veh.Start }
    for _, j := range jobs {
        loc := in.Jobs[j].Location
        if prev >= 0 {
            total = total.Add(veh.Costs.Leg(in.duration(prev, loc), in.distance(prev, loc)))
        }
        prev = loc
    }
    if veh.End != nil {
        total = total.Add(veh.Costs.Leg(in.duration(prev, *veh.End), in.distance(prev, *veh.End)))
    }
    return total
}

// CanServe reports whether vehicle v has every skill job j requires.
func (in *Input) CanServe(v, j int) bool {
    need := in.Jobs[j].Skills
    if len(need) == 0 { return true }
    have := make(map[string]struct{}, len(in.Vehicles[v].Skills))
    for _, s := range in.Vehicles[v].Skills { have[s] = struct{}{} }
    for _, s := range need {
        if _, ok := have[s]; !ok { return false }
    }
    return true
}

// ServeMatrix returns m with m[v][j] == CanServe(v, j), building each
// vehicle's skill set once.
func (in *Input) ServeMatrix() [][]bool {
    m := make([][]bool, len(in.Vehicles))
    for v, veh := range in.Vehicles {
        have := make(map[string]struct{}, len(veh.Skills))
        for _, s := range veh.Skills { have[s] = struct{}{} }
        row := make([]bool, len(in.Jobs))
        for j, job := range in.Jobs {
            row[j] = true
            for _, s := range job.Skills {
                if _, ok := have[s]; !ok { row[j] = false; break }
            }
        }
        m[v] = row
    }
    return m
}

// Fits reports whether the summed deliveries of jobs stay within v's capacity.
// A vehicle without capacity is unbounded.
func (in *Input) Fits(v int, jobs []int) bool {
    capacity := in.Vehicles[v].Capacity
    if len(capacity) == 0 { return true }
    load := make([]int64, len(capacity))
    for _, j := range jobs {
        for k, a := range in.Jobs[j].Delivery {
            load[k] += a
            if load[k] > capacity[k] { return false }
        }
    }
    return true
}
