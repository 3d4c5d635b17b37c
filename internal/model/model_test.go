package model

import (
    "errors"
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/require"

    "routeopt/internal/eval"
)

func ptr(i int) *int { return &i }

func lineInput() *Input {
    // depot 0 and three stops on a line, 10s/100m apart
    d := [][]int64{
        {0, 10, 20, 30},
        {10, 0, 10, 20},
        {20, 10, 0, 10},
        {30, 20, 10, 0},
    }
    m := make([][]int64, len(d))
    for i := range d {
        m[i] = make([]int64, len(d[i]))
        for j := range d[i] { m[i][j] = d[i][j] * 10 }
    }
    return &Input{
        Jobs: []Job{
            {ID: "a", Location: 1, Priority: 2, Delivery: []int64{1}},
            {ID: "b", Location: 2, Priority: 0, Delivery: []int64{2}, Skills: []string{"cold"}},
            {ID: "c", Location: 3, Priority: 5, Delivery: []int64{3}},
        },
        Vehicles: []Vehicle{
            {ID: "v1", Start: ptr(0), End: ptr(0), Capacity: []int64{4}, Skills: []string{"cold"}},
            {ID: "v2", Start: ptr(0), Capacity: []int64{3}, Costs: eval.VehicleCosts{Fixed: 50}},
        },
        Durations: d,
        Distances: m,
    }
}

func TestValidate(t *testing.T) {
    require.NoError(t, lineInput().Validate())

    cases := map[string]func(in *Input){
        "priority above cap": func(in *Input) { in.Jobs[0].Priority = MaxPriority + 1 },
        "negative priority":  func(in *Input) { in.Jobs[0].Priority = -1 },
        "ragged matrix":      func(in *Input) { in.Durations[1] = in.Durations[1][:2] },
        "location range":     func(in *Input) { in.Jobs[2].Location = 9 },
        "duplicate job":      func(in *Input) { in.Jobs[1].ID = "a" },
        "no vehicles":        func(in *Input) { in.Vehicles = nil },
        "amount dimension":   func(in *Input) { in.Jobs[0].Delivery = []int64{1, 1} },
        "vehicle start":      func(in *Input) { in.Vehicles[0].Start = ptr(-1) },
    }
    for name, mutate := range cases {
        t.Run(name, func(t *testing.T) {
            in := lineInput()
            mutate(in)
            err := in.Validate()
            require.Error(t, err)
            require.True(t, errors.Is(err, ErrInvalidInput))
        })
    }
}

func TestPrioritySum(t *testing.T) {
    in := lineInput()
    require.Equal(t, int64(7), in.PrioritySum([]int{0, 1, 2}))
    require.Equal(t, int64(0), in.PrioritySum(nil))
}

func TestRouteEval(t *testing.T) {
    in := lineInput()
    require.Equal(t, eval.Eval{}, in.RouteEval(1, nil))

    // v1: 0 -> 1 -> 3 -> 0 = 10 + 20 + 30 seconds, round trip
    e := in.RouteEval(0, []int{0, 2})
    require.Equal(t, int64(60), e.Duration)
    require.Equal(t, int64(600), e.Distance)
    require.Equal(t, int64(60)*eval.PriorityScale, e.Cost)

    // v2 has no end and a fixed cost: 0 -> 2 = 20s
    e = in.RouteEval(1, []int{1})
    require.Equal(t, int64(20), e.Duration)
    require.Equal(t, int64(20+50)*eval.PriorityScale, e.Cost)
}

func TestFeasibility(t *testing.T) {
    in := lineInput()
    require.True(t, in.CanServe(0, 1))
    require.False(t, in.CanServe(1, 1))
    require.True(t, in.CanServe(1, 0))
    m := in.ServeMatrix()
    for v := range in.Vehicles {
        for j := range in.Jobs {
            require.Equal(t, in.CanServe(v, j), m[v][j], "vehicle %d job %d", v, j)
        }
    }

    require.True(t, in.Fits(0, []int{0, 2}))
    require.False(t, in.Fits(1, []int{0, 2}))
}

func TestLoadInput(t *testing.T) {
    doc := `
jobs:
  - {id: j1, location: 1, priority: 3}
  - {id: j2, location: 1}
vehicles:
  - id: v1
    start: 0
    costs: {fixed: 1}
durations: [[0, 5], [5, 0]]
`
    path := filepath.Join(t.TempDir(), "problem.yaml")
    require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
    in, err := LoadInput(path)
    require.NoError(t, err)
    require.Len(t, in.Jobs, 2)
    require.Equal(t, int64(3), in.Jobs[0].Priority)
    require.Equal(t, 0, *in.Vehicles[0].Start)
    require.Nil(t, in.Vehicles[0].End)
    require.Equal(t, int64(1), in.Vehicles[0].Costs.Fixed)

    _, err = ParseInput([]byte(`{"jobs":[],"vehicles":[{"id":"v"}],"durations":[[0]]}`))
    require.NoError(t, err)

    _, err = ParseInput([]byte(`jobs: [`))
    require.ErrorIs(t, err, ErrInvalidInput)
}
