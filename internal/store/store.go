package store

import (
    "context"
    "errors"
    "strings"
    "time"

    "routeopt/internal/indicators"
    "routeopt/internal/model"
    "routeopt/internal/opt"
    "routeopt/internal/ranking"
)

// Store persists optimization runs.
type Store interface {
    // SaveRun assigns ID and CreatedAt when unset and returns the stored run.
    SaveRun(ctx context.Context, run Run) (Run, error)
    GetRun(ctx context.Context, tenantID, id string) (Run, error)
    // ListRuns pages a tenant's runs oldest first; planDate filters when set.
    // A cursor that names no run of the tenant yields ErrBadCursor. limit is
    // clamped to (0, MaxPageSize], defaulting to DefaultPageSize.
    ListRuns(ctx context.Context, tenantID, planDate, cursor string, limit int) (items []Run, nextCursor string, err error)
    // BestRun returns the highest ranked run for a plan date.
    BestRun(ctx context.Context, tenantID, planDate string) (Run, error)
    Ping(ctx context.Context) error
    Close() error
}

var (
    ErrNotFound  = errors.New("not found")
    ErrBadCursor = errors.New("bad cursor")
)

const (
    DefaultPageSize = 100
    MaxPageSize     = 500
)

func pageSize(limit int) int {
    if limit <= 0 { return DefaultPageSize }
    return min(limit, MaxPageSize)
}

type Run struct {
    ID              string                `json:"id"`
    TenantID        string                `json:"tenantId"`
    PlanDate        string                `json:"planDate"`
    Algo            string                `json:"algo"`
    Workers         int                   `json:"workers"`
    Indicators      indicators.Indicators `json:"indicators"`
    Iterations      int                   `json:"iterations"`
    Improvements    int                   `json:"improvements"`
    AcceptedWorse   int                   `json:"acceptedWorse"`
    DistinctVisited int                   `json:"distinctVisited"`
    Routes          []opt.Assignment      `json:"routes"`
    Unassigned      []string              `json:"unassigned"`
    CreatedAt       time.Time             `json:"createdAt"`
}

// RunFromSolution maps ranks back to IDs and sums worker metrics.
func RunFromSolution(in *model.Input, tenantID, planDate string, sol opt.Solution, ms []opt.Metrics) Run {
    r := Run{TenantID: tenantID, PlanDate: planDate, Algo: opt.Algo, Workers: len(ms), Indicators: sol.Indicators, Routes: sol.Assignments(in), Unassigned: sol.UnassignedIDs(in)}
    for _, m := range ms {
        r.Iterations += m.Iterations
        r.Improvements += m.Improvements
        r.AcceptedWorse += m.AcceptedWorse
        if m.DistinctVisited > r.DistinctVisited { r.DistinctVisited = m.DistinctVisited }
    }
    return r
}

// bestOf picks the highest ranked run, the earliest one on ties.
func bestOf(runs []Run) (Run, error) {
    if len(runs) == 0 { return Run{}, ErrNotFound }
    best := runs[0]
    for _, r := range runs[1:] {
        if ranking.Less(best.Indicators, r.Indicators) { best = r }
    }
    return best, nil
}

// NewFromURL returns a Postgres store for a DSN and an in-memory one otherwise.
func NewFromURL(ctx context.Context, dsn string) (Store, error) {
    if strings.TrimSpace(dsn) == "" { return NewMemory(), nil }
    p, err := NewPostgres(dsn)
    if err != nil { return nil, err }
    if err := p.Migrate(ctx); err != nil {
        _ = p.Close()
        return nil, err
    }
    return p, nil
}
