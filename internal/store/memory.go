package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
)

// Memory is a simple in-memory store used when no database URL is set.
type Memory struct {
    mu    sync.Mutex
    runs  map[string]Run      // id -> run
    byTen map[string][]string // tenant -> run ids, insertion order
}

func NewMemory() *Memory {
    return &Memory{runs: map[string]Run{}, byTen: map[string][]string{}}
}

func (m *Memory) SaveRun(ctx context.Context, run Run) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if run.ID == "" { run.ID = uuid.New().String() }
    if run.CreatedAt.IsZero() { run.CreatedAt = time.Now().UTC() }
    if _, exists := m.runs[run.ID]; !exists {
        m.byTen[run.TenantID] = append(m.byTen[run.TenantID], run.ID)
    }
    m.runs[run.ID] = run
    return run, nil
}

func (m *Memory) GetRun(ctx context.Context, tenantID, id string) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.runs[id]
    if !ok || r.TenantID != tenantID { return Run{}, ErrNotFound }
    return r, nil
}

func (m *Memory) ListRuns(ctx context.Context, tenantID, planDate, cursor string, limit int) ([]Run, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.byTen[tenantID]
    start := 0
    if cursor != "" {
        start = -1
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
        if start < 0 { return nil, "", ErrBadCursor }
    }
    limit = pageSize(limit)
    out := []Run{}
    next := ""
    for i := start; i < len(ids); i++ {
        r := m.runs[ids[i]]
        if planDate != "" && r.PlanDate != planDate { continue }
        if len(out) == limit { next = out[len(out)-1].ID; break }
        out = append(out, r)
    }
    return out, next, nil
}

func (m *Memory) BestRun(ctx context.Context, tenantID, planDate string) (Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var runs []Run
    for _, id := range m.byTen[tenantID] {
        if r := m.runs[id]; r.PlanDate == planDate { runs = append(runs, r) }
    }
    return bestOf(runs)
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
