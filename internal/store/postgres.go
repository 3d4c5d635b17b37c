package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Postgres{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id uuid PRIMARY KEY,
    tenant_id text NOT NULL,
    plan_date text NOT NULL,
    algo text NOT NULL,
    workers int NOT NULL,
    priority_sum bigint NOT NULL,
    assigned int NOT NULL,
    cost bigint NOT NULL,
    duration bigint NOT NULL,
    distance bigint NOT NULL,
    used_vehicles int NOT NULL,
    routes_hash bigint NOT NULL,
    iterations int NOT NULL,
    improvements int NOT NULL,
    accepted_worse int NOT NULL,
    distinct_visited int NOT NULL,
    routes jsonb NOT NULL,
    unassigned jsonb NOT NULL,
    created_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_tenant_plan_idx ON runs (tenant_id, plan_date);
`

// Migrate creates the runs table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
    if _, err := p.db.ExecContext(ctx, schema); err != nil {
        return fmt.Errorf("migrate runs: %w", err)
    }
    return nil
}

const runColumns = `id::text, tenant_id, plan_date, algo, workers, priority_sum, assigned, cost, duration, distance, used_vehicles, routes_hash, iterations, improvements, accepted_worse, distinct_visited, routes, unassigned, created_at`

func (p *Postgres) SaveRun(ctx context.Context, run Run) (Run, error) {
    if run.ID == "" { run.ID = uuid.New().String() }
    if run.CreatedAt.IsZero() { run.CreatedAt = time.Now().UTC() }
    routes, err := json.Marshal(run.Routes)
    if err != nil { return Run{}, err }
    unassigned, err := json.Marshal(run.Unassigned)
    if err != nil { return Run{}, err }
    ind := run.Indicators
    _, err = p.db.ExecContext(ctx, `INSERT INTO runs (`+insertColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17::jsonb,$18::jsonb,$19)`,
        run.ID, run.TenantID, run.PlanDate, run.Algo, run.Workers,
        ind.PrioritySum, ind.Assigned, ind.Eval.Cost, ind.Eval.Duration, ind.Eval.Distance, ind.UsedVehicles, int64(ind.RoutesHash),
        run.Iterations, run.Improvements, run.AcceptedWorse, run.DistinctVisited,
        string(routes), string(unassigned), run.CreatedAt)
    if err != nil { return Run{}, fmt.Errorf("insert run: %w", err) }
    return run, nil
}

const insertColumns = `id, tenant_id, plan_date, algo, workers, priority_sum, assigned, cost, duration, distance, used_vehicles, routes_hash, iterations, improvements, accepted_worse, distinct_visited, routes, unassigned, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(s rowScanner) (Run, error) {
    var r Run
    var hash int64
    var routes, unassigned []byte
    ind := &r.Indicators
    if err := s.Scan(&r.ID, &r.TenantID, &r.PlanDate, &r.Algo, &r.Workers,
        &ind.PrioritySum, &ind.Assigned, &ind.Eval.Cost, &ind.Eval.Duration, &ind.Eval.Distance, &ind.UsedVehicles, &hash,
        &r.Iterations, &r.Improvements, &r.AcceptedWorse, &r.DistinctVisited,
        &routes, &unassigned, &r.CreatedAt); err != nil {
        return Run{}, err
    }
    ind.RoutesHash = uint32(hash)
    if err := json.Unmarshal(routes, &r.Routes); err != nil { return Run{}, fmt.Errorf("decode routes: %w", err) }
    if err := json.Unmarshal(unassigned, &r.Unassigned); err != nil { return Run{}, fmt.Errorf("decode unassigned: %w", err) }
    r.CreatedAt = r.CreatedAt.UTC()
    return r, nil
}

func (p *Postgres) GetRun(ctx context.Context, tenantID, id string) (Run, error) {
    if _, err := uuid.Parse(id); err != nil { return Run{}, ErrNotFound }
    row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    r, err := scanRun(row)
    if errors.Is(err, sql.ErrNoRows) { return Run{}, ErrNotFound }
    return r, err
}

// ListRuns pages by (created_at, id); the cursor is the last returned id.
func (p *Postgres) ListRuns(ctx context.Context, tenantID, planDate, cursor string, limit int) ([]Run, string, error) {
    limit = pageSize(limit)
    q := `SELECT ` + runColumns + ` FROM runs WHERE tenant_id=$1 AND ($2 = '' OR plan_date = $2)`
    args := []any{tenantID, planDate}
    if cursor != "" {
        if _, err := uuid.Parse(cursor); err != nil { return nil, "", ErrBadCursor }
        var at time.Time
        err := p.db.QueryRowContext(ctx, `SELECT created_at FROM runs WHERE id=$1 AND tenant_id=$2`, cursor, tenantID).Scan(&at)
        if errors.Is(err, sql.ErrNoRows) { return nil, "", ErrBadCursor }
        if err != nil { return nil, "", err }
        q += ` AND (created_at, id) > ($3, $4::uuid)`
        args = append(args, at, cursor)
    }
    q += fmt.Sprintf(` ORDER BY created_at, id LIMIT %d`, limit+1)
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []Run{}
    for rows.Next() {
        r, err := scanRun(rows)
        if err != nil { return nil, "", err }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil { return nil, "", err }
    next := ""
    if len(out) > limit {
        out = out[:limit]
        next = out[limit-1].ID
    }
    return out, next, nil
}

func (p *Postgres) BestRun(ctx context.Context, tenantID, planDate string) (Run, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE tenant_id=$1 AND plan_date=$2 ORDER BY created_at, id`, tenantID, planDate)
    if err != nil { return Run{}, err }
    defer rows.Close()
    var runs []Run
    for rows.Next() {
        r, err := scanRun(rows)
        if err != nil { return Run{}, err }
        runs = append(runs, r)
    }
    if err := rows.Err(); err != nil { return Run{}, err }
    return bestOf(runs)
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
