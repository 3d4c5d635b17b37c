package api

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "routeopt/internal/buildinfo"
    "routeopt/internal/eval"
    "routeopt/internal/events"
    "routeopt/internal/indicators"
    "routeopt/internal/model"
    "routeopt/internal/opt"
    "routeopt/internal/ranking"
    "routeopt/internal/store"
)

type solveRequest struct {
    TenantID      string      `json:"tenantId"`
    PlanDate      string      `json:"planDate"`
    Input         model.Input `json:"input"`
    Workers       int         `json:"workers"`
    TimeBudgetMs  int         `json:"timeBudgetMs"`
    MaxIterations int         `json:"maxIterations"`
    Seed          int64       `json:"seed"`
}

// searchOptions overlays request limits on the configured defaults.
func (s *Server) searchOptions(req solveRequest) (opt.Options, int) {
    o := s.Search.Options()
    if req.TimeBudgetMs > 0 || req.MaxIterations > 0 {
        o.TimeBudget = time.Duration(req.TimeBudgetMs) * time.Millisecond
        o.IterationsLimit = req.MaxIterations
    }
    if req.Seed != 0 { o.Seed = req.Seed }
    o.Logger = &s.Log
    workers := s.Search.Workers
    if req.Workers > 0 { workers = req.Workers }
    return o, workers
}

func indicatorData(ind indicators.Indicators) map[string]any {
    return map[string]any{
        "indicators": ind,
        "mode":       ranking.ModeOf(ind, ind).String(),
        "cost":       eval.UserCost(ind.Eval.Cost),
    }
}

// SolveHandler handles POST /v1/solve
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
    var req solveRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateSolveRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
        return
    }
    if h := strings.TrimSpace(r.Header.Get("X-Tenant-Id")); h != "" {
        req.TenantID = h
    } else if req.TenantID == "" {
        req.TenantID = tenantOf(r)
    }

    o, workers := s.searchOptions(req)
    topic := events.Topic(req.TenantID, req.PlanDate)
    onImprove := func(sol opt.Solution) {
        s.Broker.Publish(topic, events.Event{Type: events.TypeBestImproved, Data: indicatorData(sol.Indicators)})
    }
    sol, ms, err := opt.SolveParallel(r.Context(), &req.Input, o, workers, onImprove)
    switch {
    case errors.Is(err, model.ErrInvalidInput):
        writeProblem(w, http.StatusBadRequest, "Invalid input", err.Error(), r.URL.Path)
        return
    case err != nil:
        writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
        return
    }

    run, err := s.Store.SaveRun(r.Context(), store.RunFromSolution(&req.Input, req.TenantID, req.PlanDate, sol, ms))
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Save run failed", err.Error(), r.URL.Path)
        return
    }
    s.Broker.Publish(topic, events.Event{Type: events.TypeRunSaved, RunID: run.ID, Data: indicatorData(run.Indicators)})
    s.Log.Info().Str("run", run.ID).Str("tenant", run.TenantID).Int("assigned", run.Indicators.Assigned).
        Int64("cost", eval.UserCost(run.Indicators.Eval.Cost)).Int("iterations", run.Iterations).Msg("run saved")
    writeJSON(w, http.StatusOK, run)
}

// RunsHandler handles GET /v1/runs
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    limit := store.DefaultPageSize
    if v := q.Get("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n <= 0 {
            writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer", r.URL.Path)
            return
        }
        limit = n
    }
    items, next, err := s.Store.ListRuns(r.Context(), tenantOf(r), q.Get("planDate"), q.Get("cursor"), limit)
    if errors.Is(err, store.ErrBadCursor) {
        writeProblem(w, http.StatusBadRequest, "Invalid cursor", "cursor does not name a run", r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// BestRunHandler handles GET /v1/runs/best
func (s *Server) BestRunHandler(w http.ResponseWriter, r *http.Request) {
    planDate := r.URL.Query().Get("planDate")
    if planDate == "" {
        writeProblem(w, http.StatusBadRequest, "Missing planDate", "", r.URL.Path)
        return
    }
    run, err := s.Store.BestRun(r.Context(), tenantOf(r), planDate)
    s.writeRun(w, r, run, err)
}

// RunByIDHandler handles GET /v1/runs/{id}
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
    run, err := s.Store.GetRun(r.Context(), tenantOf(r), r.PathValue("id"))
    s.writeRun(w, r, run, err)
}

func (s *Server) writeRun(w http.ResponseWriter, r *http.Request, run store.Run, err error) {
    switch {
    case errors.Is(err, store.ErrNotFound):
        writeProblem(w, http.StatusNotFound, "Not Found", "run not found", r.URL.Path)
    case err != nil:
        writeProblem(w, http.StatusInternalServerError, "Load run failed", err.Error(), r.URL.Path)
    default:
        writeJSON(w, http.StatusOK, run)
    }
}

type rankRequest struct {
    Input model.Input      `json:"input"`
    A     []opt.Assignment `json:"a"`
    B     []opt.Assignment `json:"b"`
}

// RankHandler handles POST /v1/rank: evaluates two route sets and reports
// which one the search would prefer.
func (s *Server) RankHandler(w http.ResponseWriter, r *http.Request) {
    var req rankRequest
    if err := decodeJSON(w, r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := req.Input.Validate(); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid input", err.Error(), r.URL.Path)
        return
    }
    a, err := opt.FromAssignments(&req.Input, req.A)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid route set a", err.Error(), r.URL.Path)
        return
    }
    b, err := opt.FromAssignments(&req.Input, req.B)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid route set b", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, ranking.Judge(a.Indicators, b.Indicators))
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "build": buildinfo.String()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
    defer cancel()
    if err := s.Store.Ping(ctx); err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
