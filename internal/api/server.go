package api

import (
    "net/http"
    "strings"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/rs/zerolog"

    "routeopt/internal/config"
    "routeopt/internal/events"
    "routeopt/internal/logging"
    "routeopt/internal/metrics"
    "routeopt/internal/store"
)

// DefaultTenant is used when a request names no tenant.
const DefaultTenant = "t_demo"

type Server struct {
    Store  store.Store
    Broker events.Broker
    Search config.SearchConfig
    Log    zerolog.Logger
}

// NewServer wires a Server; a nil broker falls back to the in-process one.
func NewServer(st store.Store, br events.Broker, search config.SearchConfig, log *zerolog.Logger) *Server {
    if br == nil { br = events.NewMemoryBroker() }
    search.SetDefaults()
    return &Server{Store: st, Broker: br, Search: search, Log: logging.OrNop(log)}
}

// Handler returns the routed mux wrapped in metrics and access logging.
func (s *Server) Handler() http.Handler {
    metrics.RegisterDefault()
    mux := http.NewServeMux()

    mux.HandleFunc("POST /v1/solve", s.SolveHandler)
    mux.HandleFunc("POST /v1/rank", s.RankHandler)
    mux.HandleFunc("GET /v1/runs", s.RunsHandler)
    mux.HandleFunc("GET /v1/runs/best", s.BestRunHandler)
    mux.HandleFunc("GET /v1/runs/stream", s.StreamHandler)
    mux.HandleFunc("GET /v1/runs/{id}", s.RunByIDHandler)

    mux.HandleFunc("GET /healthz", s.HealthHandler)
    mux.HandleFunc("GET /readyz", s.ReadyHandler)
    mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    return s.observe(mux)
}

// tenantOf reads the tenant from the X-Tenant-Id header, then the query.
func tenantOf(r *http.Request) string {
    if t := strings.TrimSpace(r.Header.Get("X-Tenant-Id")); t != "" { return t }
    if t := strings.TrimSpace(r.URL.Query().Get("tenantId")); t != "" { return t }
    return DefaultTenant
}
