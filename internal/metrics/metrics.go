package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the optimizer
    Registry = prometheus.NewRegistry()

    // SearchIterations counts ALNS iterations by algorithm
    SearchIterations = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "search_iterations_total", Help: "Search iterations run."},
        []string{"algo"},
    )
    // SearchImprovements counts new best solutions found by a trajectory
    SearchImprovements = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "search_improvements_total", Help: "Best-solution improvements."},
        []string{"algo"},
    )
    // SearchAcceptedWorse counts annealing acceptances of worse candidates
    SearchAcceptedWorse = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "search_accepted_worse_total", Help: "Worse candidates accepted."},
        []string{"algo"},
    )
    // SearchComparisons counts candidate/current comparisons by ranking mode
    SearchComparisons = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "search_comparisons_total", Help: "Solution comparisons by ranking mode."},
        []string{"mode"},
    )
    // SearchDuration records wall time of a search run in seconds
    SearchDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "search_duration_seconds", Help: "Search run duration in seconds.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}},
        []string{"algo"},
    )
    // BestAssigned is the assigned-job count of the latest global best
    BestAssigned = prometheus.NewGauge(
        prometheus.GaugeOpts{Name: "search_best_assigned", Help: "Assigned jobs in the latest global best."},
    )
    // EventsDropped counts events dropped by the publish throttle
    EventsDropped = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "events_dropped_total", Help: "Events dropped by rate limiting."},
        []string{"type"},
    )
    // WebhookDeliveries counts webhook POST outcomes: delivered, retried, failed
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook delivery attempts by result."},
        []string{"result"},
    )

    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(SearchIterations)
        Registry.MustRegister(SearchImprovements)
        Registry.MustRegister(SearchAcceptedWorse)
        Registry.MustRegister(SearchComparisons)
        Registry.MustRegister(SearchDuration)
        Registry.MustRegister(BestAssigned)
        Registry.MustRegister(EventsDropped)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
