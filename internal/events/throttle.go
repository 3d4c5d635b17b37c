package events

import (
    "golang.org/x/time/rate"

    "routeopt/internal/metrics"
)

// Throttled rate limits Publish on an inner Broker for the listed event
// types. Other types always pass. Limited events over the rate are dropped
// and counted.
type Throttled struct {
    Broker
    lim   *rate.Limiter
    types map[string]struct{}
}

// NewThrottled allows perSecond events of the given types with the given
// burst. A non-positive rate disables limiting. With no types every event
// passes unlimited.
func NewThrottled(inner Broker, perSecond float64, burst int, types ...string) *Throttled {
    lim := rate.NewLimiter(rate.Inf, 0)
    if perSecond > 0 {
        if burst < 1 { burst = 1 }
        lim = rate.NewLimiter(rate.Limit(perSecond), burst)
    }
    set := make(map[string]struct{}, len(types))
    for _, t := range types { set[t] = struct{}{} }
    return &Throttled{Broker: inner, lim: lim, types: set}
}

func (t *Throttled) Publish(topic string, evt Event) {
    if _, limited := t.types[evt.Type]; limited && !t.lim.Allow() {
        metrics.EventsDropped.WithLabelValues(evt.Type).Inc()
        return
    }
    t.Broker.Publish(topic, evt)
}
