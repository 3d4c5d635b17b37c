// Package webhooks forwards broker events to an external HTTP endpoint with
// HMAC signatures and retry.
package webhooks

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "routeopt/internal/events"
    "routeopt/internal/logging"
    "routeopt/internal/metrics"
)

// Payload is the JSON body POSTed for each event.
type Payload struct {
    ID    string         `json:"id"`
    Type  string         `json:"type"`
    Topic string         `json:"topic"`
    RunID string         `json:"runId,omitempty"`
    TS    string         `json:"ts"`
    Data  map[string]any `json:"data,omitempty"`
}

type delivery struct {
    payload  Payload
    body     []byte
    attempts int
}

type Sender struct {
    URL         string
    Secret      string
    HTTP        *http.Client
    MaxAttempts int
    // BaseBackoff is doubled per failed attempt, capped at an hour.
    BaseBackoff time.Duration

    log   zerolog.Logger
    queue chan delivery
}

func NewSender(url, secret string, maxAttempts int, log *zerolog.Logger) *Sender {
    if maxAttempts <= 0 { maxAttempts = 5 }
    return &Sender{
        URL: url, Secret: secret, MaxAttempts: maxAttempts, BaseBackoff: time.Second,
        HTTP:  &http.Client{Timeout: 5 * time.Second},
        log:   logging.OrNop(log),
        queue: make(chan delivery, 256),
    }
}

// Enqueue schedules evt without blocking; a full queue drops it.
func (s *Sender) Enqueue(topic string, evt events.Event) bool {
    p := Payload{ID: uuid.NewString(), Type: evt.Type, Topic: topic, RunID: evt.RunID, TS: time.Now().UTC().Format(time.RFC3339), Data: evt.Data}
    body, err := json.Marshal(p)
    if err != nil {
        s.log.Error().Err(err).Str("type", evt.Type).Msg("encode webhook payload")
        return false
    }
    return s.push(delivery{payload: p, body: body})
}

func (s *Sender) push(d delivery) bool {
    select {
    case s.queue <- d:
        return true
    default:
        metrics.EventsDropped.WithLabelValues("webhook").Inc()
        return false
    }
}

// Run delivers queued events until ctx is done.
func (s *Sender) Run(ctx context.Context) {
    for {
        select {
        case <-ctx.Done():
            return
        case d := <-s.queue:
            s.attempt(ctx, d)
        }
    }
}

func (s *Sender) attempt(ctx context.Context, d delivery) {
    d.attempts++
    err := s.post(ctx, d)
    switch {
    case err == nil:
        metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
    case d.attempts >= s.MaxAttempts:
        metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
        s.log.Warn().Err(err).Str("id", d.payload.ID).Int("attempts", d.attempts).Msg("webhook gave up")
    default:
        metrics.WebhookDeliveries.WithLabelValues("retried").Inc()
        wait := nextBackoff(s.BaseBackoff, d.attempts-1)
        s.log.Debug().Err(err).Str("id", d.payload.ID).Dur("wait", wait).Msg("webhook retry")
        time.AfterFunc(wait, func() {
            if ctx.Err() == nil { s.push(d) }
        })
    }
}

func (s *Sender) post(ctx context.Context, d delivery) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(d.body))
    if err != nil { return err }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set(HeaderEventType, d.payload.Type)
    req.Header.Set(HeaderDelivery, d.payload.ID)
    if s.Secret != "" { req.Header.Set(HeaderSignature, Sign(s.Secret, d.body)) }
    resp, err := s.HTTP.Do(req)
    if err != nil { return err }
    _ = resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return fmt.Errorf("webhook status %d", resp.StatusCode)
    }
    return nil
}

func nextBackoff(base time.Duration, attempts int) time.Duration {
    if attempts < 0 { attempts = 0 }
    if attempts > 10 { attempts = 10 }
    d := base * time.Duration(1<<attempts)
    if d > time.Hour { d = time.Hour }
    return d
}

// Forwarding publishes on the inner broker and also enqueues every event
// for webhook delivery.
type Forwarding struct {
    events.Broker
    sender *Sender
}

func Forward(inner events.Broker, s *Sender) *Forwarding {
    return &Forwarding{Broker: inner, sender: s}
}

func (f *Forwarding) Publish(topic string, evt events.Event) {
    f.Broker.Publish(topic, evt)
    f.sender.Enqueue(topic, evt)
}
