package events

import (
    "sync"
)

// Event types.
const (
    TypeBestImproved = "best.improved"
    TypeRunSaved     = "run.saved"
)

type Event struct {
    Type  string         `json:"type"`
    RunID string         `json:"runId,omitempty"`
    Data  map[string]any `json:"data,omitempty"`
}

// Broker fans events out to subscribers of a topic. Slow subscribers miss
// events instead of blocking publishers.
type Broker interface {
    Subscribe(topic string) chan Event
    Unsubscribe(topic string, ch chan Event)
    Publish(topic string, evt Event)
}

// Topic is the stream a tenant's plan date publishes on.
func Topic(tenantID, planDate string) string {
    if planDate == "" { return tenantID }
    return tenantID + ":" + planDate
}

// MemoryBroker is the in-process Broker.
type MemoryBroker struct {
    mu   sync.Mutex
    subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewMemoryBroker() *MemoryBroker {
    return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(topic string) chan Event {
    ch := make(chan Event, 8)
    b.mu.Lock()
    if b.subs[topic] == nil { b.subs[topic] = map[chan Event]struct{}{} }
    b.subs[topic][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *MemoryBroker) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    defer b.mu.Unlock()
    m := b.subs[topic]
    if _, ok := m[ch]; !ok { return }
    delete(m, ch)
    if len(m) == 0 { delete(b.subs, topic) }
    close(ch)
}

func (b *MemoryBroker) Publish(topic string, evt Event) {
    b.mu.Lock()
    defer b.mu.Unlock()
    for ch := range b.subs[topic] {
        select { case ch <- evt: default: }
    }
}

// Subscribers reports how many channels listen on topic.
func (b *MemoryBroker) Subscribers(topic string) int {
    b.mu.Lock()
    defer b.mu.Unlock()
    return len(b.subs[topic])
}
