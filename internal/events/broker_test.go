package events

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/require"

    "routeopt/internal/metrics"
)

func recv(t *testing.T, ch chan Event) Event {
    t.Helper()
    select {
    case got, ok := <-ch:
        require.True(t, ok, "channel closed")
        return got
    case <-time.After(2 * time.Second):
        t.Fatal("timeout waiting for event")
    }
    return Event{}
}

func TestMemoryBrokerPublishSubscribe(t *testing.T) {
    b := NewMemoryBroker()
    topic := Topic("t1", "2026-10-18")
    ch := b.Subscribe(topic)
    other := b.Subscribe(Topic("t2", ""))

    evt := Event{Type: TypeBestImproved, RunID: "r1", Data: map[string]any{"assigned": 3}}
    b.Publish(topic, evt)
    require.Equal(t, evt, recv(t, ch))
    select {
    case <-other:
        t.Fatal("event leaked to another topic")
    default:
    }

    b.Unsubscribe(topic, ch)
    _, ok := <-ch
    require.False(t, ok, "channel should be closed after unsubscribe")
    require.Zero(t, b.Subscribers(topic))
    // second unsubscribe is a no-op
    b.Unsubscribe(topic, ch)
}

func TestMemoryBrokerDropsWhenFull(t *testing.T) {
    b := NewMemoryBroker()
    ch := b.Subscribe("x")
    for i := 0; i < 20; i++ {
        b.Publish("x", Event{Type: TypeRunSaved})
    }
    require.Len(t, ch, cap(ch))
}

func TestTopic(t *testing.T) {
    require.Equal(t, "t1", Topic("t1", ""))
    require.Equal(t, "t1:d", Topic("t1", "d"))
}

func TestThrottledDropsOverBurst(t *testing.T) {
    inner := NewMemoryBroker()
    ch := inner.Subscribe("x")
    tb := NewThrottled(inner, 0.001, 2, "throttle.test")
    before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("throttle.test"))
    for i := 0; i < 5; i++ {
        tb.Publish("x", Event{Type: "throttle.test"})
    }
    require.Len(t, ch, 2)
    require.Equal(t, before+3, testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("throttle.test")))
}

func TestThrottledPassesRunSaved(t *testing.T) {
    inner := NewMemoryBroker()
    ch := inner.Subscribe("x")
    tb := NewThrottled(inner, 0.001, 3, TypeBestImproved)
    for i := 0; i < 12; i++ {
        tb.Publish("x", Event{Type: TypeBestImproved})
    }
    tb.Publish("x", Event{Type: TypeRunSaved, RunID: "r1"})
    require.Len(t, ch, 4)
    for i := 0; i < 3; i++ {
        require.Equal(t, TypeBestImproved, recv(t, ch).Type)
    }
    require.Equal(t, Event{Type: TypeRunSaved, RunID: "r1"}, recv(t, ch))
}

func TestThrottledUnlimited(t *testing.T) {
    inner := NewMemoryBroker()
    ch := inner.Subscribe("x")
    tb := NewThrottled(inner, 0, 0)
    for i := 0; i < 8; i++ {
        tb.Publish("x", Event{Type: TypeRunSaved})
    }
    require.Len(t, ch, 8)
}

func TestRedisBrokerRoundTrip(t *testing.T) {
    mr := miniredis.RunT(t)
    b, err := NewRedisBroker(context.Background(), "redis://"+mr.Addr(), nil)
    require.NoError(t, err)
    defer b.Close()

    ch := b.Subscribe("t1")
    evt := Event{Type: TypeBestImproved, RunID: "r9", Data: map[string]any{"cost": float64(12)}}
    b.Publish("t1", evt)
    require.Equal(t, evt, recv(t, ch))

    b.Unsubscribe("t1", ch)
    select {
    case _, ok := <-ch:
        require.False(t, ok)
    case <-time.After(2 * time.Second):
        t.Fatal("channel not closed after unsubscribe")
    }
}

func TestRedisBrokerBadURL(t *testing.T) {
    _, err := NewRedisBroker(context.Background(), "not-a-url", nil)
    require.Error(t, err)
}
