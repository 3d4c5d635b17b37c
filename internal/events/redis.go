package events

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "routeopt/internal/logging"
)

// RedisBroker implements Broker over Redis Pub/Sub so several API replicas
// share one event stream.
type RedisBroker struct {
    rdb *redis.Client
    log zerolog.Logger

    mu   sync.Mutex
    subs map[chan Event]*redis.PubSub
}

// NewRedisBroker connects to url (redis://host:port/db) and pings it.
func NewRedisBroker(ctx context.Context, url string, log *zerolog.Logger) (*RedisBroker, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opt)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, err
    }
    return &RedisBroker{rdb: rdb, log: logging.OrNop(log), subs: map[chan Event]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
    ch := make(chan Event, 16)
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, b.chanName(topic))
    // wait for the subscription confirmation so no publish is missed
    if _, err := ps.Receive(ctx); err != nil {
        b.log.Warn().Err(err).Str("topic", topic).Msg("redis subscribe")
    }
    b.mu.Lock()
    b.subs[ch] = ps
    b.mu.Unlock()
    go func() {
        defer close(ch)
        for msg := range ps.Channel() {
            var evt Event
            if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
                b.log.Debug().Err(err).Str("topic", topic).Msg("drop undecodable event")
                continue
            }
            select { case ch <- evt: default: }
        }
    }()
    return ch
}

// Unsubscribe closes the Redis subscription; ch is closed once the reader exits.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    ps, ok := b.subs[ch]
    delete(b.subs, ch)
    b.mu.Unlock()
    if ok { _ = ps.Close() }
}

func (b *RedisBroker) Publish(topic string, evt Event) {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    data, err := json.Marshal(evt)
    if err != nil {
        b.log.Error().Err(err).Str("type", evt.Type).Msg("encode event")
        return
    }
    if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
        b.log.Warn().Err(err).Str("topic", topic).Msg("redis publish")
    }
}

func (b *RedisBroker) Close() error {
    b.mu.Lock()
    for ch, ps := range b.subs {
        _ = ps.Close()
        delete(b.subs, ch)
    }
    b.mu.Unlock()
    return b.rdb.Close()
}

func (b *RedisBroker) chanName(topic string) string { return "routeopt:" + topic }
