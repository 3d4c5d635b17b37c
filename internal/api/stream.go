package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"routeopt/internal/events"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 20 * time.Second
	writeWait  = 5 * time.Second
)

// StreamHandler handles GET /v1/runs/stream?tenantId=&planDate= and pushes
// broker events for that topic as JSON text frames until either side closes.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request) {
	topic := events.Topic(tenantOf(r), r.URL.Query().Get("planDate"))
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	// only this goroutine writes
	write := func(fn func() error) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return fn()
	}

	// Reader: only control frames are expected; any error ends the stream.
	done := make(chan struct{})
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	s.Log.Debug().Str("topic", topic).Msg("stream opened")
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				_ = write(func() error {
					return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				})
				return
			}
			if err := write(func() error { return conn.WriteJSON(evt) }); err != nil {
				return
			}
		}
	}
}
