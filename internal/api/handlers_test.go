package api

import (
    "bytes"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "github.com/stretchr/testify/require"

    "routeopt/internal/config"
    "routeopt/internal/events"
    "routeopt/internal/model"
    "routeopt/internal/opt"
    "routeopt/internal/ranking"
    "routeopt/internal/store"
)

func ptr(i int) *int { return &i }

// lineInput places jobs a, b, c at 1, 2, 3 on a line from a depot at 0.
func lineInput() model.Input {
    n := 4
    d := make([][]int64, n)
    for i := range d {
        d[i] = make([]int64, n)
        for j := range d[i] {
            diff := int64(i - j)
            if diff < 0 { diff = -diff }
            d[i][j] = diff * 10
        }
    }
    return model.Input{
        Jobs:      []model.Job{{ID: "a", Location: 1}, {ID: "b", Location: 2}, {ID: "c", Location: 3}},
        Vehicles:  []model.Vehicle{{ID: "v0", Start: ptr(0), End: ptr(0)}, {ID: "v1", Start: ptr(0), End: ptr(0)}},
        Durations: d,
    }
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
    t.Helper()
    s := NewServer(store.NewMemory(), events.NewMemoryBroker(), config.SearchConfig{Workers: 2, MaxIterations: 100}, nil)
    return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
    t.Helper()
    var rd *bytes.Reader
    if body != nil {
        b, err := json.Marshal(body)
        require.NoError(t, err)
        rd = bytes.NewReader(b)
    } else {
        rd = bytes.NewReader(nil)
    }
    req := httptest.NewRequest(method, path, rd)
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Tenant-Id", "t_test")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestHealthReady(t *testing.T) {
    _, h := newTestServer(t)
    rr := do(t, h, http.MethodGet, "/healthz", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    require.Contains(t, rr.Body.String(), "routeopt")
    rr = do(t, h, http.MethodGet, "/readyz", nil)
    require.Equal(t, http.StatusOK, rr.Code)
}

func TestSolveThenQueryRuns(t *testing.T) {
    s, h := newTestServer(t)
    ch := s.Broker.Subscribe(events.Topic("t_test", "2026-10-18"))
    seen := make(chan []string, 1)
    go func() {
        var types []string
        for evt := range ch {
            types = append(types, evt.Type)
            if evt.Type == events.TypeRunSaved { break }
        }
        seen <- types
    }()

    req := map[string]any{"planDate": "2026-10-18", "input": lineInput(), "seed": 1, "maxIterations": 50}
    rr := do(t, h, http.MethodPost, "/v1/solve", req)
    require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
    var run store.Run
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
    require.NotEmpty(t, run.ID)
    require.Equal(t, "t_test", run.TenantID)
    require.Equal(t, 3, run.Indicators.Assigned)
    require.Empty(t, run.Unassigned)
    require.Equal(t, 2, run.Workers)
    require.Equal(t, opt.Algo, run.Algo)

    // Improvements stream first, then the saved run.
    select {
    case types := <-seen:
        require.Contains(t, types, events.TypeBestImproved)
        require.Equal(t, events.TypeRunSaved, types[len(types)-1])
    case <-time.After(2 * time.Second):
        t.Fatal("run.saved not published")
    }

    rr = do(t, h, http.MethodGet, "/v1/runs/"+run.ID, nil)
    require.Equal(t, http.StatusOK, rr.Code)

    rr = do(t, h, http.MethodGet, "/v1/runs?planDate=2026-10-18&limit=5", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    var list struct {
        Items      []store.Run `json:"items"`
        NextCursor string      `json:"nextCursor"`
    }
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
    require.Len(t, list.Items, 1)
    require.Empty(t, list.NextCursor)

    rr = do(t, h, http.MethodGet, "/v1/runs/best?planDate=2026-10-18", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    var best store.Run
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &best))
    require.Equal(t, run.ID, best.ID)
}

func TestSolveRejects(t *testing.T) {
    _, h := newTestServer(t)
    bad := lineInput()
    bad.Jobs[0].Location = 99
    cases := []struct {
        name string
        body any
    }{
        {"invalid input", map[string]any{"input": bad}},
        {"negative workers", map[string]any{"input": lineInput(), "workers": -1}},
        {"bad plan date", map[string]any{"input": lineInput(), "planDate": "18/10/2026"}},
        {"unknown field", map[string]any{"input": lineInput(), "algorithm": "greedy"}},
    }
    for _, c := range cases {
        t.Run(c.name, func(t *testing.T) {
            rr := do(t, h, http.MethodPost, "/v1/solve", c.body)
            require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
            var p Problem
            require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
            require.Equal(t, http.StatusBadRequest, p.Status)
            require.Equal(t, "/v1/solve", p.Instance)
        })
    }
}

func TestRunNotFound(t *testing.T) {
    _, h := newTestServer(t)
    rr := do(t, h, http.MethodGet, "/v1/runs/nope", nil)
    require.Equal(t, http.StatusNotFound, rr.Code)
    rr = do(t, h, http.MethodGet, "/v1/runs/best?planDate=2026-10-18", nil)
    require.Equal(t, http.StatusNotFound, rr.Code)
    rr = do(t, h, http.MethodGet, "/v1/runs/best", nil)
    require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunsBadCursor(t *testing.T) {
    _, h := newTestServer(t)
    rr := do(t, h, http.MethodGet, "/v1/runs?cursor=00000000-0000-0000-0000-000000000000", nil)
    require.Equal(t, http.StatusBadRequest, rr.Code)
    require.Contains(t, rr.Body.String(), "Invalid cursor")
}

func TestSolveHeaderTenantWins(t *testing.T) {
    _, h := newTestServer(t)
    req := map[string]any{"tenantId": "t_body", "planDate": "2026-10-18", "input": lineInput(), "seed": 1, "maxIterations": 20}
    rr := do(t, h, http.MethodPost, "/v1/solve", req)
    require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
    var run store.Run
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
    require.Equal(t, "t_test", run.TenantID)
}

func TestRank(t *testing.T) {
    _, h := newTestServer(t)
    body := map[string]any{
        "input": lineInput(),
        "a":     []opt.Assignment{{VehicleID: "v0", JobIDs: []string{"a", "b", "c"}}},
        "b":     []opt.Assignment{{VehicleID: "v0", JobIDs: []string{"a"}}, {VehicleID: "v1", JobIDs: []string{"b", "c"}}},
    }
    rr := do(t, h, http.MethodPost, "/v1/rank", body)
    require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
    var got ranking.Verdict
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
    require.Equal(t, "lexicographic", got.Mode)
    require.Equal(t, "a", got.Better)
    require.Equal(t, 1, got.Compare)
    require.Equal(t, 1, got.A.UsedVehicles)
    require.Equal(t, 2, got.B.UsedVehicles)

    body["b"] = body["a"]
    rr = do(t, h, http.MethodPost, "/v1/rank", body)
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
    require.Equal(t, "tie", got.Better)

    body["b"] = []opt.Assignment{{VehicleID: "v9"}}
    rr = do(t, h, http.MethodPost, "/v1/rank", body)
    require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
    _, h := newTestServer(t)
    _ = do(t, h, http.MethodGet, "/healthz", nil)
    rr := do(t, h, http.MethodGet, "/metrics", nil)
    require.Equal(t, http.StatusOK, rr.Code)
    require.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestStreamDeliversEvents(t *testing.T) {
    s, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()

    url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/runs/stream?tenantId=t_ws&planDate=2026-10-18"
    conn, _, err := websocket.DefaultDialer.Dial(url, nil)
    require.NoError(t, err)
    defer conn.Close()

    topic := events.Topic("t_ws", "2026-10-18")
    mb := s.Broker.(*events.MemoryBroker)
    require.Eventually(t, func() bool { return mb.Subscribers(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

    s.Broker.Publish(topic, events.Event{Type: events.TypeRunSaved, RunID: "r1"})
    _ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
    var evt events.Event
    require.NoError(t, conn.ReadJSON(&evt))
    require.Equal(t, events.TypeRunSaved, evt.Type)
    require.Equal(t, "r1", evt.RunID)

    require.NoError(t, conn.Close())
    require.Eventually(t, func() bool { return mb.Subscribers(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
}
