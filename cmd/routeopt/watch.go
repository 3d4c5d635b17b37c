package main

import (
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gorilla/websocket"
    "github.com/spf13/cobra"

    "routeopt/internal/events"
)

func newWatchCmd(a *app) *cobra.Command {
    var (
        server   string
        tenant   string
        planDate string
        limit    int
    )
    cmd := &cobra.Command{
        Use:   "watch",
        Short: "Stream run events from a running API",
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
            defer stop()

            u, err := url.Parse(server)
            if err != nil {
                return fmt.Errorf("server url: %w", err)
            }
            switch u.Scheme {
            case "https":
                u.Scheme = "wss"
            default:
                u.Scheme = "ws"
            }
            u.Path = "/v1/runs/stream"
            q := url.Values{}
            q.Set("planDate", planDate)
            u.RawQuery = q.Encode()
            hdr := http.Header{}
            hdr.Set("X-Tenant-Id", tenant)

            c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), hdr)
            if err != nil {
                return fmt.Errorf("dial %s: %w", u, err)
            }
            defer func() { _ = c.Close() }()
            a.log.Info().Str("url", u.String()).Msg("watching")

            go func() {
                <-ctx.Done()
                _ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
                _ = c.Close()
            }()

            enc := json.NewEncoder(cmd.OutOrStdout())
            for n := 0; limit <= 0 || n < limit; n++ {
                var evt events.Event
                if err := c.ReadJSON(&evt); err != nil {
                    if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
                        return nil
                    }
                    return fmt.Errorf("read: %w", err)
                }
                if err := enc.Encode(evt); err != nil {
                    return err
                }
            }
            return nil
        },
    }
    cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "API base URL")
    cmd.Flags().StringVar(&tenant, "tenant", "t_demo", "tenant to watch")
    cmd.Flags().StringVar(&planDate, "plan-date", "", "plan date to watch")
    cmd.Flags().IntVar(&limit, "max", 0, "exit after this many events (0 streams forever)")
    return cmd
}
