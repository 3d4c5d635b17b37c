package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "routeopt/internal/api"
    "routeopt/internal/events"
    "routeopt/internal/store"
    "routeopt/internal/webhooks"
)

func newServeCmd(a *app) *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP API",
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
            defer stop()
            return serve(ctx, a)
        },
    }
}

func serve(ctx context.Context, a *app) error {
    st, err := store.NewFromURL(ctx, a.cfg.Store.DatabaseURL)
    if err != nil {
        return fmt.Errorf("open store: %w", err)
    }
    defer st.Close()

    var broker events.Broker = events.NewMemoryBroker()
    if a.cfg.Events.RedisURL != "" {
        rb, err := events.NewRedisBroker(ctx, a.cfg.Events.RedisURL, &a.log)
        if err != nil {
            return fmt.Errorf("redis broker: %w", err)
        }
        defer rb.Close()
        broker = rb
    }
    if ec := a.cfg.Events; ec.WebhookURL != "" {
        sender := webhooks.NewSender(ec.WebhookURL, ec.WebhookSecret, ec.WebhookMaxAttempts, &a.log)
        go sender.Run(ctx)
        broker = webhooks.Forward(broker, sender)
    }
    broker = events.NewThrottled(broker, a.cfg.Events.PublishPerSecond, a.cfg.Events.Burst, events.TypeBestImproved)

    s := api.NewServer(st, broker, a.cfg.Search, &a.log)
    srv := &http.Server{
        Addr:              a.cfg.HTTP.Addr,
        Handler:           s.Handler(),
        ReadHeaderTimeout: time.Duration(a.cfg.HTTP.ReadHeaderTimeoutMs) * time.Millisecond,
    }

    errCh := make(chan error, 1)
    go func() {
        a.log.Info().Str("addr", srv.Addr).Msg("API listening")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }
    a.log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return srv.Shutdown(shutdownCtx)
}
