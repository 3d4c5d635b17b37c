package main

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "routeopt/internal/model"
    "routeopt/internal/opt"
    "routeopt/internal/store"
)

func newSolveCmd(a *app) *cobra.Command {
    var (
        problem  string
        workers  int
        seed     int64
        tenant   string
        planDate string
        save     bool
    )
    cmd := &cobra.Command{
        Use:   "solve",
        Short: "Search routes for a problem file and print the run",
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
            defer stop()

            in, err := model.LoadInput(problem)
            if err != nil {
                return err
            }
            o := a.cfg.Search.Options()
            o.Logger = &a.log
            if seed != 0 { o.Seed = seed }
            if workers <= 0 { workers = a.cfg.Search.Workers }

            sol, ms, err := opt.SolveParallel(ctx, in, o, workers, nil)
            if err != nil {
                return fmt.Errorf("solve: %w", err)
            }
            run := store.RunFromSolution(in, tenant, planDate, sol, ms)
            if save {
                if run, err = saveRun(ctx, a, run); err != nil {
                    return err
                }
            }
            enc := json.NewEncoder(cmd.OutOrStdout())
            enc.SetIndent("", "  ")
            return enc.Encode(run)
        },
    }
    cmd.Flags().StringVarP(&problem, "problem", "p", "", "problem file (yaml or json)")
    cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel search trajectories (default from config)")
    cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default from config, else time based)")
    cmd.Flags().StringVar(&tenant, "tenant", "t_demo", "tenant recorded on the run")
    cmd.Flags().StringVar(&planDate, "plan-date", "", "plan date recorded on the run (YYYY-MM-DD)")
    cmd.Flags().BoolVar(&save, "save", false, "persist the run in the configured store")
    _ = cmd.MarkFlagRequired("problem")
    return cmd
}

func saveRun(ctx context.Context, a *app, run store.Run) (store.Run, error) {
    st, err := store.NewFromURL(ctx, a.cfg.Store.DatabaseURL)
    if err != nil {
        return run, fmt.Errorf("open store: %w", err)
    }
    defer st.Close()
    saved, err := st.SaveRun(ctx, run)
    if err != nil {
        return run, fmt.Errorf("save run: %w", err)
    }
    a.log.Info().Str("run", saved.ID).Msg("run saved")
    return saved, nil
}
