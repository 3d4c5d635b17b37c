package main

import (
    "fmt"

    "github.com/rs/zerolog"
    "github.com/spf13/cobra"

    "routeopt/internal/config"
    "routeopt/internal/logging"
)

type app struct {
    cfgPath string
    cfg     *config.Config
    log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
    a := &app{}
    root := &cobra.Command{
        Use:           "routeopt",
        Short:         "Vehicle routing search and solution ranking",
        SilenceUsage:  true,
        SilenceErrors: true,
        PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
            cfg, err := config.Load(a.cfgPath)
            if err != nil {
                return fmt.Errorf("load config: %w", err)
            }
            a.cfg = cfg
            a.log = logging.NewWithWriter(cfg.Log, cmd.Name(), cmd.ErrOrStderr())
            return nil
        },
    }
    root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "configuration file (yaml or json)")
    root.AddCommand(newSolveCmd(a), newRankCmd(a), newServeCmd(a), newWatchCmd(a), newVersionCmd())
    return root
}
