package main

import (
    "fmt"

    "github.com/spf13/cobra"

    "routeopt/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "version",
        Short: "Print build information",
        // skip config loading
        PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
        Run: func(cmd *cobra.Command, args []string) {
            fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
        },
    }
}
