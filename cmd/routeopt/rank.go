package main

import (
    "encoding/json"
    "fmt"
    "os"

    "github.com/spf13/cobra"

    "routeopt/internal/model"
    "routeopt/internal/opt"
    "routeopt/internal/ranking"
)

func newRankCmd(a *app) *cobra.Command {
    var problem string
    cmd := &cobra.Command{
        Use:   "rank A.json B.json",
        Short: "Compare two route sets for a problem file",
        Args:  cobra.ExactArgs(2),
        RunE: func(cmd *cobra.Command, args []string) error {
            in, err := model.LoadInput(problem)
            if err != nil {
                return err
            }
            var sols [2]opt.Solution
            for i, path := range args {
                as, err := readAssignments(path)
                if err != nil {
                    return err
                }
                if sols[i], err = opt.FromAssignments(in, as); err != nil {
                    return fmt.Errorf("%s: %w", path, err)
                }
            }
            v := ranking.Judge(sols[0].Indicators, sols[1].Indicators)
            a.log.Debug().Str("mode", v.Mode).Int("compare", v.Compare).Msg("ranked")
            enc := json.NewEncoder(cmd.OutOrStdout())
            enc.SetIndent("", "  ")
            return enc.Encode(v)
        },
    }
    cmd.Flags().StringVarP(&problem, "problem", "p", "", "problem file (yaml or json)")
    _ = cmd.MarkFlagRequired("problem")
    return cmd
}

// readAssignments accepts a bare list of routes or a saved run's JSON.
func readAssignments(path string) ([]opt.Assignment, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return nil, err
    }
    var as []opt.Assignment
    if err := json.Unmarshal(data, &as); err == nil {
        return as, nil
    }
    var run struct {
        Routes []opt.Assignment `json:"routes"`
    }
    if err := json.Unmarshal(data, &run); err != nil {
        return nil, fmt.Errorf("%s: %w", path, err)
    }
    return run.Routes, nil
}
