package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"modsuite/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded recipe runs",
		Long:  "Without arguments, list recent runs newest first. With a run id, show that run's step results.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Recipes.RecordHistory {
				return errors.New("run history is disabled (recipes.record_history = false)")
			}
			store, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0], jsonOut)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					r.RecipeFile,
					r.ProfileID,
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Recipe", "Profile", "OK", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", ledger.DefaultListLimit, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print history as JSON")
	return cmd
}

func showRun(cmd *cobra.Command, store *ledger.Store, runID string, jsonOut bool) error {
	results, err := store.RunResults(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	if jsonOut {
		return writeJSON(cmd, results)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		kind := stepStatus(res.State)
		rows = append(rows, []string{
			strconv.Itoa(res.Index),
			res.Action,
			paint(string(res.State), statusKindColor(kind), colorize),
			stepDetail(res),
		})
	}
	fmt.Fprintln(out, tableView{
		headers: []string{"#", "Action", "State", "Detail"},
		aligns:  []columnAlignment{alignRight},
		rows:    rows,
		wrap:    80,
	}.render())
	return nil
}
