package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"modsuite/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, free space, profile, and ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Exclusive runs", statusInfo, yesNo(cfg.Recipes.ExclusiveRuns), colorize))
			fmt.Fprintln(out, renderStatusLine("Range enforcement", statusInfo, yesNo(cfg.Recipes.EnforceProfileRange), colorize))
			fmt.Fprintln(out, renderStatusLine("YAML sidecars", statusInfo, yesNo(cfg.Manifest.WriteYAML), colorize))
			if !preflight.Passed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
