package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"modsuite/internal/units"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List scale profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profiles := units.All()
			if jsonOut {
				return writeJSON(cmd, profiles)
			}
			rows := make([][]string, 0, len(profiles))
			for _, p := range profiles {
				marker := ""
				if p.ID == cfg.Scale.DefaultProfile {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					p.ID,
					p.Name,
					string(p.Unit),
					formatNumber(p.Min),
					formatNumber(p.Max),
					formatNumber(p.Step),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"", "ID", "Name", "Unit", "Min", "Max", "Step"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print profiles as JSON")
	return cmd
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
