package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"modsuite/internal/digest"
	"modsuite/internal/ledger"
)

type digestRow struct {
	Path      string                 `json:"path"`
	SHA256    string                 `json:"sha256"`
	Size      int64                  `json:"size"`
	Manifests []ledger.ManifestEntry `json:"manifests,omitempty"`
}

func newDigestCommand(ctx *commandContext) *cobra.Command {
	var (
		lookup  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "digest <file>...",
		Short: "Print the SHA-256 digest and size of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *ledger.Store
			if lookup {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if !cfg.Recipes.RecordHistory {
					return errors.New("--lookup needs recipes.record_history enabled")
				}
				store, err = openLedger(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			rows := make([]digestRow, 0, len(args))
			for _, path := range args {
				sum, size, err := digest.File(path)
				if err != nil {
					return err
				}
				row := digestRow{Path: path, SHA256: sum, Size: size}
				if store != nil {
					row.Manifests, err = store.FindBySHA256(cmd.Context(), sum)
					if err != nil {
						return err
					}
				}
				rows = append(rows, row)
			}

			if jsonOut {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if !lookup {
				for _, row := range rows {
					fmt.Fprintf(out, "%s  %s\n", row.SHA256, row.Path)
				}
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				if len(row.Manifests) == 0 {
					table = append(table, []string{row.Path, strconv.FormatInt(row.Size, 10), "-", "not indexed"})
					continue
				}
				for _, m := range row.Manifests {
					table = append(table, []string{row.Path, strconv.FormatInt(row.Size, 10), m.AMSID, m.FilePath})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Bytes", "Manifest", "Recorded as"},
				table,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&lookup, "lookup", false, "List indexed manifests with the same digest")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}
