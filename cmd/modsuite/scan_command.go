package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"modsuite/internal/scanning"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		write   bool
		jsonOut bool
		profile string
	)

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Classify an asset or summarize a directory of assets",
		Long: "Detect the type of a file and collect its size, digest, and type-specific\n" +
			"details. With --write the scan report is stored as the audit block of a\n" +
			"new sidecar. Directories are summarized and never get a sidecar.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := withInterrupt(cmd)
			defer stop()

			if write {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				logger, err := ctx.baseLogger()
				if err != nil {
					return err
				}
				resolver, err := resolverFor(cfg, profile)
				if err != nil {
					return err
				}
				store, err := openLedger(cfg)
				if err != nil {
					return err
				}
				if store != nil {
					defer store.Close()
				}
				scanner := scanning.NewScanner(newPublisher(cfg, resolver, logger, store), resolver.Default())
				report, record, err := scanner.WriteSidecar(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := printScan(cmd, report, jsonOut); err != nil {
					return err
				}
				if !jsonOut && record.AMSID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Sidecar written: %s\n", record.AMSID)
				}
				return nil
			}

			report, err := scanning.ScanPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printScan(cmd, report, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write a sidecar holding the scan report")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the scan report as JSON")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Scale profile recorded on written sidecars")
	return cmd
}

func printScan(cmd *cobra.Command, report scanning.Report, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, report.Audit())
	}
	out := cmd.OutOrStdout()
	if report.IsFolder() {
		s := report.Summary
		fmt.Fprintf(out, "Folder: %s\n", report.Path)
		rows := [][]string{
			{"files", fmt.Sprint(s.Files)},
			{"models", fmt.Sprint(s.Models)},
			{"images", fmt.Sprint(s.Images)},
			{"text", fmt.Sprint(s.Text)},
			{"binary", fmt.Sprint(s.Binary)},
		}
		fmt.Fprintln(out, renderTable([]string{"Type", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
		return nil
	}

	f := report.File
	fmt.Fprintf(out, "File: %s (%s)\n", f.Path, f.Type)
	keys := make([]string, 0, len(f.Details))
	for k := range f.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprint(f.Details[k])})
	}
	fmt.Fprintln(out, renderTable([]string{"Detail", "Value"}, rows, nil))
	return nil
}
