package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"modsuite/internal/logging"
	"modsuite/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Show the log of the latest or a specific recipe run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.RunLogDir()

			var target logs.RunLog
			if len(args) == 1 {
				found, ok, err := logs.FindRun(dir, logging.RunLogPattern, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no run log mentions run %s", args[0])
				}
				target = found
			} else {
				all, err := logs.Find(dir, logging.RunLogPattern)
				if err != nil {
					return err
				}
				if len(all) == 0 {
					return fmt.Errorf("no run logs in %s", dir)
				}
				target = all[0]
			}

			stop := withInterrupt(cmd)
			defer stop()

			out := cmd.OutOrStdout()
			emit := func(batch []string) {
				for _, line := range batch {
					if ev, ok := logs.ParseEvent(line); ok && !raw {
						fmt.Fprintln(out, ev.String())
						continue
					}
					fmt.Fprintln(out, line)
				}
			}

			res, err := logs.Tail(cmd.Context(), target.Path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(res.Lines)
			for follow {
				res, err = logs.Tail(cmd.Context(), target.Path, logs.TailOptions{Offset: res.Offset, Follow: true, Wait: time.Second})
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				emit(res.Lines)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unformatted")
	return cmd
}
