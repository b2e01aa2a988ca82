package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"modsuite/internal/actions"
	"modsuite/internal/config"
	"modsuite/internal/logging"
	"modsuite/internal/recipe"
	"modsuite/internal/workflow"
)

type runOptions struct {
	profile string
	jsonOut bool
	strict  bool
	dryRun  bool
	watch   bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <recipe>",
		Short: "Execute a recipe file",
		Long: "Execute every step of a JSON or YAML recipe in order. A failing step is\n" +
			"reported and the run continues with the next one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := withInterrupt(cmd)
			defer stop()
			if opts.watch {
				return watchRecipe(cmd, ctx, args[0], opts)
			}
			return runRecipe(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Scale profile used when the recipe names none")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the run as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any step fails")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate every step without executing")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run the recipe whenever the file changes")
	return cmd
}

func runRecipe(cmd *cobra.Command, ctx *commandContext, path string, opts runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.baseLogger()
	if err != nil {
		return err
	}
	resolver, err := resolverFor(cfg, opts.profile)
	if err != nil {
		return err
	}

	if opts.dryRun {
		doc, err := recipe.Load(path)
		if err != nil {
			return err
		}
		registry, err := actions.NewRegistry(newPublisher(cfg, resolver, logger, nil))
		if err != nil {
			return err
		}
		runner := workflow.NewRunner(registry, resolver,
			workflow.WithRangeEnforcement(cfg.Recipes.EnforceProfileRange),
			workflow.WithRunnerLogger(logger),
		)
		plan := runner.Compile(doc)
		if err := printPlan(cmd, doc, plan, opts.jsonOut); err != nil {
			return err
		}
		if opts.strict && !plan.Valid() {
			return fmt.Errorf("recipe %s has invalid steps", path)
		}
		return nil
	}

	runLogger, closer, logPath, err := logging.OpenRunLog(logger, cfg.RunLogDir(), path, cfg.Logging.Level, time.Now())
	if err != nil {
		return err
	}
	defer closer.Close()
	logging.PruneLogs(runLogger, cfg.RunLogDir(), logging.RunLogPattern, cfg.Logging.RetentionDays, logPath)

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	var recorder workflow.Recorder
	if store != nil {
		defer store.Close()
		recorder = store
	}

	registry, err := actions.NewRegistry(newPublisher(cfg, resolver, runLogger, store))
	if err != nil {
		return err
	}
	runner := workflow.NewRunner(registry, resolver, runnerOptions(cfg, runLogger, recorder)...)

	run, err := runner.RunFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	if err := printRun(cmd, run, logPath, opts.jsonOut); err != nil {
		return err
	}
	if opts.strict && run.Failed() > 0 {
		return fmt.Errorf("%d of %d steps failed", run.Failed(), len(run.Results))
	}
	return nil
}

func runnerOptions(cfg *config.Config, logger *slog.Logger, rec workflow.Recorder) []workflow.RunnerOption {
	opts := []workflow.RunnerOption{
		workflow.WithRangeEnforcement(cfg.Recipes.EnforceProfileRange),
		workflow.WithRunnerLogger(logger),
	}
	if rec != nil {
		opts = append(opts, workflow.WithRecorder(rec))
	}
	if cfg.Recipes.ExclusiveRuns {
		opts = append(opts, workflow.WithRunLock(cfg.RunLockPath()))
	}
	return opts
}

func printRun(cmd *cobra.Command, run workflow.Run, logPath string, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, run)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Recipe:  %s\n", run.RecipeFile)
	fmt.Fprintf(out, "Profile: %s\n", run.ProfileID)
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(run.Results))
	for _, res := range run.Results {
		rows = append(rows, []string{
			strconv.Itoa(res.Index),
			res.Action,
			paint(statusKindLabel(stepStatus(res.State)), statusKindColor(stepStatus(res.State)), colorize),
			stepDetail(res),
		})
	}
	view := tableView{
		headers: []string{"#", "Action", "Result", "Detail"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		rows:    rows,
		caption: fmt.Sprintf("%d succeeded, %d failed in %s", run.Succeeded(), run.Failed(),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)),
		wrap: 80,
	}
	fmt.Fprintln(out, view.render())
	if logPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", logPath)
	}
	return nil
}

func stepDetail(res workflow.StepResult) string {
	if !res.OK || len(res.Outputs) == 0 {
		return res.Message
	}
	if len(res.Outputs) == 1 {
		return res.Message + ": " + res.Outputs[0]
	}
	return res.Message + "\n" + strings.Join(res.Outputs, "\n")
}

type planStep struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
	Valid  bool   `json:"valid"`
	Detail string `json:"detail"`
}

func printPlan(cmd *cobra.Command, doc *recipe.Document, plan workflow.Plan, jsonOut bool) error {
	steps := make([]planStep, 0, len(plan.Steps))
	for _, cs := range plan.Steps {
		ps := planStep{Index: cs.Step.Index, Action: cs.Step.Action, Valid: cs.Err == nil, Detail: "ready"}
		if cs.Err != nil {
			ps.Detail = cs.Err.Error()
		}
		steps = append(steps, ps)
	}
	if jsonOut {
		return writeJSON(cmd, map[string]any{
			"recipe_file": doc.Path,
			"profile_id":  plan.Profile.ID,
			"steps":       steps,
		})
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "Recipe:  %s\n", doc.Path)
	fmt.Fprintf(out, "Profile: %s\n", plan.Profile.ID)
	for _, ps := range steps {
		kind := statusOK
		if !ps.Valid {
			kind = statusWarn
		}
		label := fmt.Sprintf("step %d %s", ps.Index, ps.Action)
		fmt.Fprintln(out, renderStatusLine(label, kind, ps.Detail, colorize))
	}
	return nil
}

// watchBanner separates consecutive runs in watch mode.
func watchBanner(w io.Writer, path string, at time.Time) {
	fmt.Fprintf(w, "\n-- %s changed at %s --\n", filepath.Base(path), at.Format(time.TimeOnly))
}
