package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"modsuite/internal/logging"
	"modsuite/internal/recipe"
	"modsuite/internal/services"
	"modsuite/internal/units"
	"modsuite/internal/workflow"
)

type fakeAction struct {
	name    string
	events  *[]string
	compile func(step recipe.Step, env workflow.CompileEnv) error
	run     func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error)
}

func (a *fakeAction) Name() string { return a.name }

func (a *fakeAction) Compile(step recipe.Step, env workflow.CompileEnv) (workflow.Task, error) {
	*a.events = append(*a.events, fmt.Sprintf("compile:%d", step.Index))
	if a.compile != nil {
		if err := a.compile(step, env); err != nil {
			return nil, err
		}
	}
	return workflow.TaskFunc(func(ctx context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		*a.events = append(*a.events, fmt.Sprintf("run:%d", rc.StepIndex))
		if a.run != nil {
			return a.run(ctx, rc)
		}
		return workflow.Outcome{Outputs: []string{fmt.Sprintf("out-%d", rc.StepIndex)}}, nil
	}), nil
}

func newRunner(t *testing.T, events *[]string, opts ...workflow.RunnerOption) *workflow.Runner {
	t.Helper()
	registry, err := workflow.NewRegistry(
		&fakeAction{name: "make", events: events},
		&fakeAction{name: "strict", events: events, compile: func(step recipe.Step, _ workflow.CompileEnv) error {
			_, err := step.Params.RequireFloat("size")
			return err
		}},
		&fakeAction{name: "boom", events: events, run: func(context.Context, workflow.RunContext) (workflow.Outcome, error) {
			panic("collaborator exploded")
		}},
		&fakeAction{name: "fail", events: events, run: func(context.Context, workflow.RunContext) (workflow.Outcome, error) {
			return workflow.Outcome{Outputs: []string{"partial"}}, errors.New("disk full")
		}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	resolver, err := units.NewResolver("normal_m")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	base := []workflow.RunnerOption{
		workflow.WithRunnerLogger(logging.NewNop()),
		workflow.WithRunIDs(func() string { return "run-test" }),
	}
	return workflow.NewRunner(registry, resolver, append(base, opts...)...)
}

func parse(t *testing.T, data string) *recipe.Document {
	t.Helper()
	doc, err := recipe.Parse([]byte(data), recipe.FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRunReturnsOneResultPerStepInOrder(t *testing.T) {
	var events []string
	runner := newRunner(t, &events)
	doc := parse(t, `{"steps": [
		{"action": "make"},
		{"action": "bogus"},
		"not a record",
		{"action": "strict", "size": "big"},
		{"action": "boom"},
		{"action": "fail"},
		{"action": "make"}
	]}`)

	run := runner.Run(context.Background(), doc)
	if len(run.Results) != len(doc.Steps) {
		t.Fatalf("expected %d results, got %d", len(doc.Steps), len(run.Results))
	}
	type want struct {
		action  string
		ok      bool
		message string
		state   workflow.StepState
	}
	wants := []want{
		{"make", true, "ok", workflow.StateSucceeded},
		{"bogus", false, "Unknown action", workflow.StateRejected},
		{recipe.InvalidAction, false, "step must be a keyed record", workflow.StateRejected},
		{"strict", false, "size must be a number", workflow.StateRejected},
		{"boom", false, "panic: collaborator exploded", workflow.StateFailed},
		{"fail", false, "disk full", workflow.StateFailed},
		{"make", true, "ok", workflow.StateSucceeded},
	}
	for i, w := range wants {
		got := run.Results[i]
		if got.Index != i || got.Action != w.action || got.OK != w.ok || got.Message != w.message || got.State != w.state {
			t.Fatalf("result %d = %+v, want %+v", i, got, w)
		}
		if !got.OK && len(got.Outputs) != 0 {
			t.Fatalf("failed result %d must have no outputs, got %v", i, got.Outputs)
		}
		if got.Outputs == nil {
			t.Fatalf("result %d outputs should be empty, not nil", i)
		}
	}
	if run.Results[6].Outputs[0] != "out-6" {
		t.Fatalf("unexpected outputs %v", run.Results[6].Outputs)
	}
	if run.Succeeded() != 2 || run.Failed() != 5 || run.OK() {
		t.Fatalf("unexpected tallies: ok=%d failed=%d", run.Succeeded(), run.Failed())
	}
	if run.ID != "run-test" {
		t.Fatalf("unexpected run id %q", run.ID)
	}
}

func TestEveryStepCompilesBeforeDispatch(t *testing.T) {
	var events []string
	runner := newRunner(t, &events)
	doc := parse(t, `{"steps": [{"action": "make"}, {"action": "strict", "size": 2}, {"action": "make"}]}`)
	runner.Run(context.Background(), doc)

	want := "compile:0,compile:1,compile:2,run:0,run:1,run:2"
	if got := strings.Join(events, ","); got != want {
		t.Fatalf("events = %s, want %s", got, want)
	}
}

func TestStepWithoutActionIsUnknown(t *testing.T) {
	var events []string
	runner := newRunner(t, &events)
	run := runner.Run(context.Background(), parse(t, `{"steps": [{"size": 1}, {"action": "  "}]}`))
	for _, res := range run.Results {
		if res.OK || res.Action != recipe.InvalidAction || res.Message != workflow.UnknownActionMessage {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if len(events) != 0 {
		t.Fatalf("no action should compile, got %v", events)
	}
}

func TestValidationFailureNeverDispatches(t *testing.T) {
	var events []string
	runner := newRunner(t, &events)
	runner.Run(context.Background(), parse(t, `{"steps": [{"action": "strict"}]}`))
	for _, e := range events {
		if strings.HasPrefix(e, "run:") {
			t.Fatalf("rejected step was dispatched: %v", events)
		}
	}
}

func TestProfileResolution(t *testing.T) {
	var events []string
	var seen []string
	registry, _ := workflow.NewRegistry(&fakeAction{name: "probe", events: &events, run: func(_ context.Context, rc workflow.RunContext) (workflow.Outcome, error) {
		seen = append(seen, rc.Profile.ID+"|"+rc.RunID)
		return workflow.Outcome{}, nil
	}})
	resolver, _ := units.NewResolver("large_scene")
	runner := workflow.NewRunner(registry, resolver, workflow.WithRunIDs(func() string { return "r1" }))

	run := runner.Run(context.Background(), parse(t, `{"scale_profile": "small_mm", "steps": [{"action": "probe"}]}`))
	if run.ProfileID != "small_mm" {
		t.Fatalf("expected document profile, got %s", run.ProfileID)
	}
	runner.Run(context.Background(), parse(t, `{"scale_profile": "nope", "steps": [{"action": "probe"}]}`))
	if strings.Join(seen, ",") != "small_mm|r1,large_scene|r1" {
		t.Fatalf("unexpected profiles %v", seen)
	}
}

func TestCancelledContextFailsRemainingSteps(t *testing.T) {
	var events []string
	ctx, cancel := context.WithCancel(context.Background())
	registry, _ := workflow.NewRegistry(&fakeAction{name: "cancel", events: &events, run: func(context.Context, workflow.RunContext) (workflow.Outcome, error) {
		cancel()
		return workflow.Outcome{Message: "cancelled the run"}, nil
	}}, &fakeAction{name: "make", events: &events})
	runner := workflow.NewRunner(registry, nil)

	run := runner.Run(ctx, parse(t, `{"steps": [{"action": "cancel"}, {"action": "make"}, {"action": "make"}]}`))
	if len(run.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(run.Results))
	}
	if !run.Results[0].OK || run.Results[0].Message != "cancelled the run" {
		t.Fatalf("unexpected first result %+v", run.Results[0])
	}
	for _, res := range run.Results[1:] {
		if res.OK || res.State != workflow.StateFailed || !strings.Contains(res.Message, "cancelled") {
			t.Fatalf("expected cancelled failure, got %+v", res)
		}
	}
}

type memoryRecorder struct {
	runs []workflow.Run
	err  error
}

func (m *memoryRecorder) RecordRun(_ context.Context, run workflow.Run) error {
	m.runs = append(m.runs, run)
	return m.err
}

func TestRecorderAndObserver(t *testing.T) {
	var events []string
	rec := &memoryRecorder{err: errors.New("ledger offline")}
	var observed []int
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runner := newRunner(t, &events,
		workflow.WithRecorder(rec),
		workflow.WithStepObserver(func(r workflow.StepResult) { observed = append(observed, r.Index) }),
		workflow.WithRunnerClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
	)
	run := runner.Run(context.Background(), parse(t, `{"steps": [{"action": "make"}, {"action": "bogus"}]}`))

	if len(rec.runs) != 1 || rec.runs[0].ID != run.ID {
		t.Fatalf("recorder not called with run: %+v", rec.runs)
	}
	if fmt.Sprint(observed) != "[0 1]" {
		t.Fatalf("unexpected observer order %v", observed)
	}
	if !run.FinishedAt.After(run.StartedAt) {
		t.Fatalf("expected finish after start: %v %v", run.StartedAt, run.FinishedAt)
	}
}

func TestRunFileMalformedRecipeProducesNoResults(t *testing.T) {
	var events []string
	runner := newRunner(t, &events)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"steps": {"action": "make"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	run, err := runner.RunFile(context.Background(), path)
	if !errors.Is(err, services.ErrMalformedRecipe) {
		t.Fatalf("expected malformed recipe, got %v", err)
	}
	if len(run.Results) != 0 || len(events) != 0 {
		t.Fatalf("nothing should run: results=%v events=%v", run.Results, events)
	}
}

func TestRunFileHonoursLock(t *testing.T) {
	var events []string
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "modsuite.lock")
	path := filepath.Join(dir, "ok.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - action: make\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	held, err := workflow.AcquireRunLock(lockPath)
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	runner := newRunner(t, &events, workflow.WithRunLock(lockPath))
	if _, err := runner.RunFile(context.Background(), path); !errors.Is(err, workflow.ErrRunInProgress) {
		t.Fatalf("expected lock contention, got %v", err)
	}
	if err := held.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	run, err := runner.RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if run.RecipeFile != path || len(run.Results) != 1 || !run.Results[0].OK {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	var events []string
	if _, err := workflow.NewRegistry(&fakeAction{name: "a", events: &events}, &fakeAction{name: "a", events: &events}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	r, err := workflow.NewRegistry(&fakeAction{name: "b", events: &events}, &fakeAction{name: "a", events: &events})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if strings.Join(r.Names(), ",") != "b,a" {
		t.Fatalf("unexpected names %v", r.Names())
	}
}

func TestRangeEnforcementFlowsToCompileEnv(t *testing.T) {
	var events []string
	var envs []workflow.CompileEnv
	registry, _ := workflow.NewRegistry(&fakeAction{name: "dim", events: &events, compile: func(_ recipe.Step, env workflow.CompileEnv) error {
		envs = append(envs, env)
		return env.CheckRange("diameter", 50)
	}})
	resolver, _ := units.NewResolver("normal_m")

	run := workflow.NewRunner(registry, resolver, workflow.WithRangeEnforcement(true)).Run(context.Background(), parse(t, `{"steps": [{"action": "dim"}]}`))
	if run.Results[0].OK {
		t.Fatal("50 m is outside normal_m and enforcement is on")
	}
	run = workflow.NewRunner(registry, resolver).Run(context.Background(), parse(t, `{"steps": [{"action": "dim"}]}`))
	if !run.Results[0].OK {
		t.Fatalf("enforcement is off by default: %+v", run.Results[0])
	}
}
