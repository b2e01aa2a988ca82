package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modsuite/internal/workflow"
)

// DefaultListLimit bounds ListRuns when no limit is given.
const DefaultListLimit = 20

// RunSummary is one row of run history.
type RunSummary struct {
	ID         string    `json:"run_id"`
	RecipeFile string    `json:"recipe_file"`
	ProfileID  string    `json:"profile_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// RecordRun stores run and its step results, replacing any earlier record
// with the same ID.
func (s *Store) RecordRun(ctx context.Context, run workflow.Run) error {
	if run.ID == "" {
		return errors.New("record run: run id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, recipe_file, profile_id, started_at, finished_at, succeeded, failed)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		nullableString(run.RecipeFile),
		run.ProfileID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Succeeded(),
		run.Failed(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range run.Results {
		outputs := res.Outputs
		if outputs == nil {
			outputs = []string{}
		}
		encoded, err := json.Marshal(outputs)
		if err != nil {
			return fmt.Errorf("marshal outputs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO step_results (run_id, step_index, action, ok, state, message, outputs_json, duration_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			res.Index,
			res.Action,
			boolToInt(res.OK),
			string(res.State),
			res.Message,
			string(encoded),
			res.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert step %d: %w", res.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipe_file, profile_id, started_at, finished_at, succeeded, failed
         FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum        RunSummary
			recipeFile sql.NullString
			started    string
			finished   string
		)
		if err := rows.Scan(&sum.ID, &recipeFile, &sum.ProfileID, &started, &finished, &sum.Succeeded, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.RecipeFile = recipeFile.String
		sum.StartedAt, _ = parseTimeString(started)
		sum.FinishedAt, _ = parseTimeString(finished)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// RunResults returns the recorded step results of runID in step order. An
// unknown run yields an empty slice.
func (s *Store) RunResults(ctx context.Context, runID string) ([]workflow.StepResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_index, action, ok, state, message, outputs_json, duration_ms
         FROM step_results WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	defer rows.Close()

	out := []workflow.StepResult{}
	for rows.Next() {
		var (
			res      workflow.StepResult
			ok       int
			state    string
			outputs  string
			duration int64
		)
		if err := rows.Scan(&res.Index, &res.Action, &ok, &state, &res.Message, &outputs, &duration); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		res.OK = ok != 0
		res.State = workflow.StepState(state)
		res.Duration = time.Duration(duration) * time.Millisecond
		if err := json.Unmarshal([]byte(outputs), &res.Outputs); err != nil || res.Outputs == nil {
			res.Outputs = []string{}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
