package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modsuite/internal/manifest"
)

// ManifestEntry is an indexed manifest.
type ManifestEntry struct {
	AMSID       string `json:"ams_id"`
	FilePath    string `json:"file_path"`
	FileSHA256  string `json:"file_sha256"`
	FileSize    int64  `json:"file_size"`
	SidecarPath string `json:"sidecar_path"`
	Action      string `json:"action,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	CreatedOn   string `json:"created_on"`
}

// IndexManifest records rec, written to sidecarPath, for digest lookups.
func (s *Store) IndexManifest(ctx context.Context, rec manifest.Record, sidecarPath string) error {
	if rec.AMSID == "" {
		return errors.New("index manifest: ams_id is empty")
	}
	var action, runID string
	if rec.Conversion != nil {
		action = rec.Conversion.Action
	}
	if rec.Source.RunID != nil {
		runID = *rec.Source.RunID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO manifests
            (ams_id, file_path, file_sha256, file_size, sidecar_path, action, run_id, created_on)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AMSID,
		rec.Output.FilePath,
		rec.Output.FileSHA256,
		rec.Output.FileSize,
		sidecarPath,
		nullableString(action),
		nullableString(runID),
		rec.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("index manifest: %w", err)
	}
	return nil
}

// FindBySHA256 returns every manifest describing content with the given
// digest, newest first.
func (s *Store) FindBySHA256(ctx context.Context, sha string) ([]ManifestEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ams_id, file_path, file_sha256, file_size, sidecar_path, action, run_id, created_on
         FROM manifests WHERE file_sha256 = ? ORDER BY created_on DESC, rowid DESC`, sha)
	if err != nil {
		return nil, fmt.Errorf("find by sha256: %w", err)
	}
	defer rows.Close()

	var out []ManifestEntry
	for rows.Next() {
		var (
			e      ManifestEntry
			action sql.NullString
			runID  sql.NullString
		)
		if err := rows.Scan(&e.AMSID, &e.FilePath, &e.FileSHA256, &e.FileSize, &e.SidecarPath, &action, &runID, &e.CreatedOn); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		e.Action = action.String
		e.RunID = runID.String
		out = append(out, e)
	}
	return out, rows.Err()
}
