package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

const reportColumns = `run_id, op_key, op_name, metric, params, total, sigma, qubits, seq`

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, tool_version, ir_version, seq
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Label, &r.ToolVersion, &r.IRVersion, &r.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns every run in seq order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, tool_version, ir_version, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Label, &r.ToolVersion, &r.IRVersion, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the reports written in a run, in seq order.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]Report, error) {
	return s.queryReports(ctx, `
		SELECT `+reportColumns+`
		FROM cost_reports
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC
	`, runID)
}

// ReadByOp returns every report for one op identity under a metric, oldest
// first.
func (s *Store) ReadByOp(ctx context.Context, opKey, metric string) ([]Report, error) {
	return s.queryReports(ctx, `
		SELECT `+reportColumns+`
		FROM cost_reports
		WHERE op_key = ? AND metric = ?
		ORDER BY seq ASC, id ASC
	`, opKey, metric)
}

// History returns every report for ops named opName under a metric, oldest
// first. Unlike ReadByOp it spans source revisions of a definition, whose
// keys differ.
func (s *Store) History(ctx context.Context, opName, metric string) ([]Report, error) {
	return s.queryReports(ctx, `
		SELECT `+reportColumns+`
		FROM cost_reports
		WHERE op_name = ? AND metric = ?
		ORDER BY seq ASC, id ASC
	`, opName, metric)
}

// MaxSeq returns the highest seq stored, or 0 for an empty store.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM runs), 0),
			COALESCE((SELECT MAX(seq) FROM cost_reports), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

func (s *Store) queryReports(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		var r Report
		var params, total, sigma string
		if err := rows.Scan(&r.RunID, &r.OpKey, &r.OpName, &r.Metric, &params, &total, &sigma, &r.Qubits, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if r.Params, err = unmarshalObject("params", params); err != nil {
			return nil, err
		}
		if r.Total, err = unmarshalObject("total", total); err != nil {
			return nil, err
		}
		if r.Sigma, err = unmarshalObject("sigma", sigma); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}
