package store

import (
	"context"
	"fmt"

	"github.com/roach88/qwire/internal/ir"
)

// BeginRun records a new run stamped with the next seq.
func (s *Store) BeginRun(ctx context.Context, label string) (Run, error) {
	run := Run{
		ID:          s.ids.Generate(),
		Label:       label,
		ToolVersion: ir.ToolVersion,
		IRVersion:   ir.IRVersion,
		Seq:         s.clock.Next(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, tool_version, ir_version, seq)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Label, run.ToolVersion, run.IRVersion, run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return run, nil
}

// WriteReport stores r. A report with Seq 0 is stamped with the next seq.
//
// Writes are idempotent on (run_id, op_key, metric): inserted is false when
// the run already holds a report for the op under that metric, and the
// existing row is left untouched.
func (s *Store) WriteReport(ctx context.Context, r Report) (inserted bool, err error) {
	params, err := marshalObject("params", r.Params)
	if err != nil {
		return false, err
	}
	total, err := marshalObject("total", r.Total)
	if err != nil {
		return false, err
	}
	sigma, err := marshalObject("sigma", r.Sigma)
	if err != nil {
		return false, err
	}
	if r.Seq == 0 {
		r.Seq = s.clock.Next()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_reports
			(run_id, op_key, op_name, metric, params, total, sigma, qubits, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, op_key, metric) DO NOTHING
	`, r.RunID, r.OpKey, r.OpName, r.Metric, params, total, sigma, r.Qubits, r.Seq)
	if err != nil {
		return false, fmt.Errorf("insert report %s/%s: %w", r.OpName, r.Metric, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
