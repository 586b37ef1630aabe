package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/steveyegge/sleuth/internal/types"
)

// CreateInvestigation inserts a new investigation record
func (s *SQLiteStorage) CreateInvestigation(ctx context.Context, inv *types.Investigation) error {
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if inv.StartedAt.IsZero() {
		inv.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investigations (id, issue, status, rounds, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, inv.ID, inv.Issue, string(inv.Status), inv.Rounds, formatTime(inv.StartedAt))
	if err != nil {
		return fmt.Errorf("failed to insert investigation %s: %w", inv.ID, err)
	}
	return nil
}

// FinishInvestigation stores the final state of an investigation.
// FinishedAt defaults to now.
func (s *SQLiteStorage) FinishInvestigation(ctx context.Context, inv *types.Investigation) error {
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if inv.Status == types.InvestigationRunning {
		return fmt.Errorf("cannot finish investigation %s with status %s", inv.ID, inv.Status)
	}
	finishedAt := time.Now()
	if inv.FinishedAt != nil {
		finishedAt = *inv.FinishedAt
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE investigations
		SET status = ?, rounds = ?, theory = ?, summary = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(inv.Status), inv.Rounds, inv.Theory, inv.Summary, inv.Error, formatTime(finishedAt), inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update investigation %s: %w", inv.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("investigation not found: %s", inv.ID)
	}
	return nil
}

// GetInvestigation retrieves an investigation by ID. Returns nil if not found.
func (s *SQLiteStorage) GetInvestigation(ctx context.Context, id string) (*types.Investigation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, issue, status, rounds, theory, summary, error, started_at, finished_at
		FROM investigations
		WHERE id = ?
	`, id)

	inv, err := scanInvestigation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investigation %s: %w", id, err)
	}
	return inv, nil
}

// ListInvestigations returns investigations, most recent first.
// A limit <= 0 returns all of them.
func (s *SQLiteStorage) ListInvestigations(ctx context.Context, limit int) ([]*types.Investigation, error) {
	query := `
		SELECT id, issue, status, rounds, theory, summary, error, started_at, finished_at
		FROM investigations
		ORDER BY started_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investigations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*types.Investigation
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investigation: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investigation rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvestigation(row scanner) (*types.Investigation, error) {
	var inv types.Investigation
	var status, startedAt string
	var finishedAt sql.NullString

	err := row.Scan(&inv.ID, &inv.Issue, &status, &inv.Rounds, &inv.Theory,
		&inv.Summary, &inv.Error, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	inv.Status = types.InvestigationStatus(status)
	if inv.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		inv.FinishedAt = &t
	}
	return &inv, nil
}

// RecordResult appends an experiment result to an investigation's lab log.
// The entry's Seq is assigned here.
func (s *SQLiteStorage) RecordResult(ctx context.Context, entry *types.LabEntry) error {
	if entry.InvestigationID == "" {
		return fmt.Errorf("investigation id is required")
	}
	if !entry.Verdict.IsValid() {
		return fmt.Errorf("invalid verdict: %d", int(entry.Verdict))
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	// One statement, so concurrent appends cannot reuse a seq
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO lab_results (
			investigation_id, seq, round, theory, experiment, command,
			verdict, summary, detailed_log, created_at
		)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?
		FROM lab_results
		WHERE investigation_id = ?
		RETURNING seq
	`, entry.InvestigationID, entry.Round, entry.Theory, entry.Experiment, entry.Command,
		entry.Verdict.String(), entry.Summary, entry.DetailedLog, formatTime(entry.CreatedAt),
		entry.InvestigationID)

	if err := row.Scan(&entry.Seq); err != nil {
		return fmt.Errorf("failed to record result for investigation %s: %w", entry.InvestigationID, err)
	}
	return nil
}

// GetLabLog returns an investigation's results in execution order.
func (s *SQLiteStorage) GetLabLog(ctx context.Context, investigationID string) ([]*types.LabEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT investigation_id, seq, round, theory, experiment, command,
		       verdict, summary, detailed_log, created_at
		FROM lab_results
		WHERE investigation_id = ?
		ORDER BY seq ASC
	`, investigationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*types.LabEntry
	for rows.Next() {
		var entry types.LabEntry
		var verdict, createdAt string
		if err := rows.Scan(&entry.InvestigationID, &entry.Seq, &entry.Round, &entry.Theory,
			&entry.Experiment, &entry.Command, &verdict, &entry.Summary, &entry.DetailedLog, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan lab result: %w", err)
		}
		if entry.Verdict, err = types.ParseVerdict(verdict); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab result rows: %w", err)
	}
	return result, nil
}
