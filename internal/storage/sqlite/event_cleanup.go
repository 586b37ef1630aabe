package sqlite

import (
	"context"
	"fmt"
	"time"
)

// EventCounts holds event count statistics for monitoring
type EventCounts struct {
	TotalEvents            int
	EventsByInvestigation  map[string]int
	EventsBySeverity       map[string]int
	EventsByType           map[string]int
	Investigations         int
	InvestigationsByStatus map[string]int
}

// CleanupEventsByAge deletes events older than the retention period.
// Info and warning events are deleted after retentionDays, error events after
// errorRetentionDays. Deletions are batched (batchSize events per statement).
func (s *SQLiteStorage) CleanupEventsByAge(ctx context.Context, retentionDays, errorRetentionDays, batchSize int) (int, error) {
	if retentionDays < 0 || errorRetentionDays < 0 {
		return 0, fmt.Errorf("retention days cannot be negative")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	totalDeleted := 0

	regularCutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.deleteOldEventsBatch(ctx, regularCutoff, []string{"info", "warning"}, batchSize)
	if err != nil {
		return totalDeleted, fmt.Errorf("failed to delete old regular events: %w", err)
	}
	totalDeleted += deleted

	errorCutoff := time.Now().AddDate(0, 0, -errorRetentionDays)
	deleted, err = s.deleteOldEventsBatch(ctx, errorCutoff, []string{"error"}, batchSize)
	if err != nil {
		return totalDeleted, fmt.Errorf("failed to delete old error events: %w", err)
	}
	totalDeleted += deleted

	return totalDeleted, nil
}

// deleteOldEventsBatch deletes events older than cutoff with specified severities in batches
func (s *SQLiteStorage) deleteOldEventsBatch(ctx context.Context, cutoff time.Time, severities []string, batchSize int) (int, error) {
	totalDeleted := 0

	severityPlaceholders := ""
	for i := range severities {
		if i > 0 {
			severityPlaceholders += ", "
		}
		severityPlaceholders += "?"
	}
	query := fmt.Sprintf(`
		DELETE FROM events
		WHERE rowid IN (
			SELECT rowid FROM events
			WHERE timestamp < ?
			AND severity IN (%s)
			ORDER BY timestamp ASC
			LIMIT ?
		)
	`, severityPlaceholders)

	args := []interface{}{formatTime(cutoff)}
	for _, sev := range severities {
		args = append(args, sev)
	}
	args = append(args, batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}

		totalDeleted += int(rowsAffected)

		// If we deleted fewer than batchSize, we're done
		if rowsAffected < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// CleanupEventsByInvestigationLimit enforces a per-investigation event limit.
// For each investigation over the limit, its oldest non-error events are
// deleted. Error events are exempt. A limit of 0 means unlimited.
func (s *SQLiteStorage) CleanupEventsByInvestigationLimit(ctx context.Context, limit, batchSize int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("per-investigation limit cannot be negative")
	}
	if limit == 0 {
		return 0, nil
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT investigation_id, COUNT(*) AS event_count
		FROM events
		GROUP BY investigation_id
		HAVING event_count > ?
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to query investigation event counts: %w", err)
	}

	type overLimit struct {
		investigationID string
		eventCount      int
	}
	var over []overLimit
	for rows.Next() {
		var o overLimit
		if err := rows.Scan(&o.investigationID, &o.eventCount); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan investigation count: %w", err)
		}
		over = append(over, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("error iterating investigation counts: %w", err)
	}
	_ = rows.Close()

	totalDeleted := 0
	for _, o := range over {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		deleted, err := s.deleteOldestEventsForInvestigation(ctx, o.investigationID, o.eventCount-limit, batchSize)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to delete events for investigation %s: %w", o.investigationID, err)
		}
		totalDeleted += deleted
	}

	return totalDeleted, nil
}

// deleteOldestEventsForInvestigation deletes up to count of the oldest non-error events of one investigation
func (s *SQLiteStorage) deleteOldestEventsForInvestigation(ctx context.Context, investigationID string, count, batchSize int) (int, error) {
	totalDeleted := 0
	remaining := count

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		limitThisBatch := batchSize
		if remaining < batchSize {
			limitThisBatch = remaining
		}

		result, err := s.db.ExecContext(ctx, `
			DELETE FROM events
			WHERE rowid IN (
				SELECT rowid FROM events
				WHERE investigation_id = ?
				AND severity != 'error'
				ORDER BY timestamp ASC
				LIMIT ?
			)
		`, investigationID, limitThisBatch)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}

		totalDeleted += int(rowsAffected)
		remaining -= int(rowsAffected)

		// Fewer than requested means only error events are left
		if rowsAffected < int64(limitThisBatch) {
			break
		}
	}

	return totalDeleted, nil
}

// GetEventCounts returns event and investigation count statistics
func (s *SQLiteStorage) GetEventCounts(ctx context.Context) (*EventCounts, error) {
	counts := &EventCounts{
		EventsByInvestigation:  make(map[string]int),
		EventsBySeverity:       make(map[string]int),
		EventsByType:           make(map[string]int),
		InvestigationsByStatus: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&counts.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total event count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM investigations").Scan(&counts.Investigations); err != nil {
		return nil, fmt.Errorf("failed to get investigation count: %w", err)
	}

	groups := []struct {
		query string
		dest  map[string]int
	}{
		{"SELECT investigation_id, COUNT(*) FROM events GROUP BY investigation_id", counts.EventsByInvestigation},
		{"SELECT severity, COUNT(*) FROM events GROUP BY severity", counts.EventsBySeverity},
		{"SELECT type, COUNT(*) FROM events GROUP BY type", counts.EventsByType},
		{"SELECT status, COUNT(*) FROM investigations GROUP BY status", counts.InvestigationsByStatus},
	}
	for _, g := range groups {
		if err := s.countGroups(ctx, g.query, g.dest); err != nil {
			return nil, err
		}
	}

	return counts, nil
}

func (s *SQLiteStorage) countGroups(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan count: %w", err)
		}
		dest[key] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating counts: %w", err)
	}
	return nil
}

// VacuumDatabase runs the VACUUM command to reclaim disk space
func (s *SQLiteStorage) VacuumDatabase(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
