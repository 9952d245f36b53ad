package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"watchscout-engine/internal/domain"
)

func RecordRun(ctx context.Context, db *sql.DB, s domain.RunStats) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO run_logs(started_at, duration_seconds, sources_checked, sources_failed,
                     candidates_found, listings_saved, duplicates_skipped, oracle_errors,
                     status, error_message)
VALUES (?,?,?,?,?,?,?,?,?,?);`,
		s.StartedAt.UTC().Format(time.RFC3339), int(s.Duration.Seconds()),
		s.SourcesChecked, s.SourcesFailed, s.CandidatesFound, s.ListingsSaved,
		s.DuplicatesSkipped, s.OracleErrors, s.Status, s.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func RecordAvailabilityRun(ctx context.Context, db *sql.DB, s domain.AvailabilityStats) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO availability_logs(run_at, checked, still_available, marked_sold, errors)
VALUES (?,?,?,?,?);`,
		s.RunAt.UTC().Format(time.RFC3339), s.Checked, s.StillAvailable, s.MarkedSold, s.Errors,
	)
	if err != nil {
		return fmt.Errorf("record availability run: %w", err)
	}
	return nil
}
