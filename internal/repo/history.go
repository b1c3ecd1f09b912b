// Package repo implements the store interfaces over the database.
package repo

import (
	"context"
	"database/sql"
	"fmt"

	"vcptools/internal/domain/consts"
	"vcptools/internal/models"

	"github.com/Masterminds/squirrel"
)

// HistoryStore persists terminal job results.
type HistoryStore struct {
	DB *sql.DB
}

// GetHistoryStore returns a history store with injected database.
func GetHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{DB: db}
}

// RecordJob inserts one terminal job record. Re-recording the same
// job id replaces the previous row.
func (hs *HistoryStore) RecordJob(ctx context.Context, rec *models.JobRecord) error {
	query := squirrel.
		Replace(consts.DBJobHistory).
		Columns(
			consts.QJobID,
			consts.QPlugin,
			consts.QWorkID,
			consts.QWorkTitle,
			consts.QStatus,
			consts.QSucceeded,
			consts.QFailed,
			consts.QReason,
			consts.QFinishedAt,
		).
		Values(
			rec.JobID,
			rec.Plugin,
			rec.WorkID,
			rec.WorkTitle,
			rec.Status,
			rec.Succeeded,
			rec.Failed,
			rec.Reason,
			rec.FinishedAt,
		).
		RunWith(hs.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to record job %q: %w", rec.JobID, err)
	}
	return nil
}

// RecentJobs returns the most recent terminal jobs, newest first.
func (hs *HistoryStore) RecentJobs(ctx context.Context, limit int) ([]models.JobRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := squirrel.
		Select(
			consts.QJobID,
			consts.QPlugin,
			consts.QWorkID,
			consts.QWorkTitle,
			consts.QStatus,
			consts.QSucceeded,
			consts.QFailed,
			consts.QReason,
			consts.QFinishedAt,
		).
		From(consts.DBJobHistory).
		OrderBy(consts.QFinishedAt + " DESC").
		Limit(uint64(limit)).
		RunWith(hs.DB)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer rows.Close()

	var records []models.JobRecord
	for rows.Next() {
		var (
			rec       models.JobRecord
			workID    sql.NullString
			workTitle sql.NullString
			reason    sql.NullString
		)
		if err := rows.Scan(
			&rec.JobID,
			&rec.Plugin,
			&workID,
			&workTitle,
			&rec.Status,
			&rec.Succeeded,
			&rec.Failed,
			&reason,
			&rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job history row: %w", err)
		}
		rec.WorkID = workID.String
		rec.WorkTitle = workTitle.String
		rec.Reason = reason.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job history: %w", err)
	}
	return records, nil
}
