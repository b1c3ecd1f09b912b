// Package contracts holds store interfaces implemented by the repo
// layer.
package contracts

import (
	"context"

	"vcptools/internal/models"
)

// HistoryStore records terminal job results and serves history
// queries.
type HistoryStore interface {
	RecordJob(ctx context.Context, rec *models.JobRecord) error
	RecentJobs(ctx context.Context, limit int) ([]models.JobRecord, error)
}
