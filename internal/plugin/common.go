package plugin

import (
	"context"
	"fmt"
	"time"

	"vcptools/internal/contracts"
	"vcptools/internal/domain/errs"
	"vcptools/internal/jobs"
	"vcptools/internal/models"
)

const defaultHistoryLimit = 10

// missingField builds the validation error envelope for an absent
// required request field. No job is created for these.
func missingField(name string) *models.Response {
	err := fmt.Errorf("%w: missing required field: %s", errs.ErrValidation, name)
	return models.Errorf("%v", err)
}

// newJob builds the job record for one async download request.
func newJob(plugin, snapshotType string, req *models.Request) *models.Job {
	return &models.Job{
		ID:         jobs.NewJobID(),
		Plugin:     plugin,
		Type:       snapshotType,
		WorkID:     req.WorkID,
		TargetPath: req.TargetPath,
		CreatedAt:  time.Now(),
	}
}

// ackResponse is the immediate acknowledgement for an accepted async
// job. The result carries the placeholder token the orchestrator
// later substitutes with the terminal outcome.
func ackResponse(job *models.Job, message string) *models.Response {
	resp := models.Success(jobs.Placeholder(job.Plugin, job.ID))
	resp.MessageForAI = message
	return resp
}

// historyResponse lists recent terminal jobs for one plugin.
func historyResponse(ctx context.Context, history contracts.HistoryStore, plugin string, limit int) *models.Response {
	if history == nil {
		return models.Errorf("job history is unavailable")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := history.RecentJobs(ctx, limit)
	if err != nil {
		return models.Errorf("failed to read job history: %v", err)
	}

	filtered := records[:0]
	for _, rec := range records {
		if rec.Plugin == plugin {
			filtered = append(filtered, rec)
		}
	}
	if len(filtered) == 0 {
		return models.Success("No completed downloads recorded yet.")
	}
	return models.Success(formatHistory(filtered))
}
