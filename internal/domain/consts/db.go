package consts

// Database tables.
const (
	DBJobHistory = "job_history"
)

// job_history columns.
const (
	QJobID      = "job_id"
	QPlugin     = "plugin"
	QWorkID     = "work_id"
	QWorkTitle  = "work_title"
	QStatus     = "status"
	QSucceeded  = "succeeded"
	QFailed     = "failed"
	QReason     = "reason"
	QFinishedAt = "finished_at"
)
