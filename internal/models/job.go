// Package models holds the data structures shared across packages.
package models

import "time"

// Job is one asynchronous download request, from acknowledgement to
// terminal snapshot. Mutated only by the background tracker.
type Job struct {
	ID         string
	Plugin     string
	Type       string // snapshot "type" field, e.g. "asmr_download_status"
	WorkID     string
	TargetPath string // optional scope filter, narrows the manifest
	CreatedAt  time.Time
}

// JobRecord is the terminal result of a job as persisted in the
// history database.
type JobRecord struct {
	JobID      string
	Plugin     string
	WorkID     string
	WorkTitle  string
	Status     string
	Succeeded  int
	Failed     int
	Reason     string
	FinishedAt time.Time
}
