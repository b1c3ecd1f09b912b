// Package consts holds program-wide constants.
package consts

import "time"

// JobStatus is the lifecycle state of an asynchronous download job.
type JobStatus string

const (
	JobStarting    JobStatus = "Starting"
	JobPreparing   JobStatus = "Preparing"
	JobDownloading JobStatus = "Downloading"
	JobSucceeded   JobStatus = "Succeeded"
	JobFailed      JobStatus = "Failed"
)

// Terminal returns true when the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ItemStatus is the per-file state within a job's manifest.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemActive   ItemStatus = "active"
	ItemComplete ItemStatus = "complete"
	ItemSkipped  ItemStatus = "skipped"
	ItemFailed   ItemStatus = "failed"
)

// Plugin identities, used in snapshot filenames, placeholders and callbacks.
const (
	PluginASMR   = "ASMRTools"
	PluginMissAV = "MissAVCrawl"

	SnapshotTypeASMR   = "asmr_download_status"
	SnapshotTypeMissAV = "missav_download_status"
)

// Download engine tuning.
const (
	DownloadChunkSize = 64 * 1024
	ItemEventInterval = 2 * time.Second
	FallbackFilename  = "unnamed_file"
)

// Snapshot throttle.
const (
	SnapshotInterval   = 30 * time.Second
	SnapshotMinPctStep = 1.0
)

// ETA estimation.
const (
	ETAHistorySize = 15
	ETAWindowSize  = 8
	ETAMinSpan     = 3 * time.Second
	ETAUnknown     = "--:--"
)

// Metadata fetch retry policy.
const (
	MetaMaxAttempts = 3
	MetaBackoffBase = time.Second
)

// Batch metadata enrichment pool.
const (
	EnrichWorkers     = 3
	EnrichPacing      = 500 * time.Millisecond
	EnrichJoinTimeout = 30 * time.Second
)

// HTTP timeouts.
const (
	MetaFetchTimeout = 60 * time.Second
	CallbackTimeout  = 30 * time.Second
)
