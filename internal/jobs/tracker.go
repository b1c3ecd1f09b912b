// Package jobs owns the asynchronous job lifecycle: dispatch,
// state tracking, throttled snapshot persistence and terminal
// notification.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vcptools/internal/contracts"
	"vcptools/internal/domain/consts"
	"vcptools/internal/models"
	"vcptools/internal/parsing"
	"vcptools/internal/progress"
	"vcptools/internal/utils/logging"
)

// TerminalNotifier delivers the terminal payload to an external
// callback endpoint.
type TerminalNotifier interface {
	NotifyTerminal(ctx context.Context, snap *models.ProgressSnapshot) error
}

// TrackerOptions carries the tracker's collaborators and tuning.
// Notifier and History may be nil.
type TrackerOptions struct {
	Notifier TerminalNotifier
	History  contracts.HistoryStore
	Interval time.Duration
	Now      func() time.Time
}

// ProgressUpdate is one aggregate observation forwarded from the
// download engine's event sink.
type ProgressUpdate struct {
	Percent         float64
	SpeedBps        int64
	CompletedFiles  int
	TotalFiles      int
	CurrentFile     string
	CompletedList   []string
	DownloadedBytes int64
	TotalBytes      int64
}

// Tracker owns one job's state machine and persists throttled
// progress snapshots. It runs on the job's background goroutine and
// is not safe for concurrent use.
type Tracker struct {
	job      *models.Job
	store    *progress.Store
	notifier TerminalNotifier
	history  contracts.HistoryStore
	eta      *progress.ETAEstimator
	interval time.Duration
	now      func() time.Time

	state         consts.JobStatus
	workTitle     string
	fileStructure map[string]*models.FileNode
	totalFiles    int

	maxPct           float64
	downloadedBytes  int64
	totalBytes       int64
	lastWriteAt      time.Time
	lastWrittenPct   float64
	wroteDownloading bool
}

// NewTracker returns a tracker in the Starting state.
func NewTracker(job *models.Job, store *progress.Store, opts TrackerOptions) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = consts.SnapshotInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		job:      job,
		store:    store,
		notifier: opts.Notifier,
		history:  opts.History,
		eta:      progress.NewETAEstimator(),
		interval: opts.Interval,
		now:      opts.Now,
		state:    consts.JobStarting,
	}
}

// State returns the job's current state.
func (t *Tracker) State() consts.JobStatus {
	return t.state
}

// Starting writes the initial snapshot. Called once, before any work.
func (t *Tracker) Starting() {
	if t.state.Terminal() {
		return
	}
	t.state = consts.JobStarting
	t.eta.Reset()

	snap := t.buildSnapshot()
	snap.ETA = consts.ETAUnknown
	snap.Message = fmt.Sprintf("Preparing download for work: %s", t.job.WorkID)
	t.persist(snap)
}

// Preparing records the resolved manifest shape and writes one
// unconditional snapshot.
func (t *Tracker) Preparing(workTitle string, totalFiles int, structure map[string]*models.FileNode) {
	if t.state.Terminal() {
		return
	}
	t.state = consts.JobPreparing
	t.workTitle = workTitle
	t.totalFiles = totalFiles
	t.fileStructure = structure
	t.maxPct = 5.0

	snap := t.buildSnapshot()
	snap.TotalFiles = totalFiles
	snap.Message = fmt.Sprintf("Preparing download: %s\nFound %d files", workTitle, totalFiles)
	t.persist(snap)
}

// Progress records one aggregate observation. Every sample feeds the
// ETA estimator; persistence is throttled to bound I/O on the store.
func (t *Tracker) Progress(u ProgressUpdate) {
	if t.state.Terminal() {
		return
	}
	t.state = consts.JobDownloading

	now := t.now()
	t.eta.AddSample(progress.Sample{
		T:               now,
		DownloadedBytes: u.DownloadedBytes,
		TotalBytes:      u.TotalBytes,
		Percent:         u.Percent,
	})

	if u.Percent > t.maxPct {
		t.maxPct = u.Percent
	}
	if u.TotalFiles > 0 {
		t.totalFiles = u.TotalFiles
	}
	if u.DownloadedBytes > 0 {
		t.downloadedBytes = u.DownloadedBytes
	}
	if u.TotalBytes > 0 {
		t.totalBytes = u.TotalBytes
	}

	if !t.shouldPersist(now) {
		return
	}
	t.lastWriteAt = now
	t.lastWrittenPct = t.maxPct
	t.wroteDownloading = true

	speed := parsing.FormatSpeed(u.SpeedBps)
	eta := t.eta.Estimate()

	snap := t.buildSnapshot()
	snap.DownloadSpeed = speed
	snap.ETA = eta
	snap.CompletedFiles = u.CompletedFiles
	snap.CurrentFile = u.CurrentFile
	if u.CompletedList != nil {
		snap.CompletedFilesList = u.CompletedList
	}
	snap.Message = downloadingMessage(t.workTitle, t.maxPct, u, speed, eta)
	t.persist(snap)
}

// shouldPersist applies the snapshot throttle: first Downloading
// write, configured interval elapsed, or >1 percentage point moved.
func (t *Tracker) shouldPersist(now time.Time) bool {
	if !t.wroteDownloading {
		return true
	}
	if now.Sub(t.lastWriteAt) >= t.interval {
		return true
	}
	return t.maxPct-t.lastWrittenPct > consts.SnapshotMinPctStep
}

// Succeed writes the terminal Succeeded snapshot, bypassing the
// throttle, and fires the terminal side effects. At least one
// completed item qualifies as success; failures ride along in the
// failed list.
func (t *Tracker) Succeed(res *models.DownloadResult) {
	if t.state.Terminal() {
		logging.W("Job %s already terminal, ignoring Succeed", t.job.ID)
		return
	}
	t.state = consts.JobSucceeded
	t.maxPct = 100
	if res.WorkTitle != "" {
		t.workTitle = res.WorkTitle
	}

	msg := fmt.Sprintf("Download complete: %s\nDownloaded %d/%d files\nDirectory: %s",
		t.workTitle, res.SucceededCount, res.TotalItems, res.DownloadDir)
	if res.FailedCount > 0 {
		msg += fmt.Sprintf("\nFailed files (%d): %s", res.FailedCount, strings.Join(res.FailedNames, ", "))
	}

	snap := t.buildSnapshot()
	snap.ETA = "00:00"
	snap.CompletedFiles = res.SucceededCount
	snap.TotalFiles = res.TotalItems
	snap.CompletedFilesList = res.CompletedNames
	snap.FailedFilesList = res.FailedNames
	snap.DownloadDir = res.DownloadDir
	snap.Message = msg

	t.finish(snap, res)
}

// Fail writes the terminal Failed snapshot with a reason.
func (t *Tracker) Fail(reason string) {
	if t.state.Terminal() {
		logging.W("Job %s already terminal, ignoring Fail: %s", t.job.ID, reason)
		return
	}
	t.state = consts.JobFailed

	snap := t.buildSnapshot()
	snap.Reason = reason
	snap.Message = fmt.Sprintf("Download failed (job %s): %s", t.job.ID, reason)

	t.finish(snap, nil)
}

// finish performs the single terminal write plus callback and history
// side effects. Callback delivery failure is logged, never retried,
// and does not alter the persisted snapshot.
func (t *Tracker) finish(snap *models.ProgressSnapshot, res *models.DownloadResult) {
	t.persist(snap)

	if t.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), consts.CallbackTimeout)
		defer cancel()
		if err := t.notifier.NotifyTerminal(ctx, snap); err != nil {
			logging.E("Failed to deliver terminal callback for job %s: %v", t.job.ID, err)
		}
	}

	if t.history != nil {
		rec := &models.JobRecord{
			JobID:      t.job.ID,
			Plugin:     t.job.Plugin,
			WorkID:     t.job.WorkID,
			WorkTitle:  t.workTitle,
			Status:     string(t.state),
			Reason:     snap.Reason,
			FinishedAt: t.now(),
		}
		if res != nil {
			rec.Succeeded = res.SucceededCount
			rec.Failed = res.FailedCount
		}
		if err := t.history.RecordJob(context.Background(), rec); err != nil {
			logging.E("Failed to record job %s in history: %v", t.job.ID, err)
		}
	}
}

// buildSnapshot fills the fields common to every snapshot.
func (t *Tracker) buildSnapshot() *models.ProgressSnapshot {
	return &models.ProgressSnapshot{
		RequestID:          t.job.ID,
		Status:             t.state,
		PluginName:         t.job.Plugin,
		Type:               t.job.Type,
		Timestamp:          float64(t.now().UnixMilli()) / 1000.0,
		WorkID:             t.job.WorkID,
		WorkTitle:          t.workTitle,
		Progress:           t.maxPct,
		DownloadedBytes:    t.downloadedBytes,
		TotalBytes:         t.totalBytes,
		CompletedFilesList: []string{},
		FileStructure:      t.fileStructure,
		TotalFiles:         t.totalFiles,
	}
}

// persist writes the snapshot, logging and swallowing store errors:
// telemetry must never crash the job.
func (t *Tracker) persist(snap *models.ProgressSnapshot) {
	if err := t.store.Write(snap); err != nil {
		logging.E("Failed to persist %s snapshot for job %s: %v", snap.Status, t.job.ID, err)
	}
}

func downloadingMessage(title string, pct float64, u ProgressUpdate, speed, eta string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Downloading: %s\n", title)
	fmt.Fprintf(&b, "Progress: %.1f%% (%d/%d files)\n", pct, u.CompletedFiles, u.TotalFiles)
	if u.TotalBytes > 0 {
		fmt.Fprintf(&b, "Size: %s/%s\n", parsing.FormatBytes(u.DownloadedBytes), parsing.FormatBytes(u.TotalBytes))
	}
	fmt.Fprintf(&b, "Speed: %s\n", speed)
	fmt.Fprintf(&b, "ETA: %s", eta)
	if u.CurrentFile != "" {
		fmt.Fprintf(&b, "\nCurrent file: %s", u.CurrentFile)
	}
	if n := len(u.CompletedList); n > 0 {
		recent := u.CompletedList
		if n > 3 {
			recent = recent[n-3:]
		}
		fmt.Fprintf(&b, "\nRecently completed: %s", strings.Join(recent, ", "))
	}
	return b.String()
}
