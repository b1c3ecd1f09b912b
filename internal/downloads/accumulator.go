package downloads

import (
	"vcptools/internal/domain/consts"
	"vcptools/internal/jobs"
	"vcptools/internal/models"
)

// Accumulator folds per-item events into job-level progress totals.
// It replaces closure-captured counters with one explicit object so
// the aggregation state is visible and testable.
type Accumulator struct {
	totalItems int
	totalBytes int64
	declared   map[string]int64 // filename -> declared size
	settled    map[string]int64 // filename -> bytes credited on completion

	completedNames []string
	completedCount int
	currentFile    string
	currentBytes   int64
}

// NewAccumulator sizes the accumulator from the fixed manifest.
func NewAccumulator(items []models.WorkItem) *Accumulator {
	a := &Accumulator{
		totalItems:     len(items),
		declared:       make(map[string]int64, len(items)),
		settled:        make(map[string]int64, len(items)),
		completedNames: []string{},
	}
	for _, item := range items {
		a.declared[item.Filename()] = item.SizeBytes
		a.totalBytes += item.SizeBytes
	}
	return a
}

// Apply folds one item event and returns the updated job totals.
func (a *Accumulator) Apply(ev models.ItemEvent) jobs.ProgressUpdate {
	switch ev.Status {
	case consts.ItemComplete, consts.ItemSkipped:
		if _, seen := a.settled[ev.Filename]; !seen {
			credit := a.declared[ev.Filename]
			if credit == 0 {
				credit = ev.CompletedBytes
			}
			a.settled[ev.Filename] = credit
			a.completedNames = append(a.completedNames, ev.Filename)
			a.completedCount++
		}
		if ev.Filename == a.currentFile {
			a.currentBytes = 0
		}

	case consts.ItemActive:
		a.currentFile = ev.Filename
		a.currentBytes = ev.CompletedBytes
		// Sizes the manifest did not declare are learned from the
		// response's content length, so scraped single-file jobs
		// still report real byte progress.
		if ev.TotalBytes > 0 && a.declared[ev.Filename] == 0 {
			a.declared[ev.Filename] = ev.TotalBytes
			a.totalBytes += ev.TotalBytes
		}
	}

	if ev.Filename != "" {
		a.currentFile = ev.Filename
	}

	downloaded := a.currentBytes
	for _, credited := range a.settled {
		downloaded += credited
	}

	return jobs.ProgressUpdate{
		Percent:         a.percent(downloaded),
		SpeedBps:        ev.SpeedBps,
		CompletedFiles:  a.completedCount,
		TotalFiles:      a.totalItems,
		CurrentFile:     a.currentFile,
		CompletedList:   a.completedNames,
		DownloadedBytes: downloaded,
		TotalBytes:      a.totalBytes,
	}
}

// percent prefers byte totals, falling back to item counts when the
// manifest declared no sizes.
func (a *Accumulator) percent(downloaded int64) float64 {
	if a.totalBytes > 0 {
		pct := float64(downloaded) / float64(a.totalBytes) * 100
		if pct > 100 {
			pct = 100
		}
		return pct
	}
	if a.totalItems > 0 {
		return float64(a.completedCount) / float64(a.totalItems) * 100
	}
	return 0
}
