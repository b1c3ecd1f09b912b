package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vcptools/internal/domain/consts"
	"vcptools/internal/models"
	"vcptools/internal/net"
	"vcptools/internal/parsing"
	"vcptools/internal/utils/logging"
)

// ErrCancelled is returned by RunAll when the cancellation check
// fires between items or chunks.
var ErrCancelled = errors.New("download cancelled")

// EventSink receives per-item progress events. The engine never
// aggregates across items; that is the accumulator's job.
type EventSink func(models.ItemEvent)

// CancelCheck is polled between chunk writes and between items.
type CancelCheck func() bool

// Engine fetches a manifest's items strictly sequentially, streaming
// each to disk in fixed-size chunks.
type Engine struct {
	session       *net.Session
	chunkSize     int
	eventInterval time.Duration
	cancelled     CancelCheck
	now           func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCancelCheck installs a cancellation hook. The default never
// cancels.
func WithCancelCheck(c CancelCheck) EngineOption {
	return func(e *Engine) { e.cancelled = c }
}

// WithEventInterval overrides the per-item event cadence (tests).
func WithEventInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.eventInterval = d }
}

// WithClock overrides the engine clock (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine downloading through the given session.
func NewEngine(session *net.Session, opts ...EngineOption) *Engine {
	e := &Engine{
		session:       session,
		chunkSize:     consts.DownloadChunkSize,
		eventInterval: consts.ItemEventInterval,
		cancelled:     func() bool { return false },
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DestDir derives the deterministic destination root for a target.
func DestDir(base, kind, id, title string) string {
	return filepath.Join(base, kind, fmt.Sprintf("%s - %s", id, parsing.SanitizeFilename(title)))
}

// FetchItem transfers one item under destRoot. A destination file
// that already exists with non-zero size short-circuits to skipped so
// re-runs are idempotent. Transport errors and non-200 responses
// yield failed; individual file fetches are never retried.
func (e *Engine) FetchItem(ctx context.Context, item *models.WorkItem, destRoot string, sink EventSink) consts.ItemStatus {
	filename := item.Filename()

	if item.SourceURL == "" {
		logging.E("No download URL for item %q", item.RelPath)
		return e.settle(item, consts.ItemFailed)
	}

	destPath := filepath.Join(destRoot, filepath.FromSlash(item.RelPath))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		logging.E("Failed to create directory for %q: %v", item.RelPath, err)
		return e.settle(item, consts.ItemFailed)
	}

	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		logging.D(1, "File already exists, skipping: %s", filename)
		emit(sink, models.ItemEvent{
			Filename:       filename,
			Status:         consts.ItemSkipped,
			CompletedBytes: info.Size(),
			TotalBytes:     info.Size(),
		})
		return e.settle(item, consts.ItemSkipped)
	}

	logging.I("Downloading: %s", filename)

	resp, err := e.session.Stream(ctx, item.SourceURL)
	if err != nil {
		logging.E("Transfer failed for %q: %v", filename, err)
		return e.settle(item, consts.ItemFailed)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.D(2, "Failed to close transfer body for %q: %v", filename, cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		logging.E("HTTP %d for %q: %s", resp.StatusCode, filename, item.SourceURL)
		return e.settle(item, consts.ItemFailed)
	}

	written, err := e.stream(ctx, resp, destPath, filename, sink)
	if err != nil {
		// Drop the partial file so a re-run does not skip it.
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.W("Failed to remove partial file %q: %v", destPath, rmErr)
		}
		if errors.Is(err, ErrCancelled) {
			return e.settle(item, consts.ItemFailed)
		}
		logging.E("Transfer failed for %q: %v", filename, err)
		return e.settle(item, consts.ItemFailed)
	}

	emit(sink, models.ItemEvent{
		Filename:       filename,
		Status:         consts.ItemComplete,
		CompletedBytes: written,
		TotalBytes:     resp.ContentLength,
	})
	logging.S("Downloaded %s (%s)", filename, parsing.FormatBytes(written))
	return e.settle(item, consts.ItemComplete)
}

// stream copies the response body to destPath in fixed-size chunks,
// emitting an active event at most once per event interval.
func (e *Engine) stream(ctx context.Context, resp *http.Response, destPath, filename string, sink EventSink) (int64, error) {
	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %q: %w", destPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.D(2, "Failed to close %q: %v", destPath, cerr)
		}
	}()

	var (
		written  int64
		buf      = make([]byte, e.chunkSize)
		started  = e.now()
		lastEmit time.Time
	)

	for {
		if e.cancelled() {
			return written, ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return written, fmt.Errorf("failed to write %q: %w", destPath, writeErr)
			}
			written += int64(n)

			now := e.now()
			if now.Sub(lastEmit) >= e.eventInterval {
				lastEmit = now
				emit(sink, models.ItemEvent{
					Filename:       filename,
					Status:         consts.ItemActive,
					CompletedBytes: written,
					TotalBytes:     resp.ContentLength,
					SpeedBps:       rate(written, now.Sub(started)),
				})
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("failed to read body for %q: %w", filename, readErr)
		}
	}
}

// RunAll fetches items strictly in manifest order, forwarding item
// events to the sink and accumulating the aggregate result. A failed
// item never aborts the remainder.
func (e *Engine) RunAll(ctx context.Context, items []models.WorkItem, workTitle, destRoot string, sink EventSink) (*models.DownloadResult, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory %q: %w", destRoot, err)
	}
	logging.I("Download directory: %s", destRoot)

	res := &models.DownloadResult{
		WorkTitle:      workTitle,
		DownloadDir:    destRoot,
		TotalItems:     len(items),
		CompletedNames: []string{},
		FailedNames:    []string{},
	}

	for i := range items {
		if e.cancelled() {
			return res, ErrCancelled
		}

		switch e.FetchItem(ctx, &items[i], destRoot, sink) {
		case consts.ItemComplete, consts.ItemSkipped:
			res.SucceededCount++
			res.CompletedNames = append(res.CompletedNames, items[i].Filename())
		default:
			res.FailedCount++
			res.FailedNames = append(res.FailedNames, items[i].Filename())
		}
	}

	return res, nil
}

func (e *Engine) settle(item *models.WorkItem, status consts.ItemStatus) consts.ItemStatus {
	item.Status = status
	return status
}

func emit(sink EventSink, ev models.ItemEvent) {
	if sink != nil {
		sink(ev)
	}
}

func rate(written int64, elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}
	return int64(float64(written) / elapsed.Seconds())
}
