package jobs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"vcptools/internal/models"
	"vcptools/internal/progress"
	"vcptools/internal/utils/logging"
)

// Handle represents one dispatched background job. Even when not
// awaited it makes the job's lifecycle explicit; the hosting process
// joins outstanding handles before exit so no job is lost.
type Handle struct {
	JobID string
	done  chan struct{}
}

// Done returns a channel closed when the job's goroutine finishes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job finishes.
func (h *Handle) Wait() {
	<-h.done
}

// WaitTimeout blocks up to d and reports whether the job finished.
func (h *Handle) WaitTimeout(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

// WorkFunc performs the real work of a job, reporting through the
// tracker. A returned error becomes the job's terminal failure
// reason.
type WorkFunc func(ctx context.Context, t *Tracker) error

// Dispatcher launches accepted jobs on background goroutines. It is
// the fire-and-forget boundary: after the acknowledgement is emitted,
// all status flows through the progress store and the terminal
// callback.
type Dispatcher struct {
	store *progress.Store
	opts  TrackerOptions
}

// NewDispatcher returns a dispatcher writing through the given store.
func NewDispatcher(store *progress.Store, opts TrackerOptions) *Dispatcher {
	return &Dispatcher{store: store, opts: opts}
}

// Dispatch starts the job's work on a background goroutine and
// returns its handle. Panics and errors inside the work function are
// converted into a terminal Failed snapshot; nothing escapes to the
// hosting process.
func (d *Dispatcher) Dispatch(ctx context.Context, job *models.Job, work WorkFunc) *Handle {
	t := NewTracker(job, d.store, d.opts)
	h := &Handle{JobID: job.ID, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer func() {
			if p := recover(); p != nil {
				logging.E("Job %s panicked: %v", job.ID, p)
				t.Fail(fmt.Sprintf("internal error: %v", p))
			}
		}()

		logging.I("Job %s started for %s work %q", job.ID, job.Plugin, job.WorkID)
		t.Starting()

		if err := work(ctx, t); err != nil {
			t.Fail(err.Error())
			return
		}
		logging.S("Job %s finished with status %s", job.ID, t.State())
	}()

	return h
}

// NewJobID generates an opaque unique correlation token.
func NewJobID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable for id generation.
		panic(fmt.Sprintf("failed to generate job id: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Placeholder returns the caller-facing async-result token embedding
// the job id. The orchestrator substitutes it with the terminal
// result once the job completes.
func Placeholder(plugin, jobID string) string {
	return fmt.Sprintf("{{VCP_ASYNC_RESULT::%s::%s}}", plugin, jobID)
}
