// Package plugin serves VCP tool requests: it reads one JSON request
// from stdin, routes it to a handler, writes the JSON response to
// stdout and joins any background job the handler started.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"vcptools/internal/contracts"
	"vcptools/internal/jobs"
	"vcptools/internal/models"
	"vcptools/internal/progress"
	"vcptools/internal/utils/logging"
)

// Env bundles the collaborators every plugin needs.
type Env struct {
	Dispatcher  *jobs.Dispatcher
	Store       *progress.Store
	History     contracts.HistoryStore
	DownloadDir string
}

// Credentials carries the account used for authenticated API access.
type Credentials struct {
	Username string
	Password string
}

// Handler routes one request to plugin logic. A non-nil handle means
// the response is an asynchronous acknowledgement and the job keeps
// running after the response is written.
type Handler interface {
	Name() string
	Handle(ctx context.Context, req *models.Request) (*models.Response, *jobs.Handle)
}

// Run serves exactly one request. Stdout carries only the response
// envelope; all diagnostics go to the logger. When the handler
// returns a job handle, Run blocks until the job finishes so the
// process does not exit under it.
func Run(ctx context.Context, h Handler, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return writeResponse(out, models.Errorf("failed to read request: %v", err))
	}
	if len(data) == 0 {
		return writeResponse(out, models.Errorf("empty request"))
	}

	var req models.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return writeResponse(out, models.Errorf("invalid request JSON: %v", err))
	}
	if req.Command == "" {
		return writeResponse(out, missingField("command"))
	}

	logging.I("%s handling command %q", h.Name(), req.Command)

	resp, handle := safeHandle(ctx, h, &req)
	if err := writeResponse(out, resp); err != nil {
		return err
	}

	if handle != nil {
		logging.D(1, "Awaiting background job %s", handle.JobID)
		handle.Wait()
	}
	return nil
}

// safeHandle converts a handler panic into an error envelope instead
// of letting it take the process down with a half-written response.
func safeHandle(ctx context.Context, h Handler, req *models.Request) (resp *models.Response, handle *jobs.Handle) {
	defer func() {
		if p := recover(); p != nil {
			logging.E("%s panicked handling %q: %v", h.Name(), req.Command, p)
			resp, handle = models.Errorf("internal error: %v", p), nil
		}
	}()
	return h.Handle(ctx, req)
}

func writeResponse(out io.Writer, resp *models.Response) error {
	enc := json.NewEncoder(out)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
