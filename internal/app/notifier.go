// Package app holds application-level collaborators shared by the
// plugin handlers.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vcptools/internal/domain/consts"
	"vcptools/internal/models"
	"vcptools/internal/utils/logging"
)

const applicationJSON = "application/json"

// Notifier posts terminal job payloads to the orchestrator's callback
// endpoint. Delivery is best-effort: one attempt, failures are the
// caller's to log.
type Notifier struct {
	client  *http.Client
	baseURL string
}

// NewNotifier returns a notifier for the given callback base URL. An
// empty base URL yields nil, meaning callbacks are not configured.
func NewNotifier(baseURL string) *Notifier {
	if baseURL == "" {
		return nil
	}
	return &Notifier{
		client:  &http.Client{Timeout: consts.CallbackTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NotifyTerminal posts the terminal snapshot to
// <base>/<plugin>/<job_id>.
func (n *Notifier) NotifyTerminal(ctx context.Context, snap *models.ProgressSnapshot) error {
	callbackURL, err := url.JoinPath(n.baseURL, snap.PluginName, snap.RequestID)
	if err != nil {
		return fmt.Errorf("invalid callback URL for job %q: %w", snap.RequestID, err)
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload for job %q: %w", snap.RequestID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request for job %q: %w", snap.RequestID, err)
	}
	req.Header.Set("Content-Type", applicationJSON)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send callback to %q: %w", callbackURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.D(2, "Failed to close callback response body: %v", cerr)
		}
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("callback to %q failed with status %d", callbackURL, resp.StatusCode)
	}

	logging.I("Callback delivered for job %s", snap.RequestID)
	return nil
}
