package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vcptools/internal/models"
)

// ErrNoSnapshot is returned when no snapshot exists for a job id.
var ErrNoSnapshot = errors.New("no snapshot for job")

// Store is a file-based sink for job status snapshots: one JSON file
// per job id, overwritten in place on every update. The directory is
// shared across jobs but each job writes only its own file, so no
// cross-job locking is needed.
type Store struct {
	dir string
}

// NewStore creates the results directory if needed and returns the
// store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the snapshot file path for a job.
func (s *Store) Path(plugin, jobID string) string {
	return filepath.Join(s.dir, plugin+"-"+jobID+".json")
}

// Write persists a snapshot, replacing any previous one for the same
// job. The write goes through a temp file and rename so the poller
// never observes a partial JSON document.
func (s *Store) Write(snap *models.ProgressSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for job %q: %w", snap.RequestID, err)
	}

	final := s.Path(snap.PluginName, snap.RequestID)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot for job %q: %w", snap.RequestID, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to replace snapshot for job %q: %w", snap.RequestID, err)
	}
	return nil
}

// Read loads the current snapshot for a job.
func (s *Store) Read(plugin, jobID string) (*models.ProgressSnapshot, error) {
	data, err := os.ReadFile(s.Path(plugin, jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s-%s", ErrNoSnapshot, plugin, jobID)
		}
		return nil, fmt.Errorf("failed to read snapshot for job %q: %w", jobID, err)
	}

	var snap models.ProgressSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for job %q: %w", jobID, err)
	}
	return &snap, nil
}

// Exists reports whether a snapshot file is present for a job.
func (s *Store) Exists(plugin, jobID string) bool {
	_, err := os.Stat(s.Path(plugin, jobID))
	return err == nil
}
