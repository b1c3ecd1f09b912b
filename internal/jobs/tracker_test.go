package jobs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vcptools/internal/app"
	"vcptools/internal/domain/consts"
	"vcptools/internal/models"
	"vcptools/internal/progress"
)

func testJob() *models.Job {
	return &models.Job{
		ID:        "job1",
		Plugin:    consts.PluginASMR,
		Type:      consts.SnapshotTypeASMR,
		WorkID:    "RJ123456",
		CreatedAt: time.Now(),
	}
}

func testStore(t *testing.T) *progress.Store {
	t.Helper()
	store, err := progress.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

// fakeClock steps time manually so throttle windows are deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTrackerLifecycleSnapshots(t *testing.T) {
	store := testStore(t)
	clock := &fakeClock{now: time.Now()}
	tr := NewTracker(testJob(), store, TrackerOptions{Now: clock.Now})

	tr.Starting()
	snap, err := store.Read(consts.PluginASMR, "job1")
	if err != nil {
		t.Fatalf("after Starting: %v", err)
	}
	if snap.Status != consts.JobStarting || snap.ETA != consts.ETAUnknown {
		t.Errorf("starting snapshot: %+v", snap)
	}

	tr.Preparing("Test Work", 5, map[string]*models.FileNode{
		"a.mp3": {Type: "file", Size: 100},
	})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobPreparing || snap.WorkTitle != "Test Work" || snap.TotalFiles != 5 {
		t.Errorf("preparing snapshot: %+v", snap)
	}
	if snap.Progress != 5.0 {
		t.Errorf("preparing progress = %v, want 5", snap.Progress)
	}
	if snap.FileStructure["a.mp3"] == nil {
		t.Error("file structure not persisted")
	}

	tr.Progress(ProgressUpdate{Percent: 40, CompletedFiles: 2, TotalFiles: 5, DownloadedBytes: 400, TotalBytes: 1000})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobDownloading || snap.Progress != 40 {
		t.Errorf("downloading snapshot: %+v", snap)
	}
}

func TestTrackerThrottlesWrites(t *testing.T) {
	store := testStore(t)
	clock := &fakeClock{now: time.Now()}
	tr := NewTracker(testJob(), store, TrackerOptions{Interval: 30 * time.Second, Now: clock.Now})
	tr.Starting()

	// First Downloading update always writes.
	tr.Progress(ProgressUpdate{Percent: 10})
	snap, _ := store.Read(consts.PluginASMR, "job1")
	if snap.Progress != 10 {
		t.Fatalf("first update not written: %+v", snap)
	}

	// Within the interval and within 1 point: suppressed.
	clock.Advance(time.Second)
	tr.Progress(ProgressUpdate{Percent: 10.5})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Progress != 10 {
		t.Errorf("throttled update was written: %v", snap.Progress)
	}

	// More than one point moved: written despite the interval.
	clock.Advance(time.Second)
	tr.Progress(ProgressUpdate{Percent: 12})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Progress != 12 {
		t.Errorf("percent-step update suppressed: %v", snap.Progress)
	}

	// Interval elapsed: written even with tiny movement.
	clock.Advance(31 * time.Second)
	tr.Progress(ProgressUpdate{Percent: 12.1})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Progress != 12.1 {
		t.Errorf("interval update suppressed: %v", snap.Progress)
	}
}

func TestTrackerProgressIsMonotonic(t *testing.T) {
	store := testStore(t)
	clock := &fakeClock{now: time.Now()}
	tr := NewTracker(testJob(), store, TrackerOptions{Now: clock.Now})
	tr.Starting()

	tr.Progress(ProgressUpdate{Percent: 50})
	clock.Advance(time.Minute)
	tr.Progress(ProgressUpdate{Percent: 30})

	snap, _ := store.Read(consts.PluginASMR, "job1")
	if snap.Progress != 50 {
		t.Errorf("progress regressed: %v", snap.Progress)
	}
}

func TestTrackerSingleTerminalWrite(t *testing.T) {
	store := testStore(t)
	tr := NewTracker(testJob(), store, TrackerOptions{})
	tr.Starting()

	tr.Succeed(&models.DownloadResult{
		WorkTitle:      "Test Work",
		DownloadDir:    "/data/asmr/RJ123456",
		TotalItems:     3,
		SucceededCount: 2,
		FailedCount:    1,
		CompletedNames: []string{"a.mp3", "b.mp3"},
		FailedNames:    []string{"c.mp3"},
	})

	snap, _ := store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobSucceeded || snap.Progress != 100 || snap.ETA != "00:00" {
		t.Fatalf("terminal snapshot: %+v", snap)
	}
	if len(snap.FailedFilesList) != 1 || snap.DownloadDir == "" {
		t.Errorf("terminal details: %+v", snap)
	}
	if !strings.Contains(snap.Message, "2/3 files") {
		t.Errorf("terminal message: %q", snap.Message)
	}

	// A terminal state refuses further transitions.
	tr.Fail("should be ignored")
	tr.Progress(ProgressUpdate{Percent: 1})
	snap, _ = store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobSucceeded {
		t.Errorf("terminal state overwritten: %v", snap.Status)
	}
}

func TestTrackerTerminalCarriesByteTotals(t *testing.T) {
	store := testStore(t)
	tr := NewTracker(testJob(), store, TrackerOptions{})
	tr.Starting()

	tr.Progress(ProgressUpdate{Percent: 60, DownloadedBytes: 600, TotalBytes: 1000})
	// The byte totals survive a final update that omits them.
	tr.Progress(ProgressUpdate{Percent: 61})

	tr.Succeed(&models.DownloadResult{
		WorkTitle:      "Test Work",
		TotalItems:     1,
		SucceededCount: 1,
	})

	snap, _ := store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobSucceeded {
		t.Fatalf("terminal snapshot: %+v", snap)
	}
	if snap.DownloadedBytes != 600 || snap.TotalBytes != 1000 {
		t.Errorf("terminal bytes = %d/%d, want 600/1000", snap.DownloadedBytes, snap.TotalBytes)
	}
}

func TestTrackerFailWritesReason(t *testing.T) {
	store := testStore(t)
	tr := NewTracker(testJob(), store, TrackerOptions{})
	tr.Starting()
	tr.Fail("work not found: RJ123456")

	snap, _ := store.Read(consts.PluginASMR, "job1")
	if snap.Status != consts.JobFailed {
		t.Fatalf("status: %v", snap.Status)
	}
	if snap.Reason != "work not found: RJ123456" {
		t.Errorf("reason: %q", snap.Reason)
	}
}

func TestTrackerTerminalCallback(t *testing.T) {
	var (
		mu       sync.Mutex
		path     string
		received models.ProgressSnapshot
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		json.Unmarshal(body, &received)
		mu.Unlock()
	}))
	defer srv.Close()

	store := testStore(t)
	tr := NewTracker(testJob(), store, TrackerOptions{Notifier: app.NewNotifier(srv.URL)})
	tr.Starting()
	tr.Succeed(&models.DownloadResult{WorkTitle: "Test Work", TotalItems: 1, SucceededCount: 1})

	mu.Lock()
	defer mu.Unlock()
	if path != "/ASMRTools/job1" {
		t.Errorf("callback path = %q", path)
	}
	if received.Status != consts.JobSucceeded || received.RequestID != "job1" {
		t.Errorf("callback payload: %+v", received)
	}
}

func TestTrackerCallbackFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := testStore(t)
	tr := NewTracker(testJob(), store, TrackerOptions{Notifier: app.NewNotifier(srv.URL)})
	tr.Starting()
	tr.Fail("some failure")

	// The snapshot must still be the terminal one.
	snap, err := store.Read(consts.PluginASMR, "job1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Status != consts.JobFailed {
		t.Errorf("status: %v", snap.Status)
	}
}

// recordingHistory captures history writes without a database.
type recordingHistory struct {
	mu      sync.Mutex
	records []*models.JobRecord
}

func (h *recordingHistory) RecordJob(_ context.Context, rec *models.JobRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *recordingHistory) RecentJobs(context.Context, int) ([]models.JobRecord, error) {
	return nil, nil
}

func TestTrackerRecordsHistory(t *testing.T) {
	hist := &recordingHistory{}
	tr := NewTracker(testJob(), testStore(t), TrackerOptions{History: hist})
	tr.Starting()
	tr.Succeed(&models.DownloadResult{WorkTitle: "Test Work", TotalItems: 2, SucceededCount: 2})

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.records) != 1 {
		t.Fatalf("got %d records, want 1", len(hist.records))
	}
	rec := hist.records[0]
	if rec.JobID != "job1" || rec.Status != string(consts.JobSucceeded) || rec.Succeeded != 2 {
		t.Errorf("record: %+v", rec)
	}
}
