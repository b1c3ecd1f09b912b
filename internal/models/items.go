package models

import (
	"path"

	"vcptools/internal/domain/consts"
)

// WorkItem is one downloadable file belonging to a job's manifest.
type WorkItem struct {
	// RelPath is the sanitized folder path plus filename, used both
	// for on-disk placement and path-filter matching. Always
	// slash-separated.
	RelPath   string
	SizeBytes int64
	SourceURL string
	Status    consts.ItemStatus
}

// Filename returns the final path segment of the item.
func (w WorkItem) Filename() string {
	return path.Base(w.RelPath)
}

// ParentDir returns the item's immediate parent directory, or "" for
// top-level items.
func (w WorkItem) ParentDir() string {
	dir := path.Dir(w.RelPath)
	if dir == "." {
		return ""
	}
	return dir
}

// ItemEvent is a fine-grained progress event for a single item,
// emitted by the download engine during transfer.
type ItemEvent struct {
	Filename       string
	Status         consts.ItemStatus
	CompletedBytes int64
	TotalBytes     int64
	SpeedBps       int64
}

// DownloadResult is the aggregate outcome of one job's manifest run.
type DownloadResult struct {
	WorkTitle      string
	DownloadDir    string
	TotalItems     int
	SucceededCount int
	FailedCount    int
	CompletedNames []string
	FailedNames    []string
}

// ManifestNode is one node of a target's (possibly nested) file tree
// as returned by a metadata source.
type ManifestNode struct {
	Title       string
	Folder      bool
	Size        int64
	DownloadURL string
	Children    []*ManifestNode
}

// FileNode is the externally visible projection of a manifest subtree,
// embedded in progress snapshots and rendered for work-info output.
type FileNode struct {
	Type      string               `json:"type"`
	Size      int64                `json:"size,omitempty"`
	URL       string               `json:"url,omitempty"`
	FileCount int                  `json:"file_count,omitempty"`
	Children  map[string]*FileNode `json:"children,omitempty"`
}
