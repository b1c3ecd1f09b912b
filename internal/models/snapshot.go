package models

import "vcptools/internal/domain/consts"

// ProgressSnapshot is the externally visible projection of a job's
// state, persisted as one JSON file per job and read by the VCP
// poller. Field names are part of the poller contract.
type ProgressSnapshot struct {
	RequestID          string               `json:"requestId"`
	Status             consts.JobStatus     `json:"status"`
	PluginName         string               `json:"pluginName"`
	Type               string               `json:"type"`
	Timestamp          float64              `json:"timestamp"`
	WorkID             string               `json:"workId"`
	WorkTitle          string               `json:"workTitle"`
	Progress           float64              `json:"progress"`
	DownloadSpeed      string               `json:"downloadSpeed"`
	ETA                string               `json:"eta"`
	CompletedFiles     int                  `json:"completedFiles"`
	TotalFiles         int                  `json:"totalFiles"`
	CurrentFile        string               `json:"currentFile"`
	CompletedFilesList []string             `json:"completedFilesList"`
	FileStructure      map[string]*FileNode `json:"fileStructure"`
	DownloadedBytes    int64                `json:"downloadedBytes"`
	TotalBytes         int64                `json:"totalBytes"`
	Message            string               `json:"message"`
	Reason             string               `json:"reason,omitempty"`
	DownloadDir        string               `json:"downloadDir,omitempty"`
	FailedFilesList    []string             `json:"failedFilesList,omitempty"`
}
