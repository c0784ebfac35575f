package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a job in a transport-friendly format.
type Job struct {
	FileID       string  `json:"fileId"`
	Filename     string  `json:"filename"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	ErrorKind    string  `json:"errorKind,omitempty"`
	SegmentCount int     `json:"segmentCount"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
	StartedAt    string  `json:"startedAt,omitempty"`
	FinishedAt   string  `json:"finishedAt,omitempty"`
}

// UploadResponse acknowledges an accepted upload.
type UploadResponse struct {
	FileID string `json:"fileId"`
}

// StatusResponse is the progress view polled while a job runs.
type StatusResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// RemoveResponse reports whether a job was deleted.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearResponse lists the jobs removed by a bulk clear.
type ClearResponse struct {
	Removed int   `json:"removed"`
	Jobs    []Job `json:"jobs"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Workers     int            `json:"workers"`
	JobStats    map[string]int `json:"jobStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DatabaseHealth reports job store diagnostics.
type DatabaseHealth struct {
	Path          string   `json:"path"`
	SchemaVersion int      `json:"schemaVersion"`
	IntegrityOK   bool     `json:"integrityOk"`
	MissingTables []string `json:"missingTables,omitempty"`
	TotalJobs     int      `json:"totalJobs"`
	Error         string   `json:"error,omitempty"`
}

// HealthResponse aggregates daemon runtime information.
type HealthResponse struct {
	Status       string             `json:"status"`
	PID          int                `json:"pid"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Database     DatabaseHealth     `json:"database"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
