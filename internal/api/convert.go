package api

import (
	"sort"
	"time"

	"salient/internal/deps"
	"salient/internal/jobs"
	"salient/internal/stage"
	"salient/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	message := job.Message
	if job.Status == jobs.StatusError && job.ErrorMessage != "" {
		message = job.ErrorMessage
	}
	return Job{
		FileID:       job.ID,
		Filename:     job.Filename,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Message:      message,
		ErrorKind:    job.ErrorKind,
		SegmentCount: job.SegmentCount,
		CreatedAt:    formatTime(job.CreatedAt),
		UpdatedAt:    formatTime(job.UpdatedAt),
		StartedAt:    formatTimePtr(job.StartedAt),
		FinishedAt:   formatTimePtr(job.FinishedAt),
	}
}

// FromJobs converts a job list, never returning nil.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// StatusFromJob builds the polled progress view for a job.
func StatusFromJob(job *jobs.Job) StatusResponse {
	snap := job.Snapshot()
	if job.Status == jobs.StatusError && job.ErrorMessage != "" {
		snap.Message = job.ErrorMessage
	}
	return StatusResponse{
		Status:   string(snap.Status),
		Progress: snap.Progress,
		Message:  snap.Message,
	}
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		stats[string(status)] = summary.JobStats[status]
	}
	out := WorkflowStatus{
		Running:     summary.Running,
		Workers:     summary.Workers,
		JobStats:    stats,
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		out.LastJob = &job
	}
	return out
}

// StageHealthSlice orders stage health by name.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for name, h := range health {
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromDatabaseHealth converts store diagnostics.
func FromDatabaseHealth(h jobs.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		Path:          h.DBPath,
		SchemaVersion: h.SchemaVersion,
		IntegrityOK:   h.IntegrityCheck,
		MissingTables: h.MissingTables,
		TotalJobs:     h.TotalJobs,
		Error:         h.Error,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
