package jobs

import (
	"fmt"
	"strings"
	"time"

	"salient/internal/salience"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

const (
	// MessageQueued is the progress message for freshly uploaded jobs.
	MessageQueued = "Queued"
	// MessageProcessing is set when a worker claims a job.
	MessageProcessing = "Processing"
	// MessageComplete is set alongside the done transition.
	MessageComplete = "Complete"
	// MessageReclaimed is set when a stale job is returned to the queue.
	MessageReclaimed = "Requeued after worker timeout"
)

var allStatuses = []Status{StatusQueued, StatusProcessing, StatusDone, StatusError}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a user-supplied string into a Status.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", value)
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Job represents one uploaded file and its analysis lifecycle.
type Job struct {
	ID            string
	Filename      string
	SourcePath    string
	Status        Status
	Progress      float64
	Message       string
	ErrorMessage  string
	ErrorKind     string
	SegmentCount  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
	LastHeartbeat *time.Time
}

// Snapshot returns the progress view polled by clients.
func (j *Job) Snapshot() salience.Progress {
	return salience.Progress{
		Status:   salience.State(j.Status),
		Progress: j.Progress,
		Message:  j.Message,
	}
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
