package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"salient/internal/jobs"
	"salient/internal/stage"
	"salient/internal/workflow"
)

func TestFromJob(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := created.Add(3 * time.Second)
	job := &jobs.Job{
		ID:           "abc",
		Filename:     "talk.wav",
		Status:       jobs.StatusDone,
		Progress:     1,
		Message:      jobs.MessageComplete,
		SegmentCount: 2,
		CreatedAt:    created,
		UpdatedAt:    finished,
		FinishedAt:   &finished,
	}

	dto := FromJob(job)
	if dto.FileID != "abc" || dto.Status != "done" || dto.SegmentCount != 2 {
		t.Fatalf("unexpected dto %#v", dto)
	}
	if dto.CreatedAt != "2026-03-01T12:00:00.000Z" || dto.FinishedAt != "2026-03-01T12:00:03.000Z" {
		t.Fatalf("unexpected timestamps %q %q", dto.CreatedAt, dto.FinishedAt)
	}
	if dto.StartedAt != "" {
		t.Fatalf("expected empty startedAt, got %q", dto.StartedAt)
	}

	data, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"fileId":"abc"`) || strings.Contains(string(data), "startedAt") {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestStatusFromJobSurfacesError(t *testing.T) {
	job := &jobs.Job{Status: jobs.StatusError, Message: "analysis failed", ErrorMessage: "decode: bad header"}
	status := StatusFromJob(job)
	if status.Status != "error" || status.Message != "decode: bad header" || status.Progress != 0 {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestFromJobsNeverNil(t *testing.T) {
	if out := FromJobs(nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice, got %#v", out)
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:  true,
		Workers:  2,
		JobStats: map[jobs.Status]int{jobs.StatusQueued: 3},
		StageHealth: map[string]stage.Health{
			"zeta":     stage.Healthy("zeta"),
			"analysis": stage.Unhealthy("analysis", "store unavailable"),
		},
		LastJob: &jobs.Job{ID: "last", Status: jobs.StatusDone},
	}
	out := FromStatusSummary(summary)
	if out.JobStats["queued"] != 3 || out.JobStats["done"] != 0 {
		t.Fatalf("unexpected stats %#v", out.JobStats)
	}
	if len(out.StageHealth) != 2 || out.StageHealth[0].Name != "analysis" || out.StageHealth[0].Ready {
		t.Fatalf("unexpected stage health %#v", out.StageHealth)
	}
	if out.LastJob == nil || out.LastJob.FileID != "last" {
		t.Fatalf("unexpected last job %#v", out.LastJob)
	}
}
