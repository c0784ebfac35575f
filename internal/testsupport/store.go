package testsupport

import (
	"context"
	"testing"

	"salient/internal/config"
	"salient/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob inserts a queued job with a fresh id.
func NewJob(t testing.TB, store *jobs.Store, filename string) *jobs.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), jobs.NewID(), filename, "")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
