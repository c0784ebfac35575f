package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/salience"
	"salient/internal/testsupport"
)

func TestPurgeBeforeRemovesUploads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id := jobs.NewID()
	path := filepath.Join(cfg.Paths.DataDir, id+"_old.wav")
	testsupport.WriteFile(t, path, 32)
	if _, err := store.NewJob(ctx, id, "old.wav", path); err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if ok, err := store.Claim(ctx, id); err != nil || !ok {
		t.Fatalf("Claim returned %v err=%v", ok, err)
	}
	if err := store.Complete(ctx, id, &salience.AnalysisResult{FileID: id, Filename: "old.wav", Segments: []salience.Segment{}}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	queued := testsupport.NewJob(t, store, "fresh.wav")

	mgr := NewManager(cfg, store, logging.NewNop())
	if n, err := mgr.PurgeExpired(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing inside retention, got %d err=%v", n, err)
	}
	n, err := mgr.purgeBefore(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("purgeBefore returned %d err=%v", n, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected upload deleted, stat err=%v", err)
	}
	if job, _ := store.GetByID(ctx, queued.ID); job == nil {
		t.Fatal("expected queued job to survive purge")
	}
}

func TestHeartbeatReclaimDisabledWithoutTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "hb.wav")
	if ok, err := store.Claim(context.Background(), job.ID); err != nil || !ok {
		t.Fatalf("Claim returned %v err=%v", ok, err)
	}

	monitor := NewHeartbeatMonitor(store, logging.NewNop(), time.Second, 0)
	if n, err := monitor.ReclaimStale(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected reclaim disabled, got %d err=%v", n, err)
	}
	monitor = NewHeartbeatMonitor(store, logging.NewNop(), time.Second, time.Hour)
	if n, err := monitor.ReclaimStale(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected fresh job kept, got %d err=%v", n, err)
	}
}
