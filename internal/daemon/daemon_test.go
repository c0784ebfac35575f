package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"salient/internal/api"
	"salient/internal/audioanalysis"
	"salient/internal/config"
	"salient/internal/daemon"
	"salient/internal/logging"
	"salient/internal/testsupport"
	"salient/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	wf := workflow.NewManager(cfg, store, logging.NewNop())
	wf.ConfigureStages(workflow.StageSet{Analyzer: audioanalysis.NewAnalyzer(cfg, store, logging.NewNop(), nil)})
	d, err := daemon.New(cfg, store, logging.NewNop(), wf, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	addr := d.Addr()
	if addr == "" {
		t.Fatal("expected listening address")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !health.Workflow.Running || health.PID == 0 {
		t.Fatalf("unexpected health %#v", health)
	}

	status := d.Status(ctx)
	if !status.Running || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status %#v", status)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	other := *cfg
	second := newDaemon(t, &other)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict for second daemon")
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if _, err := daemon.New(cfg, store, nil, nil, nil); err == nil {
		t.Fatal("expected error without workflow manager")
	}
}
