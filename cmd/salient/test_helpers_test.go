package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"salient/internal/audioanalysis"
	"salient/internal/config"
	"salient/internal/daemon"
	"salient/internal/logging"
	"salient/internal/salience"
	"salient/internal/testsupport"
	"salient/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
	serverURL  string
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// setupCLIConfig writes a config rooted in a temp dir without starting a daemon.
func setupCLIConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.PollInterval = 1
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return cfg, configPath
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg, configPath := setupCLIConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Analyzer: audioanalysis.NewAnalyzer(cfg, store, logger, nil)})

	d, err := daemon.New(cfg, store, logger, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		configPath: configPath,
		serverURL:  "http://" + d.Addr(),
	}
}

func runCLI(t *testing.T, args []string, configPath, serverURL string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	full := make([]string, 0, len(args)+4)
	if configPath != "" {
		full = append(full, "--config", configPath)
	}
	if serverURL != "" {
		full = append(full, "--server", serverURL)
	}
	full = append(full, args...)
	cmd.SetArgs(full)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}

// writeBurstWAV writes five seconds of silence with one noise burst.
func writeBurstWAV(t *testing.T, dir, name string) string {
	t.Helper()
	w := testsupport.Silence(5, 16000)
	testsupport.AddNoiseBurst(w, 2.0, 3.0, 21)
	path := filepath.Join(dir, name)
	testsupport.WriteWAV(t, path, w)
	return path
}

func decodeResult(t *testing.T, out string) salience.AnalysisResult {
	t.Helper()
	var result salience.AnalysisResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result %q: %v", out, err)
	}
	return result
}
