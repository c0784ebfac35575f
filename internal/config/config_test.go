package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"salient/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "salient", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.API.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.API.MaxUploadMB != 500 {
		t.Fatalf("expected 500 MB upload ceiling, got %d", cfg.API.MaxUploadMB)
	}
	if cfg.MaxUploadBytes() != 500*1024*1024 {
		t.Fatalf("unexpected upload bytes: %d", cfg.MaxUploadBytes())
	}
	if cfg.Analysis.SampleRate != 16000 {
		t.Fatalf("expected 16 kHz analysis rate, got %d", cfg.Analysis.SampleRate)
	}
	if cfg.API.CORSOrigin != "*" {
		t.Fatalf("expected permissive CORS by default, got %q", cfg.API.CORSOrigin)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "salient.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "salient.toml")

	type payload struct {
		API struct {
			Bind        string `toml:"bind"`
			MaxUploadMB int    `toml:"max_upload_mb"`
		} `toml:"api"`
		Workflow struct {
			Workers           int `toml:"workers"`
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.API.Bind = "0.0.0.0:9000"
	custom.API.MaxUploadMB = 64
	custom.Workflow.Workers = 4
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.API.Bind != "0.0.0.0:9000" {
		t.Fatalf("expected bind override, got %q", cfg.API.Bind)
	}
	if cfg.API.MaxUploadMB != 64 {
		t.Fatalf("expected upload override, got %d", cfg.API.MaxUploadMB)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Workflow.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.Analysis.SampleRate != 16000 {
		t.Fatalf("expected untouched sections to keep defaults, got %d", cfg.Analysis.SampleRate)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "salient.toml")
	contents := "[api]\nbind = \"127.0.0.1:1111\"\ntoken = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dataDir := filepath.Join(tempDir, "env-data")
	t.Setenv("SALIENT_API_TOKEN", "env-token")
	t.Setenv("SALIENT_API_BIND", "127.0.0.1:2222")
	t.Setenv("SALIENT_DATA_DIR", dataDir)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.API.Bind != "127.0.0.1:2222" {
		t.Errorf("expected bind from env, got %q", cfg.API.Bind)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Errorf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	tempDir := t.TempDir()
	t.Chdir(tempDir)
	configPath := filepath.Join(tempDir, "salient.toml")
	if err := os.WriteFile(configPath, []byte("[api]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("SALIENT_API_TOKEN=dotenv-token\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// t.Setenv registers cleanup so the value loaded from .env does not leak.
	t.Setenv("SALIENT_API_TOKEN", "")
	os.Unsetenv("SALIENT_API_TOKEN")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Token != "dotenv-token" {
		t.Fatalf("expected token from .env, got %q", cfg.API.Token)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "salient") {
		t.Fatalf("expected data dir to contain salient, got %q", cfg.Paths.DataDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Workflow.Workers = 0 }},
		{"zero heartbeat", func(c *config.Config) { c.Workflow.HeartbeatInterval = 0 }},
		{"timeout not above interval", func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }},
		{"negative retention", func(c *config.Config) { c.Workflow.RetentionHours = -1 }},
		{"zero upload ceiling", func(c *config.Config) { c.API.MaxUploadMB = 0 }},
		{"bad bind", func(c *config.Config) { c.API.Bind = "localhost" }},
		{"zero sample rate", func(c *config.Config) { c.Analysis.SampleRate = 0 }},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateNotificationsTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "ntfy.sh/salient"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for topic without scheme")
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/salient"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid topic, got %v", err)
	}
	if cfg.NotificationTimeout().Seconds() != 10 {
		t.Fatalf("unexpected default timeout %v", cfg.NotificationTimeout())
	}
}
