package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected present status %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected missing status %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank status %#v", results[2])
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: false},
		{Name: "b", Available: false, Optional: true},
		{Name: "c", Available: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "a" {
		t.Fatalf("unexpected missing list %#v", missing)
	}
}

func TestCheckFFmpegReadsVersion(t *testing.T) {
	stub := writeStub(t, t.TempDir(), "ffmpeg", "#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) 2000-2024'\necho 'built with gcc'\n")
	status := CheckFFmpeg(context.Background(), stub)
	if !status.Available || !status.Optional {
		t.Fatalf("expected available optional ffmpeg, got %#v", status)
	}
	if status.Detail != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version detail %q", status.Detail)
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	status := CheckFFmpeg(context.Background(), "salient-test-missing-ffmpeg")
	if status.Available || status.Detail == "" {
		t.Fatalf("expected unavailable ffmpeg, got %#v", status)
	}
	if FFmpegRequirement("").Command != "ffmpeg" {
		t.Fatal("expected default ffmpeg command")
	}
}
