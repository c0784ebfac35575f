package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// FFmpegRequirement describes the decoder fallback for non-WAV uploads.
// It is optional because PCM WAV uploads decode without it.
func FFmpegRequirement(binary string) Requirement {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Decodes uploads that are not PCM WAV",
		Optional:    true,
	}
}

// CheckFFmpeg resolves the ffmpeg binary and records its version line.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	status := CheckBinaries([]Requirement{FFmpegRequirement(binary)})[0]
	if !status.Available {
		return status
	}
	if version := probeVersion(ctx, status.Path); version != "" {
		status.Detail = version
	}
	return status
}

// probeVersion returns the first line of `ffmpeg -version`, or "".
func probeVersion(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
