package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"salient/internal/services"
)

// ConvertToWAV transcodes source into a mono 16-bit PCM WAV at sampleRate.
func ConvertToWAV(ctx context.Context, ffmpegBinary, source, dest string, sampleRate int) error {
	binary := strings.TrimSpace(ffmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		return fmt.Errorf("ffmpeg convert: invalid sample rate %d", sampleRate)
	}
	if _, err := exec.LookPath(binary); err != nil {
		return services.Wrap(services.ErrExternalTool, "decode", "locate ffmpeg",
			fmt.Sprintf("binary %q not found", binary), err)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg convert: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
