package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"salient/internal/salience"
	"salient/internal/services"
)

const wavFormatPCM = 1

// Decoder produces analysis-ready waveforms from files on disk.
type Decoder struct {
	FFmpegBinary string
	SampleRate   int
	// TempDir receives intermediate ffmpeg output. Empty means os.TempDir.
	TempDir string
}

// NewDecoder builds a decoder targeting sampleRate.
func NewDecoder(ffmpegBinary string, sampleRate int) *Decoder {
	return &Decoder{FFmpegBinary: ffmpegBinary, SampleRate: sampleRate}
}

// Decode reads path into a mono waveform at the decoder's sample rate.
// PCM WAV at another rate is resampled by ffmpeg when it is installed and
// by an anti-aliased in-process resampler otherwise.
// Unreadable or empty audio is reported as a salience.DecodeInputError.
func (d *Decoder) Decode(ctx context.Context, path string) (salience.Waveform, error) {
	source := filepath.Base(path)
	if d.SampleRate <= 0 {
		return salience.Waveform{}, services.Wrap(services.ErrConfiguration, "decode", "sample rate",
			fmt.Sprintf("invalid target sample rate %d", d.SampleRate), nil)
	}
	if _, err := os.Stat(path); err != nil {
		return salience.Waveform{}, salience.NewDecodeInputError(source, err)
	}

	w, err := readPCMWAV(path)
	if err == nil {
		if w.SampleRate != d.SampleRate && d.ffmpegAvailable() {
			resampled, convErr := d.decodeConverted(ctx, path, source)
			if convErr == nil || ctx.Err() != nil {
				return resampled, convErr
			}
			// The file is valid PCM, so fall back to in-process resampling.
		}
		return d.finish(source, w)
	}
	if !errors.Is(err, errNotPCMWAV) {
		return salience.Waveform{}, salience.NewDecodeInputError(source, err)
	}

	return d.decodeConverted(ctx, path, source)
}

// decodeConverted runs path through ffmpeg, which also resamples to the
// target rate, and reads the converted WAV.
func (d *Decoder) decodeConverted(ctx context.Context, path, source string) (salience.Waveform, error) {
	converted, err := d.convert(ctx, path)
	if err != nil {
		return salience.Waveform{}, err
	}
	defer os.Remove(converted)

	w, err := readPCMWAV(converted)
	if err != nil {
		return salience.Waveform{}, salience.NewDecodeInputError(source, err)
	}
	return d.finish(source, w)
}

func (d *Decoder) ffmpegAvailable() bool {
	binary := strings.TrimSpace(d.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

func (d *Decoder) convert(ctx context.Context, path string) (string, error) {
	tmp, err := os.CreateTemp(d.TempDir, "salient-decode-*.wav")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "decode", "create temp file", "", err)
	}
	dest := tmp.Name()
	tmp.Close()

	if err := ConvertToWAV(ctx, d.FFmpegBinary, path, dest, d.SampleRate); err != nil {
		os.Remove(dest)
		if errors.Is(err, services.ErrExternalTool) || ctx.Err() != nil {
			return "", err
		}
		return "", salience.NewDecodeInputError(filepath.Base(path), err)
	}
	return dest, nil
}

func (d *Decoder) finish(source string, w salience.Waveform) (salience.Waveform, error) {
	if w.SampleRate != d.SampleRate {
		w.Samples = resample(w.Samples, w.SampleRate, d.SampleRate)
		w.SampleRate = d.SampleRate
	}
	if len(w.Samples) == 0 {
		return salience.Waveform{}, salience.NewDecodeInputError(source, salience.ErrEmptyWaveform)
	}
	return w, nil
}

var errNotPCMWAV = errors.New("not a PCM WAV file")

// readPCMWAV decodes an integer PCM WAV and downmixes it to mono at the
// file's native sample rate.
func readPCMWAV(path string) (salience.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return salience.Waveform{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return salience.Waveform{}, errNotPCMWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return salience.Waveform{}, errNotPCMWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return salience.Waveform{}, fmt.Errorf("read pcm: %w", err)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		return salience.Waveform{}, fmt.Errorf("invalid channel count %d", channels)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return salience.Waveform{}, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	samples := make([]float64, len(buf.Data))
	if bitDepth == 8 {
		// 8-bit PCM is unsigned with a 128 midpoint.
		for i, v := range buf.Data {
			samples[i] = float64(v-128) / 128
		}
	} else {
		scale := math.Exp2(float64(bitDepth - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	}
	return salience.Waveform{
		Samples:    downmix(samples, channels),
		SampleRate: int(dec.SampleRate),
	}, nil
}
