package salience

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

const (
	// FrameLength is the analysis window in samples.
	FrameLength = 1024
	// HopLength is the distance between consecutive frame starts in samples.
	HopLength = 512

	// amplitudeFloor keeps log() finite for silent spectra.
	amplitudeFloor = 1e-10
)

// ExtractFeatures computes RMS, zero crossing rate, and spectral flatness for
// every frame of w. Frame i covers samples [i*HopLength, i*HopLength+FrameLength);
// samples past the end of the waveform are treated as zero, so the trailing
// partial window still produces a frame.
func ExtractFeatures(w Waveform) (*FrameSeries, error) {
	if err := validateWaveform(w); err != nil {
		return nil, err
	}

	n := frameCount(len(w.Samples))
	series := &FrameSeries{
		RMS:      make([]float64, n),
		ZCR:      make([]float64, n),
		Flatness: make([]float64, n),
		Time:     make([]float64, n),
	}

	ex := newExtractor()
	frame := make([]float64, FrameLength)
	for i := 0; i < n; i++ {
		fillFrame(frame, w.Samples, i*HopLength)
		series.RMS[i] = frameRMS(frame)
		series.ZCR[i] = frameZCR(frame)
		series.Flatness[i] = ex.flatness(frame)
		series.Time[i] = float64(i*HopLength) / float64(w.SampleRate)
	}
	return series, nil
}

func validateWaveform(w Waveform) error {
	if w.SampleRate <= 0 {
		return NewDecodeInputError("", ErrInvalidSampleRate)
	}
	if len(w.Samples) == 0 {
		return NewDecodeInputError("", ErrEmptyWaveform)
	}
	for _, s := range w.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return NewDecodeInputError("", ErrNonFiniteWaveform)
		}
	}
	return nil
}

func frameCount(samples int) int {
	if samples <= 0 {
		return 0
	}
	return (samples + HopLength - 1) / HopLength
}

// fillFrame copies FrameLength samples starting at offset, zero padding the tail.
func fillFrame(dst, samples []float64, offset int) {
	copied := 0
	if offset < len(samples) {
		copied = copy(dst, samples[offset:])
	}
	for i := copied; i < len(dst); i++ {
		dst[i] = 0
	}
}

func frameRMS(frame []float64) float64 {
	return math.Sqrt(floats.Dot(frame, frame) / float64(len(frame)))
}

// frameZCR is the fraction of adjacent sample pairs whose sign differs.
// Zero counts as positive.
func frameZCR(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	prevNeg := frame[0] < 0
	for _, s := range frame[1:] {
		neg := s < 0
		if neg != prevNeg {
			crossings++
		}
		prevNeg = neg
	}
	return float64(crossings) / float64(len(frame)-1)
}

type extractor struct {
	fft      *fourier.FFT
	window   []float64
	windowed []float64
	coeffs   []complex128
}

func newExtractor() *extractor {
	return &extractor{
		fft:      fourier.NewFFT(FrameLength),
		window:   hannWindow(FrameLength),
		windowed: make([]float64, FrameLength),
	}
}

// flatness returns the geometric over arithmetic mean of the magnitude
// spectrum of the Hann windowed frame.
func (e *extractor) flatness(frame []float64) float64 {
	floats.MulTo(e.windowed, frame, e.window)
	e.coeffs = e.fft.Coefficients(e.coeffs, e.windowed)

	var logSum, sum float64
	for _, c := range e.coeffs {
		mag := math.Max(cmplx.Abs(c), amplitudeFloor)
		logSum += math.Log(mag)
		sum += mag
	}
	bins := float64(len(e.coeffs))
	geometric := math.Exp(logSum / bins)
	arithmetic := sum / bins
	return geometric / arithmetic
}

// hannWindow returns the periodic Hann window used for spectral analysis.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
