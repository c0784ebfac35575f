package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// antiAliasTaps is the FIR length used before decimation. Odd so the filter
// has an integer group delay.
const antiAliasTaps = 129

// antiAliasMargin places the cutoff just below the target Nyquist frequency.
const antiAliasMargin = 0.9

// downmix averages interleaved channels into one.
func downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += samples[base+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// resample converts samples between rates. When reducing the rate the input
// is low-pass filtered below the new Nyquist frequency first, then the
// filtered signal is linearly interpolated onto the new grid.
func resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	if n == 0 {
		return nil
	}
	if to < from {
		cutoff := antiAliasMargin * 0.5 * float64(to) / float64(from)
		samples = lowPass(samples, lowPassKernel(cutoff, antiAliasTaps))
	}
	out := make([]float64, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// lowPassKernel builds a Blackman-windowed sinc filter with unity DC gain.
// cutoff is in cycles per input sample, in (0, 0.5).
func lowPassKernel(cutoff float64, taps int) []float64 {
	h := make([]float64, taps)
	mid := float64(taps-1) / 2
	for i := range h {
		x := float64(i) - mid
		if x == 0 {
			h[i] = 2 * cutoff
			continue
		}
		h[i] = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
	}
	window.Blackman(h)

	var sum float64
	for _, v := range h {
		sum += v
	}
	for i := range h {
		h[i] /= sum
	}
	return h
}

// lowPass convolves samples with a symmetric kernel. Samples past either end
// repeat the edge value so a constant signal passes unchanged.
func lowPass(samples, kernel []float64) []float64 {
	half := len(kernel) / 2
	last := len(samples) - 1
	out := make([]float64, len(samples))
	for i := range out {
		var acc float64
		for k, coeff := range kernel {
			j := min(max(i+k-half, 0), last)
			acc += coeff * samples[j]
		}
		out[i] = acc
	}
	return out
}
