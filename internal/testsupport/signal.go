package testsupport

import (
	"math"
	"math/rand/v2"

	"salient/internal/salience"
)

// Silence returns an all-zero waveform of the given length.
func Silence(seconds float64, sampleRate int) salience.Waveform {
	return salience.Waveform{
		Samples:    make([]float64, int(seconds*float64(sampleRate))),
		SampleRate: sampleRate,
	}
}

// AddNoiseBurst overwrites [startSec, endSec) of w with uniform noise in
// [-1, 1). The same seed always produces the same samples.
func AddNoiseBurst(w salience.Waveform, startSec, endSec float64, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed))
	from := max(0, int(startSec*float64(w.SampleRate)))
	to := min(len(w.Samples), int(endSec*float64(w.SampleRate)))
	for i := from; i < to; i++ {
		w.Samples[i] = r.Float64()*2 - 1
	}
}

// Tone returns a sine wave at freq Hz with the given peak amplitude.
func Tone(seconds float64, sampleRate int, freq, amplitude float64) salience.Waveform {
	w := Silence(seconds, sampleRate)
	for i := range w.Samples {
		w.Samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return w
}
