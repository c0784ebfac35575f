package salience

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	weightRMS      = 0.6
	weightFlatness = 0.3
	weightZCR      = 0.1

	// thresholdSigma scales the population standard deviation above the median.
	thresholdSigma = 1.2

	normEpsilon = 1e-9
)

// Score fuses the frame features into one salience value per frame and
// derives the adaptive threshold median + 1.2*stddev.
func Score(series *FrameSeries) *ScoreSeries {
	n := series.Len()
	out := &ScoreSeries{Scores: make([]float64, n)}
	if n == 0 {
		return out
	}

	rms := Normalize(series.RMS)
	flat := Normalize(series.Flatness)
	for i := range out.Scores {
		out.Scores[i] = weightRMS*rms[i] + weightFlatness*flat[i] + weightZCR*series.ZCR[i]
	}

	_, std := stat.PopMeanStdDev(out.Scores, nil)
	out.Threshold = median(out.Scores) + thresholdSigma*std
	return out
}

// Normalize min-max scales x into [0, 1). A constant series maps to zeros.
func Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	lo, hi := floats.Min(x), floats.Max(x)
	scale := hi - lo + normEpsilon
	for i, v := range x {
		out[i] = (v - lo) / scale
	}
	return out
}

// median averages the two middle values for even-length input.
func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
