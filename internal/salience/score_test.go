package salience_test

import (
	"math"
	"testing"

	"salient/internal/salience"
)

func TestNormalizeRange(t *testing.T) {
	out := salience.Normalize([]float64{3, 1, 2, 5})
	for i, v := range out {
		if v < 0 || v >= 1 {
			t.Fatalf("index %d: value %v outside [0,1)", i, v)
		}
	}
	if out[1] != 0 {
		t.Fatalf("expected minimum to map to 0, got %v", out[1])
	}
	if math.Abs(out[3]-1) > 1e-8 {
		t.Fatalf("expected maximum to map near 1, got %v", out[3])
	}
}

func TestNormalizeConstantSeriesIsZero(t *testing.T) {
	for i, v := range salience.Normalize([]float64{0.25, 0.25, 0.25}) {
		if v != 0 {
			t.Fatalf("index %d: expected 0, got %v", i, v)
		}
	}
	if out := salience.Normalize(nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestScoreWeightsAndThreshold(t *testing.T) {
	series := &salience.FrameSeries{
		RMS:      []float64{0, 1, 0, 1},
		ZCR:      []float64{0, 0, 0, 0},
		Flatness: []float64{1, 1, 1, 1},
		Time:     []float64{0, 0.032, 0.064, 0.096},
	}
	scores := salience.Score(series)
	if len(scores.Scores) != 4 {
		t.Fatalf("expected 4 scores, got %d", len(scores.Scores))
	}
	want := []float64{0, 0.6, 0, 0.6}
	for i := range want {
		if math.Abs(scores.Scores[i]-want[i]) > 1e-6 {
			t.Fatalf("score %d: expected %v, got %v", i, want[i], scores.Scores[i])
		}
	}
	// median 0.3 (mean of middle pair) plus 1.2 * population std 0.3
	if math.Abs(scores.Threshold-0.66) > 1e-6 {
		t.Fatalf("expected threshold 0.66, got %v", scores.Threshold)
	}
}

func TestScoreUsesZCRUnnormalized(t *testing.T) {
	series := &salience.FrameSeries{
		RMS:      []float64{0.5, 0.5, 0.5},
		ZCR:      []float64{0.2, 0.4, 0.6},
		Flatness: []float64{0.3, 0.3, 0.3},
		Time:     []float64{0, 0.032, 0.064},
	}
	scores := salience.Score(series)
	for i, zcr := range series.ZCR {
		if math.Abs(scores.Scores[i]-0.1*zcr) > 1e-9 {
			t.Fatalf("score %d: expected %v, got %v", i, 0.1*zcr, scores.Scores[i])
		}
	}
}

func TestScoreEmptySeries(t *testing.T) {
	scores := salience.Score(&salience.FrameSeries{})
	if len(scores.Scores) != 0 || scores.Threshold != 0 {
		t.Fatalf("expected empty score series, got %#v", scores)
	}
}
