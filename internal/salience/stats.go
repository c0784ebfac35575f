package salience

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// dbFloor is the linear amplitude clamp before conversion to dBFS (-180 dB).
const dbFloor = 1e-9

// SegmentStats annotates span with loudness statistics taken from the RMS
// frames it covers. Frame indices are round(t*sampleRate/HopLength), clamped
// to the series, and the slice is inclusive of both ends.
func SegmentStats(span Span, rms []float64, sampleRate int) Segment {
	seg := Segment{
		StartSec:    span.StartSec,
		EndSec:      span.EndSec,
		DurationSec: span.Duration(),
		Keywords:    []string{},
	}
	if len(rms) == 0 || sampleRate <= 0 {
		seg.PeakDbfs = ToDbfs(0)
		seg.MinDbfs = ToDbfs(0)
		return seg
	}

	i0 := timeToFrame(span.StartSec, sampleRate, len(rms))
	i1 := timeToFrame(span.EndSec, sampleRate, len(rms))
	if i1 < i0 {
		i1 = i0
	}
	local := rms[i0 : i1+1]

	seg.PeakDbfs = ToDbfs(floats.Max(local))
	seg.MinDbfs = ToDbfs(floats.Min(local))
	seg.AvgRms = stat.Mean(local, nil)
	return seg
}

// ToDbfs converts a linear amplitude to decibels relative to full scale.
func ToDbfs(v float64) float64 {
	return 20 * math.Log10(math.Max(v, dbFloor))
}

func timeToFrame(t float64, sampleRate, frames int) int {
	idx := int(math.Round(t * float64(sampleRate) / HopLength))
	return max(0, min(idx, frames-1))
}
