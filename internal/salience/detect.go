package salience

const (
	// MinSegmentSec is the shortest candidate kept by DetectSpans.
	MinSegmentSec = 0.3
	// MergeGapSec joins spans separated by less than this many seconds.
	MergeGapSec = 0.4
)

// DetectSpans turns the frames whose score exceeds the threshold into
// candidate spans. A run closes on the first frame below threshold or at the
// end of the series; its end time is the time of the last frame above the
// threshold. Runs shorter than MinSegmentSec are dropped.
func DetectSpans(times []float64, scores *ScoreSeries) []Span {
	if scores == nil {
		return nil
	}
	n := min(len(times), len(scores.Scores))
	var spans []Span
	start, lastTrue := -1, -1
	for i := 0; i < n; i++ {
		active := scores.Scores[i] > scores.Threshold
		if active {
			if start < 0 {
				start = i
			}
			lastTrue = i
		}
		if start >= 0 && (!active || i == n-1) {
			span := Span{StartSec: times[start], EndSec: times[lastTrue]}
			if span.Duration() >= MinSegmentSec {
				spans = append(spans, span)
			}
			start = -1
		}
	}
	return spans
}

// MergeSpans greedily joins consecutive spans whose gap is below MergeGapSec.
// Input must be ordered by start time; the input slice is not modified.
func MergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	merged := make([]Span, 0, len(spans))
	current := spans[0]
	for _, next := range spans[1:] {
		if next.StartSec-current.EndSec < MergeGapSec {
			current.EndSec = next.EndSec
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
