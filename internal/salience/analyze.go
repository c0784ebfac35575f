package salience

import (
	"errors"
	"fmt"
)

// Analyze runs the full segmentation pipeline over w and assembles the result
// for jobID. onProgress, when set, is called once per merged segment after its
// statistics are computed. Any error aborts the run without a partial result.
func Analyze(w Waveform, filename, jobID string, onProgress ProgressFunc) (*AnalysisResult, error) {
	features, err := ExtractFeatures(w)
	if err != nil {
		var decodeErr *DecodeInputError
		if errors.As(err, &decodeErr) && decodeErr.Source == "" {
			decodeErr.Source = filename
		}
		return nil, err
	}

	scores := Score(features)
	merged := MergeSpans(DetectSpans(features.Time, scores))

	total := max(len(merged), 1)
	segments := make([]Segment, 0, len(merged))
	for i, span := range merged {
		segments = append(segments, SegmentStats(span, features.RMS, w.SampleRate))
		if onProgress != nil {
			onProgress(Progress{
				Status:   StateProcessing,
				Progress: float64(i+1) / float64(total),
				Message:  fmt.Sprintf("Computing segment %d/%d", i+1, total),
			})
		}
	}

	return &AnalysisResult{
		FileID:      jobID,
		Filename:    filename,
		DurationSec: w.Duration(),
		Segments:    segments,
	}, nil
}
