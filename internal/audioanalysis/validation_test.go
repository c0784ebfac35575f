package audioanalysis

import (
	"errors"
	"testing"

	"salient/internal/salience"
	"salient/internal/services"
)

func segment(start, end float64) salience.Segment {
	return salience.Segment{
		StartSec:    start,
		EndSec:      end,
		DurationSec: end - start,
		PeakDbfs:    -3,
		MinDbfs:     -20,
		AvgRms:      0.2,
		Keywords:    []string{},
	}
}

func TestValidateResult(t *testing.T) {
	tests := []struct {
		name    string
		result  *salience.AnalysisResult
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &salience.AnalysisResult{DurationSec: 5}, false},
		{"ordered", &salience.AnalysisResult{DurationSec: 5, Segments: []salience.Segment{segment(0, 1), segment(2, 3)}}, false},
		{"overlap", &salience.AnalysisResult{DurationSec: 5, Segments: []salience.Segment{segment(0, 2), segment(1.5, 3)}}, true},
		{"too short", &salience.AnalysisResult{DurationSec: 5, Segments: []salience.Segment{segment(1, 1.1)}}, true},
		{"past end", &salience.AnalysisResult{DurationSec: 2, Segments: []salience.Segment{segment(1, 3)}}, true},
		{"nil keywords", &salience.AnalysisResult{DurationSec: 5, Segments: []salience.Segment{{StartSec: 0, EndSec: 1, DurationSec: 1}}}, true},
	}
	for _, tc := range tests {
		err := validateResult(tc.result)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: wantErr=%v got %v", tc.name, tc.wantErr, err)
		}
		if err != nil && !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation marker, got %v", tc.name, err)
		}
	}
}
