package audioanalysis

import (
	"fmt"
	"strings"

	"salient/internal/salience"
	"salient/internal/services"
)

// durationTolerance absorbs float rounding in frame-time arithmetic.
const durationTolerance = 1e-9

// validateResult rejects results that break the segment ordering rules
// before they are stored.
func validateResult(result *salience.AnalysisResult) error {
	if result == nil {
		return services.Wrap(services.ErrValidation, stageName, "validate result", "Analysis returned no result", nil)
	}
	var issues []string
	for i, seg := range result.Segments {
		if !(seg.StartSec < seg.EndSec) {
			issues = append(issues, fmt.Sprintf("segment %d: start %.3f not before end %.3f", i, seg.StartSec, seg.EndSec))
		}
		if seg.DurationSec+durationTolerance < salience.MinSegmentSec {
			issues = append(issues, fmt.Sprintf("segment %d: duration %.3f below minimum", i, seg.DurationSec))
		}
		if seg.StartSec < 0 || seg.EndSec > result.DurationSec+durationTolerance {
			issues = append(issues, fmt.Sprintf("segment %d: [%.3f, %.3f] outside audio", i, seg.StartSec, seg.EndSec))
		}
		if seg.PeakDbfs < seg.MinDbfs {
			issues = append(issues, fmt.Sprintf("segment %d: peak below min", i))
		}
		if seg.Keywords == nil {
			issues = append(issues, fmt.Sprintf("segment %d: keywords missing", i))
		}
		if i > 0 && seg.StartSec < result.Segments[i-1].EndSec {
			issues = append(issues, fmt.Sprintf("segment %d overlaps segment %d", i, i-1))
		}
	}
	if len(issues) > 0 {
		return services.Wrap(services.ErrValidation, stageName, "validate result",
			"Analysis produced inconsistent segments", fmt.Errorf("%s", strings.Join(issues, "; ")))
	}
	return nil
}
