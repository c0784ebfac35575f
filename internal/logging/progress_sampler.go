package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs. It emits when the job
// status changes or progress (a fraction in [0,1]) crosses into a new step.
type ProgressSampler struct {
	step       float64
	lastStatus string
	lastBucket int
}

// NewProgressSampler constructs a sampler; a non-positive step defaults to 0.1.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 0.1
	}
	return &ProgressSampler{step: step, lastBucket: -1}
}

// ShouldLog reports whether a progress update should be logged. A negative
// progress means unknown and only status changes are considered.
func (s *ProgressSampler) ShouldLog(progress float64, status string) bool {
	if s == nil {
		return true
	}
	status = strings.TrimSpace(status)
	emit := false
	if status != "" && status != s.lastStatus {
		s.lastStatus = status
		s.lastBucket = -1
		emit = true
	}
	if progress >= 0 {
		bucket := int(min(progress, 1) / s.step)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state, e.g. when a new job starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStatus = ""
	s.lastBucket = -1
}
