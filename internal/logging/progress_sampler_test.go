package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, step := range []float64{0, -1} {
		if s := NewProgressSampler(step); s.step != 0.1 || s.lastBucket != -1 {
			t.Fatalf("step %v: unexpected sampler %+v", step, s)
		}
	}
	if s := NewProgressSampler(0.25); s.step != 0.25 {
		t.Fatalf("expected custom step, got %v", s.step)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(0.5, "processing") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(0.25)
	if !s.ShouldLog(0, "processing") {
		t.Error("first update should log")
	}
	if s.ShouldLog(0.2, "processing") {
		t.Error("same bucket should not log")
	}
	if !s.ShouldLog(0.5, "processing") {
		t.Error("new bucket should log")
	}
	if s.ShouldLog(0.6, "processing") {
		t.Error("same bucket should not log")
	}
	if !s.ShouldLog(1, "processing") {
		t.Error("completion should log")
	}
	if s.ShouldLog(1.5, "processing") {
		t.Error("values above one share the final bucket")
	}
}

func TestProgressSamplerStatusChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(0.25)
	s.ShouldLog(0.75, "processing")
	if !s.ShouldLog(0.75, "done") {
		t.Error("status change should log")
	}
	if s.lastBucket != 3 {
		t.Errorf("lastBucket = %d, want 3", s.lastBucket)
	}
}

func TestProgressSamplerUnknownProgress(t *testing.T) {
	s := NewProgressSampler(0.1)
	if !s.ShouldLog(-1, "queued") {
		t.Error("first status should log")
	}
	if s.ShouldLog(-1, "queued") {
		t.Error("unknown progress should not log again")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(0.1)
	s.ShouldLog(0.5, "processing")
	s.Reset()
	if s.lastStatus != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if !s.ShouldLog(0.5, "processing") {
		t.Error("should log after reset")
	}
}
