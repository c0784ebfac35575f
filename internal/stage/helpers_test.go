package stage_test

import (
	"errors"
	"testing"

	"salient/internal/services"
	"salient/internal/stage"
)

func TestGuardRecoversPanic(t *testing.T) {
	err := stage.Guard("analysis", func() error {
		var values []int
		_ = values[3]
		return nil
	})
	var panicErr *stage.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if panicErr.Stage != "analysis" || len(panicErr.Stack) == 0 {
		t.Fatalf("unexpected panic error %#v", panicErr)
	}
	if services.ClassifyFailure(err) != services.KindTransient {
		t.Fatalf("unexpected kind %s", services.ClassifyFailure(err))
	}
}

func TestGuardPassesThroughErrors(t *testing.T) {
	want := errors.New("boom")
	if err := stage.Guard("analysis", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected original error, got %v", err)
	}
	if err := stage.Guard("analysis", func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestHealthConstructors(t *testing.T) {
	if h := stage.Healthy("analysis"); !h.Ready || h.Name != "analysis" {
		t.Fatalf("unexpected healthy record %#v", h)
	}
	if h := stage.Unhealthy("analysis", "ffmpeg missing"); h.Ready || h.Detail != "ffmpeg missing" {
		t.Fatalf("unexpected unhealthy record %#v", h)
	}
}
