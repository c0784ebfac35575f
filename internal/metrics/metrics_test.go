package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salient/internal/metrics"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.RecordUpload("accepted", 10)
	m.RecordJobDone(time.Second)
	m.RecordAnalysis(2, 5)
	m.RecordJobFailed(time.Second, "validation")
	m.ObserveDecode()()
	m.SetJobCounts(map[string]int{"queued": 1}, []string{"queued"})
	m.WorkerBusy(1)
	m.ObserveHTTP("/api/upload", 200, time.Millisecond)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestRecordersUpdateCollectors(t *testing.T) {
	m := metrics.New()
	m.RecordUpload("accepted", 2048)
	m.RecordUpload("too_large", 999)
	m.RecordJobDone(2 * time.Second)
	m.RecordAnalysis(3, 12.5)
	m.RecordJobFailed(time.Second, "validation")
	m.SetJobCounts(map[string]int{"queued": 4}, []string{"queued", "done"})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	series := map[string]int{}
	values := map[string]float64{}
	for _, family := range families {
		series[family.GetName()] = len(family.GetMetric())
		for _, metric := range family.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[family.GetName()] += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				values[family.GetName()] += g.GetValue()
			}
		}
	}
	if series["salient_uploads_total"] != 2 || series["salient_jobs_finished_total"] != 2 || series["salient_jobs"] != 2 {
		t.Fatalf("unexpected series counts %v", series)
	}
	if values["salient_upload_bytes_total"] != 2048 {
		t.Fatalf("expected only accepted bytes counted, got %v", values["salient_upload_bytes_total"])
	}
	if values["salient_audio_seconds_total"] != 12.5 || values["salient_jobs"] != 4 {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := metrics.New()
	m.ObserveHTTP("/api/status", 404, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `salient_http_requests_total{code="404",route="/api/status"} 1`) {
		t.Fatalf("expected request counter in output:\n%s", body)
	}
}
