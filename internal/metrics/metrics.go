// Package metrics exposes Prometheus instrumentation for the daemon.
//
// A nil *Metrics is valid and records nothing, so components accept one
// unconditionally and the daemon decides whether metrics are enabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salient"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	uploadBytes      prometheus.Counter
	jobsFinished     *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	decodeDuration   prometheus.Histogram
	segmentsPerJob   prometheus.Histogram
	audioSeconds     prometheus.Counter
	jobsByStatus     *prometheus.GaugeVec
	workersBusy      prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by outcome",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted through the upload endpoint",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a terminal state",
		}, []string{"status", "kind"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time from claim to terminal state",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		decodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding uploads into waveforms",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		segmentsPerJob: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segments_per_job",
			Help:      "Salient segments found per completed job",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		}),
		audioSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio analyzed",
		}),
		jobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs",
			Help:      "Jobs currently stored, by status",
		}, []string{"status"}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Workers currently analyzing a job",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploadsTotal,
		m.uploadBytes,
		m.jobsFinished,
		m.analysisDuration,
		m.decodeDuration,
		m.segmentsPerJob,
		m.audioSeconds,
		m.jobsByStatus,
		m.workersBusy,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in Prometheus or OpenMetrics format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.registry,
	})
}

// RecordUpload counts an upload attempt. Bytes are added only when accepted.
func (m *Metrics) RecordUpload(outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "accepted" && bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

// RecordJobDone records a job that completed successfully.
func (m *Metrics) RecordJobDone(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues("done", "").Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
}

// RecordAnalysis records the size of one analysis result.
func (m *Metrics) RecordAnalysis(segments int, audioSec float64) {
	if m == nil {
		return
	}
	m.segmentsPerJob.Observe(float64(segments))
	if audioSec > 0 {
		m.audioSeconds.Add(audioSec)
	}
}

// RecordJobFailed records a failed analysis with its failure kind.
func (m *Metrics) RecordJobFailed(elapsed time.Duration, kind string) {
	if m == nil {
		return
	}
	m.jobsFinished.WithLabelValues("error", kind).Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
}

// ObserveDecode returns a func that records decode time when called.
func (m *Metrics) ObserveDecode() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.decodeDuration.Observe(time.Since(start).Seconds())
	}
}

// SetJobCounts replaces the per-status job gauges.
func (m *Metrics) SetJobCounts(counts map[string]int, statuses []string) {
	if m == nil {
		return
	}
	for _, status := range statuses {
		m.jobsByStatus.WithLabelValues(status).Set(float64(counts[status]))
	}
}

// WorkerBusy adjusts the busy-worker gauge by delta.
func (m *Metrics) WorkerBusy(delta int) {
	if m == nil {
		return
	}
	m.workersBusy.Add(float64(delta))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, httpCode(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func httpCode(code int) string {
	if code <= 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
