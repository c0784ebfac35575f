package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salient/internal/api"
	"salient/internal/config"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/metrics"
	"salient/internal/salience"
	"salient/internal/testsupport"
	"salient/internal/workflow"
)

type testEnv struct {
	cfg     *config.Config
	store   *jobs.Store
	daemon  *Daemon
	handler http.Handler
}

func newTestEnv(t *testing.T, opts ...testsupport.ConfigOption) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	wf := workflow.NewManager(cfg, store, logging.NewNop())
	d, err := New(cfg, store, logging.NewNop(), wf, metrics.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &testEnv{cfg: cfg, store: store, daemon: d, handler: d.api.server.Handler}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestUploadQueuesJob(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(uploadRequest(t, "file", "talk.wav", []byte("RIFF....WAVE")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.UploadResponse](t, rec)
	if resp.FileID == "" {
		t.Fatal("expected fileId")
	}

	job, err := env.store.GetByID(context.Background(), resp.FileID)
	if err != nil || job == nil {
		t.Fatalf("GetByID returned %v err=%v", job, err)
	}
	if job.Status != jobs.StatusQueued || job.Filename != "talk.wav" {
		t.Fatalf("unexpected job %#v", job)
	}
	want := filepath.Join(env.cfg.Paths.DataDir, resp.FileID+"_talk.wav")
	if job.SourcePath != want {
		t.Fatalf("expected source %s, got %s", want, job.SourcePath)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "RIFF....WAVE" {
		t.Fatalf("unexpected stored upload %q err=%v", data, err)
	}
}

func TestUploadSanitizesFilename(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(uploadRequest(t, "file", "../../secret.wav", []byte("x")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[api.UploadResponse](t, rec)
	job, _ := env.store.GetByID(context.Background(), resp.FileID)
	if job.Filename != "secret.wav" || filepath.Dir(job.SourcePath) != env.cfg.Paths.DataDir {
		t.Fatalf("upload escaped data dir: %#v", job)
	}
}

func TestUploadTooLarge(t *testing.T) {
	env := newTestEnv(t, testsupport.WithMaxUploadMB(1))
	rec := env.do(uploadRequest(t, "file", "big.wav", bytes.Repeat([]byte{1}, (1<<20)+10)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"File exceeds 1 MB."}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	entries, _ := os.ReadDir(env.cfg.Paths.DataDir)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), "_big.wav") {
			t.Fatalf("expected partial upload removed, found %s", entry.Name())
		}
	}
	list, _ := env.store.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected no job, got %d", len(list))
	}
}

func TestUploadAtLimitAccepted(t *testing.T) {
	env := newTestEnv(t, testsupport.WithMaxUploadMB(1))
	rec := env.do(uploadRequest(t, "file", "edge.wav", bytes.Repeat([]byte{1}, 1<<20)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at exactly the limit, got %d", rec.Code)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(uploadRequest(t, "other", "x.wav", []byte("x"))); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing field, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain"))
	if rec := env.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart body, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/status/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	unknown := decode[map[string]string](t, rec)
	if unknown["status"] != "unknown" || unknown["message"] != "No such job" || len(unknown) != 2 {
		t.Fatalf("unexpected unknown body %v", unknown)
	}

	job := testsupport.NewJob(t, env.store, "talk.wav")
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/status/"+job.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	status := decode[api.StatusResponse](t, rec)
	if status.Status != "queued" || status.Progress != 0 || status.Message != jobs.MessageQueued {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestResultEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job := testsupport.NewJob(t, env.store, "talk.wav")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/result/"+job.ID, nil))
	if rec.Code != http.StatusNotFound || strings.TrimSpace(rec.Body.String()) != `{"error":"Not ready"}` {
		t.Fatalf("expected not ready, got %d %q", rec.Code, rec.Body.String())
	}

	if ok, err := env.store.Claim(ctx, job.ID); err != nil || !ok {
		t.Fatalf("Claim returned %v err=%v", ok, err)
	}
	result := &salience.AnalysisResult{FileID: job.ID, Filename: "talk.wav", DurationSec: 4, Segments: []salience.Segment{}}
	if err := env.store.Complete(ctx, job.ID, result); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/result/"+job.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[salience.AnalysisResult](t, rec)
	if got.FileID != job.ID || got.DurationSec != 4 {
		t.Fatalf("unexpected result %#v", got)
	}
}

func TestJobsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	first := testsupport.NewJob(t, env.store, "a.wav")
	second := testsupport.NewJob(t, env.store, "b.wav")
	if ok, err := env.store.Claim(context.Background(), first.ID); err != nil || !ok {
		t.Fatalf("Claim returned %v err=%v", ok, err)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if list := decode[api.JobListResponse](t, rec); len(list.Jobs) != 2 {
		t.Fatalf("expected two jobs, got %#v", list)
	}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/jobs?status=processing", nil))
	list := decode[api.JobListResponse](t, rec)
	if len(list.Jobs) != 1 || list.Jobs[0].FileID != first.ID {
		t.Fatalf("unexpected filtered list %#v", list)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs/"+first.ID, nil))
	if rec.Code != http.StatusConflict || strings.TrimSpace(rec.Body.String()) != `{"error":"Job is processing"}` {
		t.Fatalf("expected 409 for processing job, got %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs/"+second.ID, nil))
	if rec.Code != http.StatusOK || !decode[api.RemoveResponse](t, rec).Removed {
		t.Fatalf("expected removal, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs/"+second.ID, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestClearJobsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	finish := func(name string, fail bool) *jobs.Job {
		job := testsupport.NewJob(t, env.store, name)
		if ok, err := env.store.Claim(ctx, job.ID); err != nil || !ok {
			t.Fatalf("Claim returned %v err=%v", ok, err)
		}
		if fail {
			if err := env.store.Fail(ctx, job.ID, "boom", ""); err != nil {
				t.Fatalf("Fail failed: %v", err)
			}
			return job
		}
		result := &salience.AnalysisResult{FileID: job.ID, Filename: name, Segments: []salience.Segment{}}
		if err := env.store.Complete(ctx, job.ID, result); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		return job
	}
	done := finish("done.wav", false)
	failed := finish("failed.wav", true)
	queued := testsupport.NewJob(t, env.store, "queued.wav")

	if rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs?status=queued", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for queued clear, got %d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs?status=bogus", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/jobs?status=done,error", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	cleared := decode[api.ClearResponse](t, rec)
	if cleared.Removed != 2 || len(cleared.Jobs) != 2 {
		t.Fatalf("unexpected clear response %#v", cleared)
	}
	for _, id := range []string{done.ID, failed.ID} {
		if job, _ := env.store.GetByID(ctx, id); job != nil {
			t.Fatalf("expected job %s cleared", id)
		}
	}
	if job, _ := env.store.GetByID(ctx, queued.ID); job == nil {
		t.Fatal("expected queued job kept")
	}
}

func TestBearerAuth(t *testing.T) {
	env := newTestEnv(t, testsupport.WithAPIToken("s3cret"))

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := env.do(req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected health to stay open, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodOptions, "/api/upload", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/status/x", nil))
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header on regular responses")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(uploadRequest(t, "file", "m.wav", []byte("abc")))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	health := decode[api.HealthResponse](t, rec)
	if health.Status != "ok" || health.Workflow.JobStats["queued"] != 1 || health.Database.TotalJobs != 1 {
		t.Fatalf("unexpected health %#v", health)
	}
	if len(health.Dependencies) != 1 || health.Dependencies[0].Name != "FFmpeg" {
		t.Fatalf("unexpected dependencies %#v", health.Dependencies)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`salient_uploads_total{outcome="accepted"} 1`, `salient_upload_bytes_total 3`, "salient_http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Metrics.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, logging.NewNop(), workflow.NewManager(cfg, store, logging.NewNop()), metrics.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := httptest.NewRecorder()
	d.api.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when metrics disabled, got %d", rec.Code)
	}
}

func TestSaveUploadLimit(t *testing.T) {
	dir := t.TempDir()
	n, err := saveUpload(filepath.Join(dir, "ok"), strings.NewReader("hello"), 5)
	if err != nil || n != 5 {
		t.Fatalf("saveUpload returned %d err=%v", n, err)
	}
	if _, err := saveUpload(filepath.Join(dir, "big"), strings.NewReader("hello!"), 5); err != errUploadTooLarge {
		t.Fatalf("expected errUploadTooLarge, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "big")); !os.IsNotExist(err) {
		t.Fatal("expected oversized file removed")
	}
	if _, err := saveUpload(filepath.Join(dir, "ok"), strings.NewReader("x"), 5); err == nil {
		t.Fatal("expected error when destination exists")
	}
}
