package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"salient/internal/api"
	"salient/internal/config"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/workflow"
)

type apiServer struct {
	cfg    *config.Config
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		bind:   strings.TrimSpace(cfg.API.Bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// routes builds the handler tree. Uploads can be large, so the server sets no
// read or write timeout; the upload handler bounds the body instead.
func (s *apiServer) routes() http.Handler {
	token := strings.TrimSpace(s.cfg.API.Token)
	m := s.daemon.metrics
	mux := http.NewServeMux()

	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(m, route, authMiddleware(token, h)))
	}
	handle("POST /api/upload", "upload", s.handleUpload)
	handle("GET /api/status/{id}", "status", s.handleStatus)
	handle("GET /api/result/{id}", "result", s.handleResult)
	handle("GET /api/jobs", "jobs", s.handleJobs)
	handle("DELETE /api/jobs", "jobs_clear", s.handleClear)
	handle("DELETE /api/jobs/{id}", "jobs_remove", s.handleRemove)
	mux.HandleFunc("GET /api/health", instrument(m, "health", s.handleHealth))
	if s.cfg.Metrics.Enabled && m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return corsMiddleware(strings.TrimSpace(s.cfg.API.CORSOrigin), mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.daemon.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if job == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"status": "unknown", "message": "No such job"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusFromJob(job))
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	raw, err := s.daemon.store.ResultJSON(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if raw == nil {
		s.writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Not ready"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	list, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(list)})
}

// statusQuery collects ?status= values, which may repeat or hold a comma list.
func statusQuery(r *http.Request) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := jobs.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	statuses, err := statusQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	removed, err := s.daemon.workflow.ClearJobs(r.Context(), statuses...)
	if errors.Is(err, workflow.ErrNotClearable) {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Removed: len(removed), Jobs: api.FromJobs(removed)})
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.workflow.RemoveJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, workflow.ErrJobProcessing) {
		s.writeJSON(w, http.StatusConflict, api.ErrorResponse{Error: "Job is processing"})
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if !removed {
		s.writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "No such job"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.RemoveResponse{Removed: true})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	label := "ok"
	if status.Database.Error != "" || !status.Database.IntegrityCheck {
		label = "degraded"
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:       label,
		PID:          status.PID,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Database:     api.FromDatabaseHealth(status.Database),
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logging.WithContext(r.Context(), s.logger).Error("request failed",
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
	)
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
