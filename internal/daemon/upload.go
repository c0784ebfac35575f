package daemon

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"salient/internal/api"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/services"
	"salient/internal/textutil"
)

const uploadField = "file"

var errUploadTooLarge = errors.New("upload too large")

// handleUpload streams the multipart "file" field to the data directory and
// queues a job for it. The size ceiling is enforced while copying so an
// oversized upload never lands on disk in full.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	m := s.daemon.metrics
	limit := s.cfg.MaxUploadBytes()
	tooLarge := api.ErrorResponse{Error: fmt.Sprintf("File exceeds %d MB.", s.cfg.API.MaxUploadMB)}

	if r.ContentLength > 0 && limit > 0 && r.ContentLength > limit+(1<<20) {
		m.RecordUpload("too_large", 0)
		s.writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	reader, err := r.MultipartReader()
	if err != nil {
		m.RecordUpload("invalid", 0)
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Expected multipart form with a file field."})
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.RecordUpload("invalid", 0)
			s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Malformed multipart body."})
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		id := jobs.NewID()
		filename := textutil.UploadFileName(part.FileName())
		dest := filepath.Join(s.cfg.Paths.DataDir, id+"_"+filename)
		written, err := saveUpload(dest, part, limit)
		_ = part.Close()
		switch {
		case errors.Is(err, errUploadTooLarge):
			m.RecordUpload("too_large", 0)
			s.writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		case err != nil:
			m.RecordUpload("failed", 0)
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}

		if _, err := s.daemon.store.NewJob(r.Context(), id, filename, dest); err != nil {
			_ = os.Remove(dest)
			m.RecordUpload("failed", 0)
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		m.RecordUpload("accepted", written)
		s.daemon.workflow.Notify()

		logging.WithContext(services.WithJobID(r.Context(), id), s.logger).Info("upload queued",
			logging.String(logging.FieldEventType, "upload_queued"),
			logging.String("filename", filename),
			logging.Int64("bytes", written),
		)
		s.writeJSON(w, http.StatusOK, api.UploadResponse{FileID: id})
		return
	}

	m.RecordUpload("invalid", 0)
	s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "Missing file field."})
}

// saveUpload copies at most limit bytes from src into dest. A source longer
// than limit removes the partial file and returns errUploadTooLarge. A limit
// of zero or less disables the check.
func saveUpload(dest string, src io.Reader, limit int64) (int64, error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	reader := src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(dest)
		return 0, fmt.Errorf("write upload file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(dest)
		return 0, fmt.Errorf("close upload file: %w", closeErr)
	case limit > 0 && written > limit:
		_ = os.Remove(dest)
		return 0, errUploadTooLarge
	}
	return written, nil
}
