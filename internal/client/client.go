package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salient/internal/api"
	"salient/internal/config"
)

var (
	// ErrUnknownJob is returned when the daemon has no job with the given id.
	ErrUnknownJob = errors.New("no such job")
	// ErrNotReady is returned when a result is requested before the job is done.
	ErrNotReady = errors.New("result not ready")
)

// HTTPDoer describes the HTTP client used to reach the daemon.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-success response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for the daemon API.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// New constructs a client for baseURL. A nil doer uses http.DefaultClient.
func New(baseURL, token string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    doer,
	}
}

// FromConfig builds a client for the daemon described by cfg.
func FromConfig(cfg *config.Config) *Client {
	return New(BaseURL(cfg.API.Bind), cfg.API.Token, nil)
}

// BaseURL turns a listen address into a URL a local client can dial.
// Wildcard hosts are replaced with loopback.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Upload streams the file at path to the daemon and returns the new job id.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp api.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.FileID == "" {
		return "", errors.New("daemon returned empty file id")
	}
	return resp.FileID, nil
}

// Status fetches the progress view for a job.
func (c *Client) Status(ctx context.Context, id string) (api.StatusResponse, error) {
	var out api.StatusResponse
	req, err := c.newRequest(ctx, http.MethodGet, "/api/status/"+url.PathEscape(id), nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	if isStatus(err, http.StatusNotFound) {
		return out, ErrUnknownJob
	}
	return out, err
}

// Result fetches the raw analysis result JSON for a finished job.
func (c *Client) Result(ctx context.Context, id string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/result/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	err = c.do(req, &raw)
	if isStatus(err, http.StatusNotFound) {
		return nil, ErrNotReady
	}
	return raw, err
}

// Jobs lists jobs, optionally filtered by status names.
func (c *Client) Jobs(ctx context.Context, statuses ...string) ([]api.Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out api.JobListResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Remove deletes a job. It reports false when the job did not exist.
func (c *Client) Remove(ctx context.Context, id string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/jobs/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	var out api.RemoveResponse
	err = c.do(req, &out)
	if isStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return out.Removed, err
}

// Clear removes finished jobs with the given statuses, or every job that is
// not processing when none are given. It returns the removed jobs.
func (c *Client) Clear(ctx context.Context, statuses ...string) ([]api.Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	var out api.ClearResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Health fetches daemon diagnostics.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	req, err := c.newRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return out, err
	}
	return out, c.do(req, &out)
}

// Wait polls a job until it reaches done or error. onUpdate, when set, sees
// every distinct status snapshot.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration, onUpdate func(api.StatusResponse)) (api.StatusResponse, error) {
	if interval <= 0 {
		interval = time.Second
	}
	var last api.StatusResponse
	for {
		status, err := c.Status(ctx, id)
		if err != nil {
			return status, err
		}
		if onUpdate != nil && status != last {
			onUpdate(status)
		}
		last = status
		if status.Status == "done" || status.Status == "error" {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload api.ErrorResponse
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
