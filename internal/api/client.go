package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podscribe/internal/services"
	"podscribe/internal/transcript"
)

// requestTimeout bounds control-plane calls. Transcribe, streaming, and
// upload calls run on the caller's context alone; jobs take minutes.
const requestTimeout = 10 * time.Second

// maxEventBytes caps one stream line; result events carry whole transcripts.
const maxEventBytes = 16 << 20

// Client talks to the daemon HTTP API with one method per operation.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the daemon listening at bind, which may be
// a bare host:port or a full http:// URL.
func NewClient(bind string) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{baseURL: base, http: &http.Client{}}
}

// BaseURL returns the normalized daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health fetches the daemon health snapshot.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/healthz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Jobs lists ledger jobs, optionally filtered by status names.
func (c *Client) Jobs(ctx context.Context, statuses ...string) ([]Job, error) {
	query := url.Values{}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			query.Add("status", trimmed)
		}
	}
	var out JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", query, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Job fetches one job by ID.
func (c *Client) Job(ctx context.Context, id string) (*Job, error) {
	var out JobResponse
	if err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// RemoveJob deletes one terminal job record.
func (c *Client) RemoveJob(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/jobs/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	var out RemoveResponse
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

// ClearJobs deletes job records by scope: "completed", "failed", or "all".
// It returns the number of deleted records.
func (c *Client) ClearJobs(ctx context.Context, scope string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	target := c.baseURL + "/api/jobs"
	if trimmed := strings.TrimSpace(scope); trimmed != "" {
		target += "?scope=" + url.QueryEscape(trimmed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return 0, err
	}
	var out ClearResponse
	if err := c.do(req, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}

// Metadata resolves episode metadata without starting a job.
func (c *Client) Metadata(ctx context.Context, episodeURL string) (*EpisodeMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataClientTimeout)
	defer cancel()
	query := url.Values{"url": []string{episodeURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/metadata?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out EpisodeMetadata
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// metadataClientTimeout leaves headroom over the server-side metadata
// deadline so the daemon's own timeout error arrives intact.
const metadataClientTimeout = 90 * time.Second

// TestNotify asks the daemon to publish a test notification.
func (c *Client) TestNotify(ctx context.Context) (*NotifyTestResponse, error) {
	var out NotifyTestResponse
	if err := c.postJSON(ctx, "/api/test-notify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload streams a local audio file to the daemon and returns the stored
// token a transcribe request presents as its file_path.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transcribe runs a job synchronously and returns the finished transcript.
func (c *Client) Transcribe(ctx context.Context, request TranscribeRequest) (*transcript.Transcript, error) {
	req, err := c.jsonRequest(ctx, "/api/transcribe", request)
	if err != nil {
		return nil, err
	}
	var result transcript.Transcript
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TranscribeStream runs a job and invokes onEvent for every stream event
// until the terminal result or error arrives. An error returned by onEvent
// aborts the stream and is returned as is.
func (c *Client) TranscribeStream(ctx context.Context, request TranscribeRequest, onEvent func(StreamEvent) error) error {
	req, err := c.jsonRequest(ctx, "/api/transcribe-stream", request)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: daemon unreachable at %s: %v", services.ErrUnavailable, c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	for scanner.Scan() {
		payload, found := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "data:")
		if !found {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}
		var event StreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if err := onEvent(event); err != nil {
			return err
		}
		if event.Terminal() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream ended without a terminal event")
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := c.jsonRequest(ctx, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// jsonRequest builds a POST carrying body as JSON. It applies no timeout;
// wrap the context first for bounded calls.
func (c *Client) jsonRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: daemon unreachable at %s: %v", services.ErrUnavailable, c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the daemon's uniform {"error": message} body,
// falling back to raw text or the HTTP status line.
func decodeAPIError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var body ErrorResponse
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return fmt.Errorf("daemon: %s", body.Error)
	}
	text := strings.TrimSpace(string(payload))
	if text == "" {
		text = resp.Status
	}
	return fmt.Errorf("daemon: %s", text)
}
