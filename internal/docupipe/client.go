package docupipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunState is the provider run status normalized to three values. All
// retry/backoff/timeout policy lives in the orchestrator; this client is a
// thin wrapper around three idempotent HTTP calls.
type RunState string

const (
	RunProcessing RunState = "processing"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
)

type Config struct {
	BaseURL     string
	APIKey      string
	WorkflowID  string
	HTTPTimeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// SubmitRequest dispatches one document to the configured workflow. Either
// Contents (raw bytes, sent base64) or FileURL must be set; bytes win when
// both are present.
type SubmitRequest struct {
	Contents []byte
	Filename string
	FileURL  string
	TypeHint string // document class hint, e.g. "payslip" or "statement"
}

// SubmitResult carries every identifier the provider returns; all of them
// are persisted so polling can resume after a crash.
type SubmitResult struct {
	RunID             string `json:"runId"`
	DocumentID        string `json:"documentId"`
	ParseJobID        string `json:"parseJobId"`
	StdJobID          string `json:"stdJobId"`
	StandardizationID string `json:"standardizationId"`
}

// RunStatus is one status check; no looping happens here.
type RunStatus struct {
	State RunState
	Error string
}

// Submit dispatches file bytes (or a reference URL) to the workflow.
// Fails if the provider returns a non-2xx status or omits a run identifier.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("docupipe.submit.start",
		"req_id", rid,
		"workflow", c.cfg.WorkflowID,
		"filename", req.Filename,
		"bytes", len(req.Contents),
		"has_url", req.FileURL != "",
		"type_hint", req.TypeHint,
	)

	file := map[string]any{}
	if len(req.Contents) > 0 {
		file["file"] = map[string]any{
			"contents": base64.StdEncoding.EncodeToString(req.Contents),
			"filename": req.Filename,
		}
	} else if req.FileURL != "" {
		file["fileUrl"] = req.FileURL
	} else {
		return SubmitResult{}, fmt.Errorf("submit: no file contents or url")
	}
	if req.TypeHint != "" {
		file["typeHint"] = req.TypeHint
	}
	body := map[string]any{"input": file}

	endpoint := fmt.Sprintf("%s/workflows/%s/dispatch", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.WorkflowID)
	raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		c.log.Error("docupipe.submit.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return SubmitResult{}, err
	}

	var out SubmitResult
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Error("docupipe.submit.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return SubmitResult{}, fmt.Errorf("decode submit response: %w", err)
	}
	if out.RunID == "" {
		c.log.Error("docupipe.submit.no_run_id", "req_id", rid, "raw", string(raw))
		return SubmitResult{}, fmt.Errorf("submit response missing run id")
	}

	c.log.Info("docupipe.submit.ok",
		"req_id", rid,
		"run_id", out.RunID,
		"std_job_id", out.StdJobID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// PollStatus performs a single status check for a run.
func (c *Client) PollStatus(ctx context.Context, runID string) (RunStatus, error) {
	endpoint := fmt.Sprintf("%s/runs/%s", strings.TrimRight(c.cfg.BaseURL, "/"), runID)
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RunStatus{}, err
	}

	var payload struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RunStatus{}, fmt.Errorf("decode status response: %w", err)
	}

	st := RunStatus{State: normalizeState(payload.Status), Error: payload.Error}
	c.log.Debug("docupipe.poll", "run_id", runID, "status", payload.Status, "state", st.State)
	return st, nil
}

// FetchResult retrieves the structured payload once a run has completed.
// Fails if the payload is absent.
func (c *Client) FetchResult(ctx context.Context, runID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/runs/%s/result", strings.TrimRight(c.cfg.BaseURL, "/"), runID)
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode result response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		// some workflow versions return the payload at the top level
		if looksLikePayload(raw) {
			return raw, nil
		}
		return nil, fmt.Errorf("result payload absent for run %s", runID)
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, method, url string, body map[string]any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docupipe http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.log.Warn("docupipe response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("docupipe status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// normalizeState maps the provider's status vocabulary onto the three
// states the orchestrator understands. Unknown values are treated as still
// processing; the poll deadline bounds how long that can last.
func normalizeState(status string) RunState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "complete", "succeeded", "success", "done":
		return RunCompleted
	case "failed", "error", "errored", "cancelled", "canceled":
		return RunFailed
	default:
		return RunProcessing
	}
}

// looksLikePayload reports whether raw is a JSON object carrying anything
// beyond an empty data envelope.
func looksLikePayload(raw []byte) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	delete(m, "data")
	return len(m) > 0
}
