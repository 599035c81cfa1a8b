package docupipe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		WorkflowID: "wf-1",
	}, nil)
}

func TestSubmitSendsBase64Contents(t *testing.T) {
	var captured struct {
		Input struct {
			File struct {
				Contents string `json:"contents"`
				Filename string `json:"filename"`
			} `json:"file"`
			TypeHint string `json:"typeHint"`
		} `json:"input"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workflows/wf-1/dispatch", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"runId":      "run-1",
			"documentId": "doc-1",
			"stdJobId":   "std-1",
		})
	})

	res, err := c.Submit(context.Background(), SubmitRequest{
		Contents: []byte("%PDF-1.4 fake"),
		Filename: "statement.pdf",
		TypeHint: "statement",
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, "std-1", res.StdJobID)

	decoded, err := base64.StdEncoding.DecodeString(captured.Input.File.Contents)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(decoded))
	assert.Equal(t, "statement.pdf", captured.Input.File.Filename)
	assert.Equal(t, "statement", captured.Input.TypeHint)
}

func TestSubmitFailsWithoutRunID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"documentId": "doc-1"})
	})
	_, err := c.Submit(context.Background(), SubmitRequest{Contents: []byte("x"), Filename: "f.pdf"})
	require.ErrorContains(t, err, "missing run id")
}

func TestSubmitFailsOnHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not found", http.StatusNotFound)
	})
	_, err := c.Submit(context.Background(), SubmitRequest{Contents: []byte("x"), Filename: "f.pdf"})
	require.ErrorContains(t, err, "404")
	assert.ErrorContains(t, err, "workflow not found")
}

func TestSubmitRequiresContentsOrURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused", WorkflowID: "wf-1"}, nil)
	_, err := c.Submit(context.Background(), SubmitRequest{Filename: "f.pdf"})
	require.ErrorContains(t, err, "no file contents or url")
}

func TestPollStatusNormalization(t *testing.T) {
	cases := []struct {
		status string
		want   RunState
	}{
		{"completed", RunCompleted},
		{"Succeeded", RunCompleted},
		{"done", RunCompleted},
		{"failed", RunFailed},
		{"CANCELLED", RunFailed},
		{"running", RunProcessing},
		{"queued", RunProcessing},
		{"", RunProcessing},
		{"something_new", RunProcessing},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runs/run-1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": tc.status})
		})
		st, err := c.PollStatus(context.Background(), "run-1")
		require.NoError(t, err, tc.status)
		assert.Equal(t, tc.want, st.State, "status %q", tc.status)
	}
}

func TestPollStatusCarriesError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "rate limited"})
	})
	st, err := c.PollStatus(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunFailed, st.State)
	assert.Equal(t, "rate limited", st.Error)
}

func TestFetchResultEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runs/run-1/result", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"metadata":{"period":"03/2024"}}}`))
	})
	raw, err := c.FetchResult(context.Background(), "run-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"metadata":{"period":"03/2024"}}`, string(raw))
}

func TestFetchResultTopLevelFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"metadata":{"period":"03/2024"},"transactions":[]}`))
	})
	raw, err := c.FetchResult(context.Background(), "run-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"metadata":{"period":"03/2024"},"transactions":[]}`, string(raw))
}

func TestFetchResultAbsentPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	})
	_, err := c.FetchResult(context.Background(), "run-1")
	require.ErrorContains(t, err, "result payload absent")
}
