package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tessellab/meshpipe/internal/workflow"
)

// maxErrorBody bounds how much of an error response body is carried in an
// APIError, so a misbehaving service cannot bloat logs.
const maxErrorBody = 512

// Client talks to one generation service instance. Safe for sequential use
// within a single run; the pipeline never submits concurrently.
type Client struct {
	baseURL  string
	clientID string
	httpc    *http.Client

	attempts int
	backoff  time.Duration
	sleep    func(time.Duration) // injectable for tests
}

// NewClient creates a client for baseURL (no trailing slash required).
// attempts and backoff govern transport-level retry at submission; each run
// gets a fresh client identity which is attached to every submission.
func NewClient(baseURL string, attempts int, backoff time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: uuid.NewString(),
		httpc:    &http.Client{Timeout: 2 * time.Minute},
		attempts: attempts,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
}

// ClientID returns the per-run client identity sent with submissions.
func (c *Client) ClientID() string { return c.clientID }

// submission is the request body for POST /prompt.
type submission struct {
	Prompt   map[string]workflow.Node `json:"prompt"`
	ClientID string                   `json:"client_id"`
}

// submissionResponse is the success body for POST /prompt.
type submissionResponse struct {
	PromptID string `json:"prompt_id"`
}

// Submit queues one job and returns the service-assigned job id.
//
// Transport failures are retried up to the configured attempt count with
// linear backoff; a non-2xx response is returned immediately as *APIError.
func (c *Client) Submit(ctx context.Context, nodes map[string]workflow.Node) (string, error) {
	body, err := json.Marshal(submission{Prompt: nodes, ClientID: c.clientID})
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			c.sleep(c.backoff * time.Duration(attempt-1))
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		id, err := c.submitOnce(ctx, body)
		if err == nil {
			return id, nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("submit failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) submitOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var sr submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode submission response: %w", err)
	}
	if sr.PromptID == "" {
		return "", ErrNoJobID
	}
	return sr.PromptID, nil
}

// HistoryEntry is the per-job record in the history response. Only the
// status block matters to the pipeline; outputs are collected from the
// filesystem, not from this payload.
type HistoryEntry struct {
	Status struct {
		StatusStr string `json:"status_str"`
		Completed bool   `json:"completed"`
	} `json:"status"`
}

// History fetches the job's history record. The second return is false when
// the service has no record for the id yet (still queued or running).
func (c *Client) History(ctx context.Context, id string) (HistoryEntry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+id, nil)
	if err != nil {
		return HistoryEntry{}, false, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return HistoryEntry{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HistoryEntry{}, false, &APIError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var entries map[string]HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return HistoryEntry{}, false, fmt.Errorf("decode history response: %w", err)
	}
	entry, ok := entries[id]
	return entry, ok, nil
}

// Ping checks that the service answers at all. Used by diagnostics and by
// the pre-run fail-fast check; any HTTP answer counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable at %s: %w", c.baseURL, err)
	}
	resp.Body.Close()
	return nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
