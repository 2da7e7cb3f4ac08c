package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// Client errors.
var (
	ErrBackpressure = errors.New("server applied backpressure")
	ErrStatus       = errors.New("unexpected status")
)

// Client talks to the lineup HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SubmitResult is the body of a POST /jobs answer.
type SubmitResult struct {
	Job       model.Record `json:"job"`
	Duplicate bool         `json:"duplicate"`
}

// Health checks that /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

// Submit posts one job. A 429 answer returns ErrBackpressure.
func (c *Client) Submit(ctx context.Context, fr types.FormationRequest) (SubmitResult, error) { //nolint:gocritic // hugeParam: requests are values
	var out SubmitResult
	data, err := json.Marshal(fr)
	if err != nil {
		return out, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(data))
	if err != nil {
		return out, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, err := c.do(req, &out)
	switch {
	case err != nil:
		return out, err
	case status == http.StatusTooManyRequests:
		return out, ErrBackpressure
	case status != http.StatusAccepted && status != http.StatusOK:
		return out, fmt.Errorf("%w: submit %d", ErrStatus, status)
	}
	return out, nil
}

// Job fetches one job record.
func (c *Client) Job(ctx context.Context, id string) (model.Record, error) {
	var rec model.Record
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+id, http.NoBody)
	if err != nil {
		return rec, fmt.Errorf("create request: %w", err)
	}
	status, err := c.do(req, &rec)
	if err != nil {
		return rec, err
	}
	if status != http.StatusOK {
		return rec, fmt.Errorf("%w: job %s %d", ErrStatus, id, status)
	}
	return rec, nil
}

// do sends req and decodes a 2xx body into v.
func (c *Client) do(req *http.Request, v any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
