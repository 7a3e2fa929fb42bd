// Package coach is the HTTP client for the external reasoning collaborator.
// Rostrum only owns the contract: it sends the transcript plus debate
// framing and receives a structured qualitative report back. Prompt bodies
// and the reasoning itself are the collaborator's problem; the client
// validates numeric bounds at the boundary and nothing else.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/rostrum/internal/debate"
)

// AnalysisRequest is the payload sent for both full analysis and the quick
// fast path.
type AnalysisRequest struct {
	Transcript []debate.Utterance `json:"transcript"`
	Topic      string             `json:"topic"`
	Position   string             `json:"position"`
}

// QuickSummary is the short provisional response from the fast path. It is
// advisory only and never persisted as a report's qualitative section.
type QuickSummary struct {
	Summary string `json:"summary"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a coach client. timeout is the hard per-call bound; one
// slow analysis must never starve other sessions' reconciliations.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Analyze requests the full qualitative report for an ended session. The
// returned report has its category scores clamped into bounds.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (*debate.QualitativeReport, error) {
	var report debate.QualitativeReport
	if err := c.post(ctx, "/v1/analysis", req, &report); err != nil {
		return nil, err
	}
	report.Normalize()
	return &report, nil
}

// Quick requests the short provisional summary.
func (c *Client) Quick(ctx context.Context, req AnalysisRequest) (*QuickSummary, error) {
	var out QuickSummary
	if err := c.post(ctx, "/v1/quick", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("coach call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("coach error %d: %s: %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return fmt.Errorf("coach error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
