package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/wellcheck/internal/domain/model"
)

// ErrUnhealthy is returned when the service does not answer its health route.
var ErrUnhealthy = errors.New("service unhealthy")

const maxReplyBytes = 1 << 20

// Feature is one labeled input column echoed by the service.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Notification reports what happened to the responder alert.
type Notification struct {
	Attempted bool   `json:"attempted"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message"`
}

// Assessment is the 200 body of POST /api/v1/assessments.
type Assessment struct {
	Ref          string        `json:"ref"`
	Severity     string        `json:"severity"`
	Label        string        `json:"label"`
	Escalated    bool          `json:"escalated"`
	Class        *int          `json:"class"`
	Keyword      string        `json:"keyword"`
	Features     []Feature     `json:"features"`
	Notification *Notification `json:"notification"`
	DurationMS   float64       `json:"duration_ms"`
}

// FieldProblem is one rejected field.
type FieldProblem struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Problem is the error body the API returns for non-200 answers.
type Problem struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Ref     string         `json:"ref"`
	Fields  []FieldProblem `json:"fields"`
}

// Reply is one decoded answer.
type Reply struct {
	Status     int
	Assessment *Assessment
	Problem    *Problem
}

// ServiceInfo is the subset of GET /stats the probe needs.
type ServiceInfo struct {
	Encoding      string `json:"encoding"`
	ModelBackend  string `json:"modelBackend"`
	AlertsEnabled bool   `json:"alertsEnabled"`
}

// Client talks to one wellcheck instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Info reads GET /stats.
func (c *Client) Info(ctx context.Context) (ServiceInfo, error) {
	var info ServiceInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return info, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return info, fmt.Errorf("failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("stats returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&info); err != nil {
		return info, fmt.Errorf("failed to decode stats: %w", err)
	}
	return info, nil
}

// Submit posts one submission and decodes whichever body comes back.
func (c *Client) Submit(ctx context.Context, raw model.RawSubmission) (Reply, error) {
	body, err := json.Marshal(raw)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/assessments", bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to submit: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{Status: resp.StatusCode}, fmt.Errorf("failed to read reply: %w", err)
	}

	reply := Reply{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK {
		reply.Assessment = &Assessment{}
		err = json.Unmarshal(data, reply.Assessment)
	} else {
		reply.Problem = &Problem{}
		err = json.Unmarshal(data, reply.Problem)
	}
	if err != nil {
		return reply, fmt.Errorf("failed to decode reply (status %d): %w", resp.StatusCode, err)
	}
	return reply, nil
}
