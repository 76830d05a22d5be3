// Package remote is a client for a model-serving sidecar that hosts the
// original serialized classifier.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/okian/wellcheck/internal/domain/classifier"
	"github.com/okian/wellcheck/internal/domain/model"
)

const (
	defaultTimeout = 5 * time.Second
	maxErrorBody   = 512
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

// PredictResponse is the sidecar's answer.
type PredictResponse struct {
	Predictions []int `json:"predictions"`
	Classes     []int `json:"classes"`
}

// Client calls the sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds each prediction call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new sidecar client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict sends one labeled row and returns the predicted class.
func (c *Client) Predict(ctx context.Context, row model.FeatureRow) (int, error) {
	body, err := json.Marshal(PredictRequest{
		FeatureNames: row.Names(),
		Rows:         [][]float64{row.Slice()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", classifier.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return 0, fmt.Errorf("%w: sidecar returned %d: %s", classifier.ErrShapeMismatch, resp.StatusCode, readSnippet(resp.Body))
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: sidecar returned %d: %s", classifier.ErrUnavailable, resp.StatusCode, readSnippet(resp.Body))
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if !slices.Equal(out.Classes, classifier.SeverityClasses) {
		return 0, fmt.Errorf("%w: sidecar classes %v, want %v", classifier.ErrUnexpectedClass, out.Classes, classifier.SeverityClasses)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("sidecar returned %d predictions for one row", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

// Ping checks that the sidecar answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", classifier.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", classifier.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Describe reports the backend.
func (c *Client) Describe() classifier.Info {
	return classifier.Info{
		Backend:      "remote",
		Source:       c.baseURL,
		FeatureNames: model.FeatureNames(),
		Classes:      classifier.SeverityClasses,
	}
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
