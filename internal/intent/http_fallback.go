package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zero-day-ai/medqa/internal/types"
)

const maxErrorBody = 512

// HTTPFallback asks an external model server for intent predictions. The
// server receives {"question": "..."} and answers with
// {"predictions": [{"label": "...", "confidence": 0.9}]}.
type HTTPFallback struct {
	url        string
	httpClient *http.Client
}

// HTTPFallbackOption configures an HTTPFallback.
type HTTPFallbackOption func(*HTTPFallback)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPFallbackOption {
	return func(f *HTTPFallback) {
		f.httpClient = c
	}
}

// NewHTTPFallback creates a fallback posting to url. A non-positive timeout
// uses two seconds.
func NewHTTPFallback(url string, timeout time.Duration, opts ...HTTPFallbackOption) *HTTPFallback {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	f := &HTTPFallback{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type predictRequest struct {
	Question string `json:"question"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Predict implements Fallback.
func (f *HTTPFallback) Predict(ctx context.Context, question string) ([]Prediction, error) {
	body, err := json.Marshal(predictRequest{Question: question})
	if err != nil {
		return nil, types.WrapError(types.FALLBACK_FAILED, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, types.WrapError(types.FALLBACK_FAILED, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, types.WrapRetryableError(types.FALLBACK_FAILED, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		if resp.StatusCode >= 500 {
			return nil, types.NewRetryableError(types.FALLBACK_FAILED, msg)
		}
		return nil, types.NewError(types.FALLBACK_FAILED, msg)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.WrapError(types.FALLBACK_FAILED, "decode response", err)
	}
	return out.Predictions, nil
}
