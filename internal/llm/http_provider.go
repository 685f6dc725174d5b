package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}

// HTTPProvider posts the request to a raw OpenAI-compatible endpoint and
// returns whatever JSON object comes back, whether or not it has the
// standard "choices" shape.
type HTTPProvider struct {
	endpoint   string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPProvider(endpoint, token string, timeout time.Duration) (*HTTPProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("provider endpoint is not set")
	}
	if token == "" {
		return nil, fmt.Errorf("provider token is not set")
	}
	return &HTTPProvider{
		endpoint:   endpoint,
		token:      token,
		timeout:    timeout,
		httpClient: &http.Client{},
	}, nil
}

func (p *HTTPProvider) Complete(ctx context.Context, req Request) (map[string]any, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode response: not a JSON object")
	}
	return out, nil
}
