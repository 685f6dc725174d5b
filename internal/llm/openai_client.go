package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// SDKProvider talks to an OpenAI-compatible endpoint through go-openai.
type SDKProvider struct {
	client  *openai.Client
	timeout time.Duration
}

// NewSDKProvider accepts either a base URL or a full
// ".../chat/completions" endpoint.
func NewSDKProvider(endpoint, token string, timeout time.Duration) (*SDKProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("provider token is not set")
	}
	cfg := openai.DefaultConfig(token)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/chat/completions")
	}
	cfg.HTTPClient = &http.Client{}
	return &SDKProvider{client: openai.NewClientWithConfig(cfg), timeout: timeout}, nil
}

func (p *SDKProvider) Complete(ctx context.Context, req Request) (map[string]any, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	temperature := req.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload.
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai error: %w", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode openai response: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	return out, nil
}
