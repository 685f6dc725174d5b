package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nbenliogludev/quiz-chain-solver/internal/metrics"
)

const (
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 1500

	defaultInvokeAttempts = 3
	defaultAskAttempts    = 3
	defaultRetryDelay     = 500 * time.Millisecond
)

var errMalformedChoices = errors.New("provider response has malformed choices")

// Client asks the model for JSON and never fails doing so: transport errors
// are retried, malformed output is recovered, and the last resort is an
// empty object.
type Client struct {
	provider       Provider
	model          string
	maxTokens      int
	invokeAttempts int
	askAttempts    int
	retryDelay     time.Duration
	logger         *slog.Logger
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(p Provider, opts ...Option) *Client {
	c := &Client{
		provider:       p,
		model:          DefaultModel,
		maxTokens:      DefaultMaxTokens,
		invokeAttempts: defaultInvokeAttempts,
		askAttempts:    defaultAskAttempts,
		retryDelay:     defaultRetryDelay,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "llm")
	return c
}

// CompleteJSON returns the model's reply to prompt as a JSON object. It is
// total: any failure ends in an empty map.
func (c *Client) CompleteJSON(ctx context.Context, prompt string) map[string]any {
	text := c.AskJSON(ctx, prompt)

	out, stage, ok := Recover(text)
	if !ok {
		metrics.JSONRecovery.WithLabelValues("none").Inc()
		c.logger.Warn("model reply is not recoverable JSON", "reply_len", len(text))
		return map[string]any{}
	}
	metrics.JSONRecovery.WithLabelValues(stage).Inc()
	if stage != "exact" {
		c.logger.Info("recovered malformed model reply", "stage", stage)
	}
	return out
}

// AskJSON runs up to three rounds over one conversation and returns the
// first non-empty reply text, or "{}" when none came back.
func (c *Client) AskJSON(ctx context.Context, prompt string) string {
	conv := NewConversation(jsonSystemPrompt, prompt)

	for attempt := 0; attempt < c.askAttempts; attempt++ {
		if attempt > 0 {
			conv.AddUser(nudgePrompt)
		}
		if ctx.Err() != nil {
			break
		}

		resp, err := c.Invoke(ctx, c.request(conv))
		if err != nil {
			metrics.LLMAttempts.WithLabelValues("error").Inc()
			c.logger.Error("llm call failed", "attempt", attempt+1, "error", err)
			continue
		}

		out, err := replyText(resp)
		if err != nil {
			metrics.LLMAttempts.WithLabelValues("error").Inc()
			c.logger.Error("llm reply unreadable", "attempt", attempt+1, "error", err)
			continue
		}
		if strings.TrimSpace(out) != "" {
			metrics.LLMAttempts.WithLabelValues("ok").Inc()
			return out
		}
		metrics.LLMAttempts.WithLabelValues("empty").Inc()
		c.logger.Warn("llm returned empty reply", "attempt", attempt+1)
	}

	return emptyObject
}

// Invoke sends req to the provider, retrying transport failures with a
// fixed delay. The last error is returned once attempts run out.
func (c *Client) Invoke(ctx context.Context, req Request) (map[string]any, error) {
	var lastErr error

	for attempt := 0; attempt < c.invokeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		c.logger.Debug("provider attempt failed", "attempt", attempt+1, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("provider failed after %d attempts: %w", c.invokeAttempts, lastErr)
}

func (c *Client) request(conv *Conversation) Request {
	return Request{
		Model:       c.model,
		Messages:    conv.Messages(),
		MaxTokens:   c.maxTokens,
		Temperature: 0,
	}
}

// replyText pulls choices[0].message.content out of an OpenAI-shaped
// response. Responses without "choices" are passed on serialized whole.
func replyText(resp map[string]any) (string, error) {
	raw, ok := resp["choices"]
	if !ok {
		b, err := json.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("serialize provider response: %w", err)
		}
		return string(b), nil
	}

	choices, ok := raw.([]any)
	if !ok || len(choices) == 0 {
		return "", errMalformedChoices
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", errMalformedChoices
	}
	msg, ok := first["message"].(map[string]any)
	if !ok {
		return "", errMalformedChoices
	}
	content, ok := msg["content"].(string)
	if !ok {
		return "", fmt.Errorf("%w: content is %T", errMalformedChoices, msg["content"])
	}
	return content, nil
}
