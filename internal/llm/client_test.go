package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays responses in order and records every request.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []func() (map[string]any, error)
	requests  []Request
}

func (p *scriptedProvider) Complete(_ context.Context, req Request) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	next := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return next()
}

func chatResponse(content string) func() (map[string]any, error) {
	return func() (map[string]any, error) {
		return map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}, nil
	}
}

func failing(msg string) func() (map[string]any, error) {
	return func() (map[string]any, error) { return nil, errors.New(msg) }
}

func newTestClient(p Provider) *Client {
	return NewClient(p, WithRetryDelay(time.Millisecond))
}

func TestCompleteJSONParsesReply(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){chatResponse(`{"answer": 42}`)}}
	out := newTestClient(p).CompleteJSON(context.Background(), "sum the column")

	assert.Equal(t, map[string]any{"answer": float64(42)}, out)
	require.Len(t, p.requests, 1)

	req := p.requests[0]
	assert.Equal(t, DefaultModel, req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Zero(t, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, jsonSystemPrompt, req.Messages[0].Content)
	assert.Equal(t, "sum the column", req.Messages[1].Content)
}

func TestCompleteJSONNeverFails(t *testing.T) {
	tests := []struct {
		name      string
		responses []func() (map[string]any, error)
		want      map[string]any
	}{
		{
			name:      "provider error on every attempt",
			responses: []func() (map[string]any, error){failing("connection refused")},
			want:      map[string]any{},
		},
		{
			name:      "empty reply",
			responses: []func() (map[string]any, error){chatResponse("")},
			want:      map[string]any{},
		},
		{
			name:      "prose",
			responses: []func() (map[string]any, error){chatResponse("I cannot help with that.")},
			want:      map[string]any{},
		},
		{
			name:      "json array",
			responses: []func() (map[string]any, error){chatResponse(`[1, 2]`)},
			want:      map[string]any{},
		},
		{
			name: "malformed choices",
			responses: []func() (map[string]any, error){func() (map[string]any, error) {
				return map[string]any{"choices": []any{}}, nil
			}},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{responses: tt.responses}
			out := newTestClient(p).CompleteJSON(context.Background(), "")
			require.NotNil(t, out)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAskJSONAccumulatesNudges(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){
		chatResponse(""),
		chatResponse("  "),
		chatResponse(`{"ok": true}`),
	}}

	out := newTestClient(p).AskJSON(context.Background(), "question")
	assert.Equal(t, `{"ok": true}`, out)

	require.Len(t, p.requests, 3)
	assert.Len(t, p.requests[0].Messages, 2)
	assert.Len(t, p.requests[1].Messages, 3)
	assert.Len(t, p.requests[2].Messages, 4)
	last := p.requests[2].Messages[3]
	assert.Equal(t, openai.ChatMessageRoleUser, last.Role)
	assert.Equal(t, nudgePrompt, last.Content)
}

func TestAskJSONAllFailuresReturnEmptyObject(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){failing("boom")}}
	out := newTestClient(p).AskJSON(context.Background(), "question")

	assert.Equal(t, "{}", out)
	// three rounds of three transport attempts
	assert.Len(t, p.requests, 9)
}

func TestInvokeRetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){
		failing("reset"),
		failing("reset"),
		chatResponse(`{}`),
	}}

	resp, err := newTestClient(p).Invoke(context.Background(), Request{})
	require.NoError(t, err)
	assert.Contains(t, resp, "choices")
	assert.Len(t, p.requests, 3)
}

func TestInvokeReturnsLastError(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){failing("first"), failing("second"), failing("third")}}

	_, err := newTestClient(p).Invoke(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "third")
}

func TestInvokeStopsOnCanceledContext(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){failing("down")}}
	c := NewClient(p, WithRetryDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Invoke(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestReplyTextWithoutChoicesSerializesResponse(t *testing.T) {
	out, err := replyText(map[string]any{"answer": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"x"}`, out)
}

func TestCompleteJSONNonStandardProvider(t *testing.T) {
	p := &scriptedProvider{responses: []func() (map[string]any, error){func() (map[string]any, error) {
		return map[string]any{"answer": float64(9), "submit_payload": map[string]any{"answer": float64(9)}}, nil
	}}}

	out := newTestClient(p).CompleteJSON(context.Background(), "q")
	assert.Equal(t, float64(9), out["answer"])
}

func TestHTTPProviderSendsBearerAndZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"a\":1}"}}]}`))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, "secret-token", 5*time.Second)
	require.NoError(t, err)

	out := newTestClient(p).CompleteJSON(context.Background(), "hi")
	assert.Equal(t, map[string]any{"a": float64(1)}, out)

	require.Contains(t, got, "temperature")
	assert.Equal(t, float64(0), got["temperature"])
	assert.Equal(t, float64(DefaultMaxTokens), got["max_tokens"])
}

func TestHTTPProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, "t", time.Second)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestNewProviderRejectsUnknownTransport(t *testing.T) {
	_, err := NewProvider("carrier-pigeon", "http://x", "t", time.Second)
	assert.Error(t, err)
}
