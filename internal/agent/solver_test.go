package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/quiz-chain-solver/internal/browser"
	"github.com/nbenliogludev/quiz-chain-solver/internal/fetch"
	"github.com/nbenliogludev/quiz-chain-solver/internal/planner"
)

type stubRenderer struct {
	page *browser.Page
	err  error
}

func (r *stubRenderer) Render(_ context.Context, url string) (*browser.Page, error) {
	if r.err != nil {
		return nil, r.err
	}
	p := *r.page
	p.URL = url
	return &p, nil
}

func (r *stubRenderer) Close() error { return nil }

// promptRecorder answers every CompleteJSON with the next scripted reply.
type promptRecorder struct {
	mu      sync.Mutex
	prompts []string
	replies []map[string]any
}

func (p *promptRecorder) CompleteJSON(_ context.Context, prompt string) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if len(p.replies) == 0 {
		return map[string]any{}
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r
}

type quizSite struct {
	srv       *httptest.Server
	mu        sync.Mutex
	submitted []map[string]any
}

func newQuizSite(t *testing.T) *quizSite {
	t.Helper()
	s := &quizSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/data.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("value\n10\n32\n"))
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.submitted = append(s.submitted, body)
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"correct": true}`))
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func newTestSolver(r browser.Renderer, c *promptRecorder) *Solver {
	return NewSolver(
		r,
		fetch.NewGatherer(fetch.NewHTTPDownloader(5*time.Second), nil),
		planner.NewLLMPlanner(c, nil),
		&ExecutorAgent{LLM: c},
		NewHTTPSubmitter(5*time.Second),
		nil,
	)
}

func TestChainSolvesCSVSum(t *testing.T) {
	site := newQuizSite(t)
	quizURL := site.srv.URL + "/quiz/1"

	renderer := &stubRenderer{page: &browser.Page{
		HTML:  `<p>Download <a href="/data.csv">the data</a> and post the sum of value.</p><a href="/submit">submit</a>`,
		Links: []string{"/data.csv", "/submit"},
	}}
	llmc := &promptRecorder{replies: []map[string]any{
		{"question_summary": "sum value", "plan_steps": []any{"sum the column"}},
		{
			"answer": float64(42),
			"submit_payload": map[string]any{
				"email": "me@example.com", "secret": "s3", "url": quizURL, "answer": float64(42),
			},
		},
	}}

	trace := NewRunner(newTestSolver(renderer, llmc), 12, nil).
		Run(context.Background(), "me@example.com", "s3", quizURL, "owner@example.com")

	require.Len(t, trace, 1)
	step := trace[0]
	assert.Equal(t, quizURL, step.URL)
	assert.Equal(t, KindResponse, step.Result.Kind)
	assert.Equal(t, float64(42), step.Result.Answer)
	assert.Equal(t, map[string]any{"correct": true}, step.Result.Response)

	require.Len(t, llmc.prompts, 2)
	assert.Contains(t, llmc.prompts[0], "PLANNER")
	executorPrompt := llmc.prompts[1]
	assert.Contains(t, executorPrompt, "--- CONTENT OF LINKED FILE: "+site.srv.URL+"/data.csv ---\nvalue\n10\n32\n")
	assert.Contains(t, executorPrompt, `"email": "me@example.com"`)
	assert.Contains(t, executorPrompt, `"secret": "s3"`)
	assert.Contains(t, executorPrompt, `"url": "`+quizURL+`"`)
	assert.Contains(t, executorPrompt, "sum the column")

	require.Len(t, site.submitted, 1)
	assert.Equal(t, float64(42), site.submitted[0]["answer"])
}

func TestSolveWithoutEndpointIsUnsubmitted(t *testing.T) {
	renderer := &stubRenderer{page: &browser.Page{HTML: "<p>What is 2+2?</p>"}}
	llmc := &promptRecorder{replies: []map[string]any{
		{},
		{"answer": float64(4), "submit_payload": map[string]any{"answer": float64(4)}},
	}}

	res, err := newTestSolver(renderer, llmc).Solve(context.Background(), "e", "s", "http://h/q")
	require.NoError(t, err)

	assert.Equal(t, KindUnsubmitted, res.Kind)
	assert.Equal(t, float64(4), res.Result["answer"])
}

func TestSolveWithoutPayloadIsUnsubmitted(t *testing.T) {
	renderer := &stubRenderer{page: &browser.Page{Links: []string{"/submit"}}}
	llmc := &promptRecorder{}

	res, err := newTestSolver(renderer, llmc).Solve(context.Background(), "e", "s", "http://h/q")
	require.NoError(t, err)

	assert.Equal(t, KindUnsubmitted, res.Kind)
	assert.Empty(t, res.Result)
}

func TestSolveRecordsSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead := srv.URL + "/submit"
	srv.Close()

	renderer := &stubRenderer{page: &browser.Page{Links: []string{dead}}}
	llmc := &promptRecorder{replies: []map[string]any{
		{},
		{"answer": "x", "submit_payload": map[string]any{"answer": "x"}},
	}}

	res, err := newTestSolver(renderer, llmc).Solve(context.Background(), "e", "s", "http://h/q")
	require.NoError(t, err)

	assert.Equal(t, KindSubmitError, res.Kind)
	assert.Equal(t, "x", res.Answer)
	assert.NotEmpty(t, res.Error)
}

func TestSolveRenderFailure(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("navigation timeout")}

	_, err := newTestSolver(renderer, &promptRecorder{}).Solve(context.Background(), "e", "s", "http://h/q")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "navigation timeout"))
}
