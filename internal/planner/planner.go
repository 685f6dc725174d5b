package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nbenliogludev/quiz-chain-solver/internal/llm"
)

// MaxHTMLChars caps how much page source goes into a prompt.
const MaxHTMLChars = 50000

// Plan is the planner's reply. Expected keys are question_summary,
// data_source and plan_steps, but nothing is enforced.
type Plan map[string]any

// Input is what the planner sees of a quiz page.
type Input struct {
	URL   string
	HTML  string
	Links []string
}

type Client interface {
	BuildPlan(ctx context.Context, in Input) Plan
}

type LLMPlanner struct {
	llm    llm.JSONCompleter
	logger *slog.Logger
}

func NewLLMPlanner(c llm.JSONCompleter, logger *slog.Logger) *LLMPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMPlanner{llm: c, logger: logger.With("component", "planner")}
}

const plannerPrompt = `
You are the PLANNER Agent.
Your goal is to understand the quiz question and create a step-by-step plan for the Solver.

PAGE HTML (Truncated):
%s

PAGE LINKS:
%s

Return JSON:
{
  "question_summary": "Briefly state what must be answered",
  "data_source": "Where is the data? (e.g., 'In the CSV', 'Hidden in <div id=secret>', 'In the visible text')",
  "plan_steps": [
     "Step 1: Locate the CSV link and parse it.",
     "Step 2: Filter for rows where city='Paris'.",
     "Step 3: Sum the 'sales' column."
  ]
}
`

// BuildPlan asks the model how to solve the page. It never fails; a model
// that returns nothing usable yields an empty plan.
func (p *LLMPlanner) BuildPlan(ctx context.Context, in Input) Plan {
	prompt := fmt.Sprintf(plannerPrompt, HTMLPrefix(in.HTML), LinksJSON(in.Links))

	plan := Plan(p.llm.CompleteJSON(ctx, prompt))

	p.logger.Info("plan ready",
		"url", in.URL,
		"summary", plan.Summary(),
		"steps", len(plan.Steps()),
	)
	for i, s := range plan.Steps() {
		p.logger.Debug("plan step", "index", i+1, "goal", s)
	}
	return plan
}

// Summary returns question_summary when it is a string.
func (p Plan) Summary() string {
	s, _ := p["question_summary"].(string)
	return s
}

// Steps returns plan_steps as text. Object steps are rendered as JSON.
func (p Plan) Steps() []string {
	raw, ok := p["plan_steps"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, strings.TrimSpace(v))
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out = append(out, string(b))
		}
	}
	return out
}

// JSON renders the plan for embedding in a prompt.
func (p Plan) JSON() string {
	if p == nil {
		return "{}"
	}
	b, err := json.Marshal(map[string]any(p))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// HTMLPrefix returns the first MaxHTMLChars characters of html.
func HTMLPrefix(html string) string {
	r := []rune(html)
	if len(r) <= MaxHTMLChars {
		return html
	}
	return string(r[:MaxHTMLChars])
}

// LinksJSON renders links as a JSON array; nil becomes [].
func LinksJSON(links []string) string {
	if links == nil {
		links = []string{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "[]"
	}
	return string(b)
}
