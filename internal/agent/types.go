package agent

import (
	"encoding/json"
	"fmt"
)

type StepKind string

const (
	// KindResponse: the answer was posted and the endpoint replied.
	KindResponse StepKind = "response"
	// KindSubmitError: the answer was posted but the POST itself failed.
	KindSubmitError StepKind = "submit_error"
	// KindUnsubmitted: no endpoint or no payload, nothing was posted.
	KindUnsubmitted StepKind = "unsubmitted"
	// KindFailed: solving the step failed before a result existed.
	KindFailed StepKind = "failed"
)

// StepResult is the outcome of one quiz step. Which fields are meaningful
// depends on Kind; the JSON form carries only those.
type StepResult struct {
	Kind     StepKind
	Response any
	Answer   any
	Error    string
	Result   map[string]any
}

func Submitted(response, answer any) StepResult {
	return StepResult{Kind: KindResponse, Response: response, Answer: answer}
}

func SubmitFailed(msg string, answer any) StepResult {
	return StepResult{Kind: KindSubmitError, Error: msg, Answer: answer}
}

func Unsubmitted(result map[string]any) StepResult {
	if result == nil {
		result = map[string]any{}
	}
	return StepResult{Kind: KindUnsubmitted, Result: result}
}

func Failed(err error) StepResult {
	return StepResult{Kind: KindFailed, Error: err.Error()}
}

func (r StepResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindResponse:
		return json.Marshal(struct {
			Submitted bool `json:"submitted"`
			Response  any  `json:"response"`
			Answer    any  `json:"answer"`
		}{true, r.Response, r.Answer})
	case KindSubmitError:
		return json.Marshal(struct {
			Submitted bool   `json:"submitted"`
			Error     string `json:"error"`
			Answer    any    `json:"answer"`
		}{true, r.Error, r.Answer})
	case KindUnsubmitted:
		return json.Marshal(struct {
			Submitted bool           `json:"submitted"`
			Result    map[string]any `json:"result"`
		}{false, r.Result})
	case KindFailed:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	default:
		return nil, fmt.Errorf("unknown step kind %q", r.Kind)
	}
}

func (r *StepResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Submitted *bool          `json:"submitted"`
		Response  any            `json:"response"`
		Answer    any            `json:"answer"`
		Error     *string        `json:"error"`
		Result    map[string]any `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Submitted == nil && raw.Error != nil:
		*r = StepResult{Kind: KindFailed, Error: *raw.Error}
	case raw.Submitted == nil:
		return fmt.Errorf("step result without submitted or error field")
	case !*raw.Submitted:
		*r = Unsubmitted(raw.Result)
	case raw.Error != nil:
		*r = SubmitFailed(*raw.Error, raw.Answer)
	default:
		*r = Submitted(raw.Response, raw.Answer)
	}
	return nil
}

// QuizStep is one entry of the trace: the URL that was attempted and what
// came of it.
type QuizStep struct {
	URL    string     `json:"url"`
	Result StepResult `json:"result"`
}

// Trace is the ordered record of a chain run.
type Trace []QuizStep
