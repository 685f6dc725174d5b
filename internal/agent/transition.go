package agent

import "strings"

// Transition is the chain driver's decision after a step: either continue
// at Next or halt for Reason.
type Transition struct {
	Next   string
	Reason HaltReason
}

func Continue(next string) Transition { return Transition{Next: next} }

func Halt(reason HaltReason) Transition { return Transition{Reason: reason} }

func (t Transition) Halted() bool { return t.Next == "" }

// NextTransition reads the continuation out of a step result. Only a
// map-shaped response with a non-empty string "url" continues the chain,
// even when the answer was marked incorrect.
func NextTransition(r StepResult) Transition {
	if r.Kind == KindFailed {
		return Halt(HaltStepError)
	}
	if r.Kind != KindResponse {
		return Halt(HaltNoNextURL)
	}

	resp, ok := r.Response.(map[string]any)
	if !ok {
		return Halt(HaltNoNextURL)
	}

	if next, _ := resp["url"].(string); strings.TrimSpace(next) != "" {
		return Continue(strings.TrimSpace(next))
	}
	if correct, ok := resp["correct"].(bool); ok && !correct {
		return Halt(HaltIncorrect)
	}
	return Halt(HaltNoNextURL)
}
