package agent

// HaltReason says why a chain stopped.
type HaltReason string

const (
	HaltNoNextURL   HaltReason = "no_next_url"
	HaltIncorrect   HaltReason = "incorrect_answer"
	HaltStepError   HaltReason = "step_error"
	HaltStepCap     HaltReason = "step_cap"
	HaltInterrupted HaltReason = "interrupted"
)

func humanizeReason(reason HaltReason) string {
	switch reason {
	case HaltNoNextURL:
		return "no continuation URL in the response"
	case HaltIncorrect:
		return "answer marked incorrect with no continuation URL"
	case HaltStepError:
		return "step failed"
	case HaltStepCap:
		return "step limit reached"
	case HaltInterrupted:
		return "run was cancelled or timed out"
	default:
		return string(reason)
	}
}
