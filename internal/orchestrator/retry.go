package orchestrator

import "github.com/danielpatrickdp/player-randomizer/internal/rng"

// #region constants

const maxRetries = 2 // max 2 retries = 3 total attempts

// #endregion

// #region engine

// RetryEngine decides whether to retry a synthesis and on which stream.
type RetryEngine struct {
	label string
}

// NewRetryEngine creates a retry engine for the given stream label.
func NewRetryEngine(label string) *RetryEngine {
	return &RetryEngine{label: label}
}

// Label names the stream of the given attempt number.
func (r *RetryEngine) Label(attempt int) string {
	return rng.AttemptLabel(r.label, attempt)
}

// #endregion

// #region should-retry

// ShouldRetry returns whether to retry and the stream label to use.
// attempts contains all attempts so far (including the one just evaluated).
// Synthesis errors are not retried: they come from the request, not the draw.
func (r *RetryEngine) ShouldRetry(attempts []Attempt) (bool, string) {
	if len(attempts) == 0 {
		return false, ""
	}

	// Max retries reached
	if len(attempts) > maxRetries {
		return false, ""
	}

	latest := attempts[len(attempts)-1]
	if latest.Err != nil {
		return false, ""
	}
	if latest.Eval.Passed && latest.Eval.SoftPassed {
		return false, ""
	}

	return true, r.Label(len(attempts))
}

// #endregion
