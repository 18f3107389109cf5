// Package guardrail validates user input and LLM output for the
// consultation agent.
//
// To add a new check, write a Check function and append it to the
// relevant list; the turn graph does not change.
package guardrail

// Result is the outcome of a single check. When Passed is false,
// Reason carries the user-facing or retry-facing explanation.
type Result struct {
	Passed bool
	Reason string
}

// Check validates a piece of text. Checks are pure and fast; ordering
// and short-circuiting are the caller's concern.
type Check func(text string) Result

func pass() Result {
	return Result{Passed: true}
}

func block(reason string) Result {
	return Result{Passed: false, Reason: reason}
}
