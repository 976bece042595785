package summarize

import "fmt"

// GenerationError is the single error kind surfaced by generators. Reason
// distinguishes the failure shape for diagnostics; callers branch on the type,
// not the reason.
type GenerationError struct {
	Endpoint string
	Model    string
	Reason   string // unreachable | timeout | status | response
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summary generation failed (%s) against %s with model %s: %v", e.Reason, e.Endpoint, e.Model, e.Err)
	}
	return fmt.Sprintf("summary generation failed (%s) against %s with model %s", e.Reason, e.Endpoint, e.Model)
}

func (e *GenerationError) Unwrap() error { return e.Err }
