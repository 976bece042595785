package docref

import "fmt"

// BrokenReferenceError reports a directive whose target does not resolve to
// any source document. This is a documentation-correctness signal the author
// must fix, so it aborts the refresh rather than degrading to an empty
// summary.
type BrokenReferenceError struct {
	File   string
	Target string
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("broken docref in %s: target %q does not resolve to a source document", e.File, e.Target)
}

// RewriteError reports a failed write-back of refreshed directives. The
// occurrence state stays whatever is on disk; other files keep processing.
type RewriteError struct {
	File string
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("failed to persist refreshed directives to %s: %v", e.File, e.Err)
}

func (e *RewriteError) Unwrap() error { return e.Err }
