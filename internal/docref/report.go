package docref

import (
	"fmt"
	"time"
)

// RefreshReport aggregates one refresh pass over the source tree.
type RefreshReport struct {
	Files         int      `json:"files"`
	Directives    int      `json:"directives"`
	Reused        int      `json:"reused"`
	Bootstrapped  int      `json:"bootstrapped"`
	Regenerated   int      `json:"regenerated"`
	Failed        int      `json:"failed"`
	Rewritten     int      `json:"rewritten"`
	RewriteErrors int      `json:"rewrite_errors"`
	Warnings      []string `json:"warnings,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

// Stale is the number of occurrences whose cached summary could not be
// trusted this pass. In dry-run mode this is the `--check` verdict.
func (r *RefreshReport) Stale() int {
	return r.Bootstrapped + r.Regenerated + r.Failed
}

// Summary renders a one-line human digest of the pass.
func (r *RefreshReport) Summary() string {
	return fmt.Sprintf("%d directives in %d files: %d reused, %d generated, %d bootstrapped, %d failed, %d files rewritten",
		r.Directives, r.Files, r.Reused, r.Regenerated, r.Bootstrapped, r.Failed, r.Rewritten)
}

func (r *RefreshReport) absorb(res fileResult) {
	r.Directives += res.directives
	r.Reused += res.reused
	r.Bootstrapped += res.bootstrapped
	r.Regenerated += res.regenerated
	r.Failed += res.failed
	if res.rewritten {
		r.Rewritten++
	}
	if res.rewriteFailed {
		r.RewriteErrors++
	}
	r.Warnings = append(r.Warnings, res.warnings...)
}

// fileResult carries one worker's counts back to the aggregating goroutine.
type fileResult struct {
	directives    int
	reused        int
	bootstrapped  int
	regenerated   int
	failed        int
	rewritten     bool
	rewriteFailed bool
	warnings      []string
}
