package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/llmdocs/internal/buildrun"
	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/merge"
)

// ReportName is the machine-readable report written into the primary output
// root after every build run.
const ReportName = "llmdocs-report.json"

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// BuildReport captures one pipeline run end to end.
type BuildReport struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Outcome       Outcome   `json:"outcome"`

	Errors   []error `json:"-"`
	Warnings []error `json:"-"`

	StageDurations  map[string]time.Duration  `json:"stage_durations"`
	StageErrorKinds map[string]StageErrorKind `json:"stage_error_kinds"`

	Refresh       *docref.RefreshReport `json:"refresh,omitempty"`
	PrimaryBuild  *Invocation           `json:"primary_build,omitempty"`
	MarkdownBuild *Invocation           `json:"markdown_build,omitempty"`
	Merge         *merge.Report         `json:"merge,omitempty"`

	ArtifactsWritten bool   `json:"artifacts_written"`
	SkipReason       string `json:"skip_reason,omitempty"` // why merge/artifacts were skipped
}

// Invocation records one finished build subprocess for the report.
type Invocation struct {
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	LogPath    string `json:"log_path,omitempty"`
}

func invocationOf(res *buildrun.Result) *Invocation {
	if res == nil {
		return nil
	}
	return &Invocation{
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		LogPath:    res.LogPath,
	}
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		RunID:           uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]StageErrorKind),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// deriveOutcome sets Outcome from the recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	merged, gaps := 0, 0
	if r.Merge != nil {
		merged = r.Merge.Merged
		gaps = len(r.Merge.Gaps)
	}
	stale := 0
	if r.Refresh != nil {
		stale = r.Refresh.Stale()
	}
	return fmt.Sprintf("run=%s outcome=%s duration=%s stale=%d merged=%d gaps=%d errors=%d warnings=%d",
		r.RunID, r.Outcome, r.End.Sub(r.Start).Truncate(time.Millisecond),
		stale, merged, gaps, len(r.Errors), len(r.Warnings))
}

// Persist writes the report atomically into the primary output root.
// Best effort; the caller logs the returned error without changing the
// build outcome.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}
	path := filepath.Join(root, ReportName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write temp build report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename build report: %w", err)
	}
	return nil
}

// serializable returns a copy with error values flattened to strings.
func (r *BuildReport) serializable() *reportJSON {
	s := &reportJSON{
		BuildReport: r,
		Errors:      make([]string, len(r.Errors)),
		Warnings:    make([]string, len(r.Warnings)),
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

type reportJSON struct {
	*BuildReport
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
