// Package metrics provides observability hooks for refresh and build runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay zero-cost until a real implementation (see
// PrometheusRecorder) is wired in, which watch mode does when a metrics
// address is configured.
package metrics

import "time"

// SummaryResult enumerates per-occurrence refresh outcomes.
type SummaryResult string

const (
	SummaryGenerated SummaryResult = "generated"
	SummaryReused    SummaryResult = "reused"
	SummaryFailed    SummaryResult = "failed"
)

// Recorder defines observability hooks for refresh, merge and build metrics.
// Implementations must tolerate nil receivers so injection stays optional.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	IncSummaryResult(result SummaryResult)
	ObserveGenerationDuration(d time.Duration)
	IncMergeGap()
	AddMergedFiles(n int)
	SetLastBuildTime(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncSummaryResult(SummaryResult)             {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)    {}
func (NoopRecorder) IncMergeGap()                               {}
func (NoopRecorder) AddMergedFiles(int)                         {}
func (NoopRecorder) SetLastBuildTime(time.Time)                 {}
