package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/merge"
	"git.home.luguber.info/inful/llmdocs/internal/pipeline"
)

func TestNewRefreshEvent(t *testing.T) {
	rep := &docref.RefreshReport{
		Files:        3,
		Directives:   7,
		Reused:       4,
		Bootstrapped: 1,
		Regenerated:  2,
		Failed:       0,
		Duration:     1500 * time.Millisecond,
	}
	ev := NewRefreshEvent("run-1", rep)

	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 3, ev.Files)
	assert.Equal(t, 7, ev.Directives)
	assert.Equal(t, 4, ev.Reused)
	assert.Equal(t, 3, ev.Generated, "bootstrapped and regenerated both count as generated")
	assert.Equal(t, int64(1500), ev.DurationMS)
	assert.False(t, ev.Time.IsZero())
}

func TestNewRefreshEvent_NilReport(t *testing.T) {
	ev := NewRefreshEvent("run-1", nil)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Zero(t, ev.Directives)
}

func TestNewBuildEvent(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	rep := &pipeline.BuildReport{
		RunID:   "run-9",
		Start:   start,
		End:     start.Add(2 * time.Second),
		Outcome: pipeline.OutcomeWarning,
		Merge: &merge.Report{
			Merged: 5,
			Gaps:   []string{"orphan.html"},
		},
	}
	ev := NewBuildEvent(rep)

	assert.Equal(t, "run-9", ev.RunID)
	assert.Equal(t, "warning", ev.Outcome)
	assert.Equal(t, 5, ev.Merged)
	assert.Equal(t, 1, ev.Gaps)
	assert.Equal(t, int64(2000), ev.DurationMS)
}

func TestNewBuildEvent_NoMerge(t *testing.T) {
	rep := &pipeline.BuildReport{RunID: "run-2", Outcome: pipeline.OutcomeFailed}
	ev := NewBuildEvent(rep)
	assert.Zero(t, ev.Merged)
	assert.Zero(t, ev.Gaps)
}
