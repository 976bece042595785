package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
)

func watchConfig(t *testing.T, debounce string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Source.Dir = filepath.Join(root, "docs")
	cfg.Source.Suffixes = []string{".md"}
	cfg.Build.Output = filepath.Join(root, "site")
	cfg.Build.Staging = filepath.Join(root, "site", "_markdown_build")
	cfg.Build.Flavor = config.FlavorHTML
	cfg.LLMs.SuffixMode = config.SuffixModeAuto
	cfg.Summary.Timeout = "60s"
	cfg.Watch.Debounce = debounce
	require.NoError(t, cfg.Validate())
	require.NoError(t, os.MkdirAll(cfg.Source.Dir, 0755))
	return cfg
}

// runRecorder collects run invocations on a channel so tests can wait for
// them without polling.
type runRecorder struct {
	runs chan Reason
}

func newRunRecorder() *runRecorder {
	return &runRecorder{runs: make(chan Reason, 16)}
}

func (r *runRecorder) fn(_ context.Context, reason Reason) {
	r.runs <- reason
}

func (r *runRecorder) wait(t *testing.T, timeout time.Duration) Reason {
	t.Helper()
	select {
	case reason := <-r.runs:
		return reason
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a run")
		return ""
	}
}

func (r *runRecorder) expectNone(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case reason := <-r.runs:
		t.Fatalf("unexpected run: %s", reason)
	case <-time.After(window):
	}
}

func TestWatcher_ChangeTriggersDebouncedRun(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Dir, "index.md"), []byte("# Home\n"), 0644))

	assert.Equal(t, ReasonChange, rec.wait(t, 3*time.Second))
}

func TestWatcher_CoalescesEditBursts(t *testing.T) {
	cfg := watchConfig(t, "150ms")
	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	for i := range 4 {
		name := fmt.Sprintf("page-%d.md", i)
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Dir, name), []byte("text\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	rec.wait(t, 3*time.Second)
	rec.expectNone(t, 400*time.Millisecond)
}

func TestWatcher_IgnoresForeignSuffixes(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Dir, "notes.txt"), []byte("scratch\n"), 0644))

	rec.expectNone(t, 300*time.Millisecond)
}

func TestWatcher_WatchesCreatedDirectories(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	sub := filepath.Join(cfg.Source.Dir, "guides")
	require.NoError(t, os.Mkdir(sub, 0755))
	// give the create event time to land so the new directory is watched
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "install.md"), []byte("# Install\n"), 0644))

	assert.Equal(t, ReasonChange, rec.wait(t, 3*time.Second))
}

func TestWatcher_IntervalTriggersScheduledRuns(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	cfg.Watch.Interval = "40ms"
	require.NoError(t, cfg.Validate())

	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	assert.Equal(t, ReasonInterval, rec.wait(t, 3*time.Second))
}

func TestWatcher_ServesMetricsEndpoint(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	cfg.Watch.MetricsAddr = "127.0.0.1:0"

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	recorder.IncBuildOutcome("success")

	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	w.Registry = reg
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	base := "http://" + w.MetricsAddr()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "llmdocs_build_outcomes_total")
}

func TestWatcher_StopQuiescesTriggers(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	rec := newRunRecorder()
	w, err := New(cfg, rec.fn)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	require.NoError(t, w.Stop(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Source.Dir, "late.md"), []byte("late\n"), 0644))

	rec.expectNone(t, 300*time.Millisecond)
}

func TestNew_RequiresRunFunction(t *testing.T) {
	cfg := watchConfig(t, "30ms")
	_, err := New(cfg, nil)
	require.Error(t, err)
}
