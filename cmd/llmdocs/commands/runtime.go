package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/events"
	"git.home.luguber.info/inful/llmdocs/internal/gitsafe"
	"git.home.luguber.info/inful/llmdocs/internal/journal"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/pipeline"
)

// runtime bundles the optional collaborators a run may need: the SQLite
// journal and the NATS event publisher. Both are best effort; when they
// cannot be opened the run proceeds with a warning.
type runtime struct {
	cfg     *config.Config
	journal *journal.Journal
	events  *events.Publisher
}

func openRuntime(root *CLI) (*runtime, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg}

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			slog.Warn("journal unavailable", logfields.Path(cfg.Journal.Path), logfields.Error(err))
		} else {
			rt.journal = j
		}
	}
	if cfg.Events.URL != "" {
		pub, err := events.Connect(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("event publisher unavailable", logfields.Error(err))
		} else {
			rt.events = pub
		}
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.events != nil {
		rt.events.Close()
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			slog.Warn("journal close failed", logfields.Error(err))
		}
	}
}

// sinkFor returns a journal-backed event sink scoped to one run, nil when
// the journal is disabled.
func (rt *runtime) sinkFor(runID string) docref.EventSink {
	if rt.journal == nil {
		return nil
	}
	return &journal.Sink{Journal: rt.journal, RunID: runID}
}

func (rt *runtime) publishBuild(ctx context.Context, report *pipeline.BuildReport) {
	if rt.events == nil || report == nil {
		return
	}
	if err := rt.events.PublishBuild(ctx, events.NewBuildEvent(report)); err != nil {
		slog.Warn("build event publication failed", logfields.Error(err))
	}
}

func (rt *runtime) publishRefresh(ctx context.Context, runID string, rep *docref.RefreshReport) {
	if rt.events == nil || rep == nil {
		return
	}
	if err := rt.events.PublishRefresh(ctx, events.NewRefreshEvent(runID, rep)); err != nil {
		slog.Warn("refresh event publication failed", logfields.Error(err))
	}
}

// worktreeGate builds the clean-worktree gate when the configuration asks
// for it. A source tree outside any repository is then a hard error: the
// requested safety cannot be provided.
func worktreeGate(cfg *config.Config) (docref.WriteGate, error) {
	if !cfg.Summary.RequireCleanWorktree {
		return nil, nil
	}
	gate, err := gitsafe.New(cfg.Source.Dir)
	if err != nil {
		return nil, fmt.Errorf("require_clean_worktree: %w", err)
	}
	return gate, nil
}
