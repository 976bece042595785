package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/pipeline"
	"git.home.luguber.info/inful/llmdocs/internal/summarize"
	"git.home.luguber.info/inful/llmdocs/internal/watch"
)

// WatchCmd implements the 'watch' command: refresh summaries when sources
// change, run the full pipeline on schedule ticks or when watch.build is
// set, and serve metrics when an address is configured.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	rt, err := openRuntime(root)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.cfg.Summary.GenerationEnabled() && !rt.cfg.Watch.Build {
		return errors.New("watch mode needs summary generation enabled or watch.build: true")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gate, err := worktreeGate(rt.cfg)
	if err != nil {
		return err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	run := func(runCtx context.Context, reason watch.Reason) {
		runID := uuid.NewString()
		logger := slog.Default().With(logfields.RunID(runID), slog.String("trigger", string(reason)))

		if reason == watch.ReasonInterval || rt.cfg.Watch.Build {
			p := pipeline.New(rt.cfg, pipeline.Options{
				Gate:    gate,
				Events:  rt.sinkFor(runID),
				Metrics: recorder,
				Logger:  logger,
				RunID:   runID,
			})
			report, err := p.Run(runCtx)
			if err != nil {
				logger.Error("watch build failed", logfields.Error(err))
			}
			rt.publishBuild(runCtx, report)
			return
		}

		gen := summarize.NewOllamaGenerator(rt.cfg.Summary.Endpoint, rt.cfg.Summary.RequestTimeout())
		ref := docref.NewRefresher(rt.cfg, gen)
		ref.Gate = gate
		ref.Events = rt.sinkFor(runID)
		ref.Metrics = recorder
		ref.Logger = logger
		rep, err := ref.Run(runCtx)
		if err != nil {
			logger.Error("watch refresh failed", logfields.Error(err))
			return
		}
		logger.Info("refresh complete", slog.String("result", rep.Summary()))
		rt.publishRefresh(runCtx, runID, rep)
	}

	watcher, err := watch.New(rt.cfg, run)
	if err != nil {
		return err
	}
	watcher.Registry = registry
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	fmt.Println("watching for changes, ctrl-c to stop")
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return watcher.Stop(stopCtx)
}
