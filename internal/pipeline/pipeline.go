// Package pipeline orchestrates one full build run as an ordered sequence of
// stages: refresh docref summaries, run the primary and markdown build
// subprocesses, merge the markdown tree into the primary tree, write the
// llms.txt artifacts, clean up staging. Stage failures carry a severity so a
// degraded secondary build warns instead of aborting the site build.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/llmdocs/internal/buildrun"
	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/llmstxt"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/merge"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/summarize"
)

// Options carries optional collaborators for a Pipeline. Zero values select
// working defaults.
type Options struct {
	Runner    buildrun.Runner     // defaults to buildrun.NewCommandRunner()
	Generator summarize.Generator // defaults to the configured Ollama client
	Gate      docref.WriteGate    // nil approves all rewrites
	Events    docref.EventSink    // nil disables journal rows
	Metrics   metrics.Recorder    // defaults to NoopRecorder
	Logger    *slog.Logger        // defaults to slog.Default()
	NoRefresh bool                // skip the summary refresh stage
	RunID     string              // externally assigned run id, fresh UUID when empty
}

// Pipeline runs the staged build for one configuration.
type Pipeline struct {
	cfg       *config.Config
	runner    buildrun.Runner
	generator summarize.Generator
	gate      docref.WriteGate
	events    docref.EventSink
	metrics   metrics.Recorder
	logger    *slog.Logger
	noRefresh bool
	runID     string
}

func New(cfg *config.Config, opts Options) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		runner:    opts.Runner,
		generator: opts.Generator,
		gate:      opts.Gate,
		events:    opts.Events,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		noRefresh: opts.NoRefresh,
		runID:     opts.RunID,
	}
	if p.runner == nil {
		p.runner = buildrun.NewCommandRunner()
	}
	if p.generator == nil {
		p.generator = summarize.NewOllamaGenerator(cfg.Summary.Endpoint, cfg.Summary.RequestTimeout())
	}
	if p.metrics == nil {
		p.metrics = metrics.NoopRecorder{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// BuildState carries mutable state across stages of one run.
type BuildState struct {
	Report  *BuildReport
	Metrics metrics.Recorder

	pages       []merge.Page
	markdown    chan markdownOutcome // non-nil while the markdown build runs alongside the primary one
	markdownRan bool                 // a configured markdown build executed this run
	skipMerge   bool                 // merge and artifacts are skipped this run
}

type markdownOutcome struct {
	result *buildrun.Result
	err    error
}

// Run executes the full pipeline and always returns a report. The error is
// the first fatal stage error, nil on success or warning outcomes.
func (p *Pipeline) Run(pctx context.Context) (*BuildReport, error) {
	ctx, cancel := context.WithCancel(pctx)
	defer cancel()

	report := newBuildReport()
	if p.runID != "" {
		report.RunID = p.runID
	}
	bs := &BuildState{Report: report, Metrics: p.metrics}

	p.logger.Info("build started", logfields.RunID(report.RunID))
	p.record(ctx, "build_started", "", "")

	err := runStages(ctx, bs, []namedStage{
		{StageRefresh, p.stageRefresh},
		{StageBuildPrimary, p.stageBuildPrimary},
		{StageBuildMarkdown, p.stageBuildMarkdown},
		{StageMerge, p.stageMerge},
		{StageArtifacts, p.stageArtifacts},
		{StageCleanup, p.stageCleanup},
	})

	report.finish()
	report.deriveOutcome()
	p.metrics.ObserveBuildDuration(report.End.Sub(report.Start))
	p.metrics.IncBuildOutcome(string(report.Outcome))
	p.metrics.SetLastBuildTime(report.End)

	if perr := report.Persist(p.cfg.Build.Output); perr != nil {
		p.logger.Warn("persisting build report failed", logfields.Error(perr))
	}
	p.record(pctx, "build_completed", "", report.Summary())
	p.logger.Info("build finished",
		logfields.RunID(report.RunID),
		slog.String("outcome", string(report.Outcome)),
		logfields.DurationMS(float64(report.End.Sub(report.Start).Milliseconds())))
	return report, err
}

func (p *Pipeline) record(ctx context.Context, kind, document, detail string) {
	if p.events == nil {
		return
	}
	p.events.Record(ctx, kind, document, detail)
}

func (p *Pipeline) stageRefresh(ctx context.Context, bs *BuildState) error {
	if p.noRefresh || !p.cfg.Summary.GenerationEnabled() {
		p.logger.Debug("summary refresh disabled")
		return nil
	}
	r := docref.NewRefresher(p.cfg, p.generator)
	r.Gate = p.gate
	r.Events = p.events
	r.Metrics = p.metrics
	r.Logger = p.logger

	rep, err := r.Run(ctx)
	bs.Report.Refresh = rep
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageRefresh, err)
		}
		return newFatalStageError(StageRefresh, err)
	}
	if len(rep.Warnings) > 0 {
		return newWarnStageError(StageRefresh, fmt.Errorf("%d occurrences degraded", len(rep.Warnings)))
	}
	return nil
}

func (p *Pipeline) stageBuildPrimary(ctx context.Context, bs *BuildState) error {
	if len(p.cfg.Build.Markdown) > 0 && p.cfg.Build.ParallelEnabled() {
		ch := make(chan markdownOutcome, 1)
		bs.markdown = ch
		spec := p.markdownSpec()
		go func() {
			res, err := p.runner.Run(ctx, spec)
			ch <- markdownOutcome{result: res, err: err}
		}()
	}
	if len(p.cfg.Build.Primary) == 0 {
		p.logger.Debug("primary build not configured")
		return nil
	}
	res, err := p.runner.Run(ctx, p.primarySpec())
	bs.Report.PrimaryBuild = invocationOf(res)
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageBuildPrimary, ctx.Err())
		}
		return newFatalStageError(StageBuildPrimary, err)
	}
	return nil
}

func (p *Pipeline) stageBuildMarkdown(ctx context.Context, bs *BuildState) error {
	if bs.markdown != nil {
		out := <-bs.markdown
		bs.markdown = nil
		return p.finishMarkdown(ctx, bs, out.result, out.err)
	}
	if len(p.cfg.Build.Markdown) == 0 {
		p.logger.Debug("markdown build not configured")
		return nil
	}
	res, err := p.runner.Run(ctx, p.markdownSpec())
	return p.finishMarkdown(ctx, bs, res, err)
}

// finishMarkdown classifies a completed markdown build. A failure degrades
// the run: the primary site still ships, merge and artifacts are skipped.
func (p *Pipeline) finishMarkdown(ctx context.Context, bs *BuildState, res *buildrun.Result, err error) error {
	bs.markdownRan = true
	bs.Report.MarkdownBuild = invocationOf(res)
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageBuildMarkdown, ctx.Err())
		}
		bs.skipMerge = true
		bs.Report.SkipReason = "markdown_build_failed"
		return newWarnStageError(StageBuildMarkdown, err)
	}
	return nil
}

func (p *Pipeline) stageMerge(ctx context.Context, bs *BuildState) error {
	if bs.skipMerge {
		return nil
	}
	if !dirExists(p.cfg.Build.Staging) {
		bs.skipMerge = true
		bs.Report.SkipReason = "staging_missing"
		return newWarnStageError(StageMerge, fmt.Errorf("markdown staging tree %s not found", p.cfg.Build.Staging))
	}
	m := merge.New(p.cfg.Build.Output, p.cfg.Build.Staging, p.cfg.Build.Flavor, p.cfg.LLMs.SuffixMode)
	m.Logger = p.logger
	m.Metrics = p.metrics

	rep, err := m.Merge(ctx)
	bs.Report.Merge = rep
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageMerge, err)
		}
		return newFatalStageError(StageMerge, err)
	}
	bs.pages = rep.Pages
	if len(rep.Gaps) > 0 {
		return newWarnStageError(StageMerge, fmt.Errorf("%d documents lack a markdown counterpart", len(rep.Gaps)))
	}
	return nil
}

func (p *Pipeline) stageArtifacts(ctx context.Context, bs *BuildState) error {
	if bs.skipMerge {
		return nil
	}
	b := llmstxt.New(llmstxt.Options{
		OutDir:      p.cfg.Build.Output,
		Title:       p.cfg.Project.Title,
		Description: p.cfg.Project.Description,
		Copyright:   p.cfg.Project.Copyright,
		FullText:    p.cfg.LLMs.FullTextEnabled(),
	})
	if err := b.Build(ctx, bs.pages); err != nil {
		return newFatalStageError(StageArtifacts, err)
	}
	bs.Report.ArtifactsWritten = true
	return nil
}

// stageCleanup removes the staging tree, but only when this run's own
// markdown build produced it and merge consumed it. A failed build keeps
// staging (and its log) around for inspection; an externally built tree is
// never deleted.
func (p *Pipeline) stageCleanup(ctx context.Context, bs *BuildState) error {
	if !bs.markdownRan || bs.skipMerge {
		return nil
	}
	if err := os.RemoveAll(p.cfg.Build.Staging); err != nil {
		return newWarnStageError(StageCleanup, fmt.Errorf("remove staging tree: %w", err))
	}
	return nil
}

// The primary log lands next to the run report. Only the markdown build may
// create the staging tree: merge treats an existing staging dir as a tree to
// consume, so a primary-only run must not leave one behind.
func (p *Pipeline) primarySpec() buildrun.Spec {
	return buildrun.Spec{
		Name:   "primary",
		Argv:   buildrun.Expand(p.cfg.Build.Primary, p.cfg.Source.Dir, p.cfg.Build.Output, p.cfg.Build.Staging),
		LogDir: p.cfg.Build.Output,
	}
}

func (p *Pipeline) markdownSpec() buildrun.Spec {
	return buildrun.Spec{
		Name:   "markdown",
		Argv:   buildrun.Expand(p.cfg.Build.Markdown, p.cfg.Source.Dir, p.cfg.Build.Output, p.cfg.Build.Staging),
		LogDir: p.cfg.Build.Staging,
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
