package docref

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/digest"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/summarize"
)

// WriteGate approves rewrites of individual source files. A nil gate approves
// everything.
type WriteGate interface {
	// Allow returns a descriptive error when path must not be rewritten.
	Allow(path string) error
}

// EventSink receives notable refresh events, typically backed by the journal.
// Implementations must tolerate concurrent calls.
type EventSink interface {
	Record(ctx context.Context, kind, document, detail string)
}

// Refresher walks the source tree and brings every docref occurrence up to
// date: resolve target, hash, decide, maybe generate, splice the declaring
// file back in place. Files are processed in parallel, occurrences within a
// file sequentially.
type Refresher struct {
	source      string
	suffixes    []string
	model       string
	strictModel bool
	concurrency int

	resolver  *Resolver
	generator summarize.Generator

	// Optional collaborators, assignable before Run.
	DryRun  bool
	Gate    WriteGate
	Metrics metrics.Recorder
	Events  EventSink
	Logger  *slog.Logger
}

func NewRefresher(cfg *config.Config, gen summarize.Generator) *Refresher {
	return &Refresher{
		source:      cfg.Source.Dir,
		suffixes:    cfg.Source.Suffixes,
		model:       cfg.Summary.Model,
		strictModel: cfg.Summary.ModelInvalidates(),
		concurrency: cfg.Summary.Concurrency,
		resolver:    NewResolver(cfg.Source.Dir, cfg.Source.Suffixes),
		generator:   gen,
		Metrics:     metrics.NoopRecorder{},
		Logger:      slog.Default(),
	}
}

// Run refreshes the whole source tree. A broken reference or malformed
// directive aborts the pass and cancels in-flight work; generation failures
// and rewrite IO errors degrade to warnings in the report.
func (r *Refresher) Run(ctx context.Context) (*RefreshReport, error) {
	start := time.Now()
	files, err := r.collectFiles()
	if err != nil {
		return nil, fmt.Errorf("scan source tree %s: %w", r.source, err)
	}
	report := &RefreshReport{Files: len(files)}
	if len(files) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := runOrdered(ctx, files, r.concurrency, func(path string) (fileResult, error) {
		res, err := r.refreshFile(ctx, path)
		if err != nil {
			cancel()
		}
		return res, err
	})

	var fatal error
	for _, res := range results {
		report.absorb(res.Value)
		if res.Err != nil && fatal == nil && !errors.Is(res.Err, context.Canceled) {
			fatal = res.Err
		}
	}
	if fatal == nil && ctx.Err() != nil {
		fatal = ctx.Err()
	}
	report.Duration = time.Since(start)
	if fatal != nil {
		return report, fatal
	}
	return report, nil
}

// collectFiles gathers candidate source files in deterministic order.
// Hidden and underscore-prefixed directories (build output conventions) are
// skipped.
func (r *Refresher) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != r.source && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		for _, suffix := range r.suffixes {
			if strings.HasSuffix(path, suffix) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (r *Refresher) refreshFile(ctx context.Context, path string) (fileResult, error) {
	var res fileResult

	content, err := os.ReadFile(path)
	if err != nil {
		res.warnings = append(res.warnings, fmt.Sprintf("skipped unreadable file %s: %v", path, err))
		r.Logger.Warn("skipping unreadable source file", logfields.File(path), logfields.Error(err))
		return res, nil
	}
	f, err := Parse(path, content)
	if err != nil {
		return res, err
	}
	if len(f.Occurrences) == 0 {
		return res, nil
	}

	dirty := 0
	gated, gateChecked := false, false
	for _, occ := range f.Occurrences {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.directives++

		targetPath, ok := r.resolver.Resolve(occ.Target)
		if !ok {
			return res, &BrokenReferenceError{File: path, Target: occ.Target}
		}
		targetContent, err := os.ReadFile(targetPath)
		if err != nil {
			return res, fmt.Errorf("read docref target %s: %w", targetPath, err)
		}
		fresh := digest.Compute(targetContent)

		decision, reason := Decide(occ, fresh, r.model, r.strictModel)
		if decision == Reuse {
			res.reused++
			r.Metrics.IncSummaryResult(metrics.SummaryReused)
			continue
		}

		// Ask the gate at the first stale occurrence, before spending any
		// generation calls whose output could not be written back.
		if !r.DryRun && !gateChecked && r.Gate != nil {
			gateChecked = true
			if gateErr := r.Gate.Allow(path); gateErr != nil {
				gated = true
				res.warnings = append(res.warnings, fmt.Sprintf("rewrite of %s refused: %v", path, gateErr))
				r.Logger.Warn("rewrite refused", logfields.File(path), logfields.Error(gateErr))
			}
		}

		if r.DryRun || gated {
			r.count(&res, decision)
			r.Logger.Info("summary is stale",
				logfields.File(path),
				logfields.Target(occ.Target),
				slog.String("reason", string(reason)))
			continue
		}

		genStart := time.Now()
		text, err := r.generator.Generate(ctx, targetContent, r.model)
		r.Metrics.ObserveGenerationDuration(time.Since(genStart))
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.failed++
			res.warnings = append(res.warnings, fmt.Sprintf("summary generation failed for %s (in %s): %v", occ.Target, path, err))
			r.Metrics.IncSummaryResult(metrics.SummaryFailed)
			r.Logger.Warn("summary generation failed",
				logfields.File(path),
				logfields.Target(occ.Target),
				logfields.Error(err))
			r.record(ctx, "generation_failed", occ.Target, err.Error())
			continue
		}

		occ.SetGenerated(fresh, r.model, text)
		dirty++
		r.count(&res, decision)
		r.Metrics.IncSummaryResult(metrics.SummaryGenerated)
		r.Logger.Debug("summary generated",
			logfields.File(path),
			logfields.Target(occ.Target),
			logfields.Model(r.model),
			slog.String("reason", string(reason)))
		r.record(ctx, "summary_generated", occ.Target, string(reason))
	}

	if dirty == 0 || r.DryRun {
		return res, nil
	}

	out, err := f.Splice()
	if err == nil && strings.HasSuffix(path, ".md") {
		stamped, stampErr := restampFingerprint(out)
		if stampErr != nil {
			r.Logger.Warn("fingerprint re-stamp failed", logfields.File(path), logfields.Error(stampErr))
		} else {
			out = stamped
		}
	}
	if err == nil {
		err = writeFileAtomic(path, out)
	}
	if err != nil {
		rerr := &RewriteError{File: path, Err: err}
		res.rewriteFailed = true
		res.warnings = append(res.warnings, rerr.Error())
		r.Logger.Error("directive rewrite failed", logfields.File(path), logfields.Error(err))
		r.record(ctx, "rewrite_failed", path, err.Error())
		return res, nil
	}
	res.rewritten = true
	r.Logger.Info("refreshed directives", logfields.File(path), slog.Int("updated", dirty))
	r.record(ctx, "file_rewritten", path, fmt.Sprintf("%d directives updated", dirty))
	return res, nil
}

func (r *Refresher) count(res *fileResult, decision Decision) {
	if decision == Bootstrap {
		res.bootstrapped++
		return
	}
	res.regenerated++
}

func (r *Refresher) record(ctx context.Context, kind, document, detail string) {
	if r.Events == nil {
		return
	}
	r.Events.Record(ctx, kind, document, detail)
}
