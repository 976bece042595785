// Package watch keeps the documentation mirror current while authors edit.
// It monitors the source tree for changes, coalesces change bursts into
// single runs and optionally triggers full rebuilds on a fixed schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/version"
)

// Reason identifies what prompted a run.
type Reason string

const (
	// ReasonChange marks runs triggered by source file modifications.
	ReasonChange Reason = "change"
	// ReasonInterval marks runs triggered by the periodic rebuild schedule.
	ReasonInterval Reason = "interval"
)

// RunFunc executes one watch-triggered run. The watcher serializes
// invocations; a run observing a canceled context should return promptly.
type RunFunc func(ctx context.Context, reason Reason)

// events that count as a content change. Chmod is deliberately excluded.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher observes the documentation sources and invokes a run function when
// they change. Construct with New, then Start; Stop tears down the filesystem
// watches, the scheduler and the metrics endpoint.
type Watcher struct {
	cfg *config.Config
	run RunFunc

	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
	// Registry backs the /metrics endpoint when watch.metrics_addr is set.
	Registry *prom.Registry

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	server    *http.Server

	trigger  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	runMu    sync.Mutex
}

// New creates a watcher over cfg.Source.Dir. The run function is invoked
// after each debounced change burst and on every rebuild interval tick.
func New(cfg *config.Config, run RunFunc) (*Watcher, error) {
	if run == nil {
		return nil, errors.New("run function is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		cfg:     cfg,
		run:     run,
		watcher: fsw,
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}, nil
}

// Start registers the filesystem watches and launches the event loops. It
// does not block; cancel ctx or call Stop to shut down.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.cfg.Source.Dir); err != nil {
		return err
	}
	w.logger().Info("watching documentation sources",
		logfields.Path(w.cfg.Source.Dir),
		slog.Duration("debounce", w.debounce()))

	go w.watchLoop(ctx)
	go w.runLoop(ctx)

	if interval := w.cfg.Watch.RebuildInterval(); interval > 0 {
		if err := w.startScheduler(ctx, interval); err != nil {
			return err
		}
	}
	if addr := w.cfg.Watch.MetricsAddr; addr != "" {
		if err := w.startMetricsServer(addr); err != nil {
			return err
		}
	}
	return nil
}

// Stop closes the watches and shuts down the scheduler and metrics endpoint.
// Safe to call more than once; an in-flight run is not interrupted beyond
// whatever its context dictates.
func (w *Watcher) Stop(ctx context.Context) error {
	var errs []error
	w.stopOnce.Do(func() {
		close(w.stop)
		if err := w.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("file watcher close: %w", err))
		}
		if w.scheduler != nil {
			if err := w.scheduler.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
			}
		}
		if w.server != nil {
			if err := w.server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}

// MetricsAddr returns the bound metrics listener address, or "" when the
// endpoint is disabled. Useful when the configured address has port 0.
func (w *Watcher) MetricsAddr() string {
	if w.server == nil {
		return ""
	}
	return w.server.Addr
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func (w *Watcher) debounce() time.Duration {
	if d := w.cfg.Watch.DebounceDuration(); d > 0 {
		return d
	}
	return 2 * time.Second
}

// addTree registers dir and every directory below it. fsnotify watches are
// not recursive; directories created later are added from their events.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// watchLoop drains filesystem events until the watcher stops.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger().Error("source watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				return
			}
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger().Warn("failed to watch new directory",
					logfields.Path(event.Name), logfields.Error(err))
			}
			return
		}
	}
	if event.Op&changeOps == 0 || !w.matches(event.Name) {
		return
	}
	w.logger().Debug("source change detected",
		logfields.File(event.Name), slog.String("op", event.Op.String()))
	select {
	case w.trigger <- struct{}{}:
	default:
		// a run is already pending
	}
}

// matches reports whether path carries one of the configured source suffixes.
func (w *Watcher) matches(path string) bool {
	for _, suffix := range w.cfg.Source.Suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// runLoop turns trigger pulses into debounced run invocations. Each pulse
// restarts the quiet window, so a burst of edits yields a single run.
func (w *Watcher) runLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce(), func() {
				w.invoke(ctx, ReasonChange)
			})
		}
	}
}

// invoke serializes run invocations so a schedule tick cannot overlap a
// change-triggered run.
func (w *Watcher) invoke(ctx context.Context, reason Reason) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.run(ctx, reason)
}

func (w *Watcher) startScheduler(ctx context.Context, interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { w.invoke(ctx, ReasonInterval) }),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		return fmt.Errorf("failed to schedule periodic rebuild: %w", err)
	}
	w.scheduler = s
	s.Start()
	w.logger().Info("periodic rebuild scheduled", slog.Duration("interval", interval))
	return nil
}

// startMetricsServer binds addr up front so a taken port fails Start instead
// of surfacing later from a goroutine.
func (w *Watcher) startMetricsServer(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics endpoint %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(w.Registry))
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprintf(rw, "{\"status\":\"ok\",\"version\":%q}\n", version.Version)
	})

	w.server = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := w.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger().Error("metrics server error", logfields.Error(err))
		}
	}()
	w.logger().Info("metrics endpoint listening", slog.String("addr", w.server.Addr))
	return nil
}
