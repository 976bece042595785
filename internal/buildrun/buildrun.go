// Package buildrun invokes the primary and markdown documentation builds as
// subprocesses. The build engine is an external collaborator; all llmdocs
// knows is the argv to run and the output tree it leaves behind.
package buildrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/llmdocs/internal/logfields"
)

var (
	// ErrNoCommand means the build has no argv configured.
	ErrNoCommand = errors.New("no build command configured")
	// ErrBinaryNotFound means the build binary is not on PATH.
	ErrBinaryNotFound = errors.New("build binary not found")
	// ErrExecutionFailed wraps a non-zero build exit.
	ErrExecutionFailed = errors.New("build execution failed")
)

// excerptLimit bounds how much captured build output is replayed into the
// log on failure.
const excerptLimit = 8 << 10

// Spec describes one build subprocess.
type Spec struct {
	Name   string   // "primary" or "markdown"; names the log file
	Argv   []string // command and arguments, placeholders already expanded
	LogDir string   // directory receiving the captured output log
}

// Result captures one finished build invocation.
type Result struct {
	ExitCode int
	Duration time.Duration
	LogPath  string
}

// Runner abstracts how a build is performed, so tests and disabled builds
// can swap the external binary out without changing orchestration.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// Expand substitutes {source}, {output} and {staging} placeholders in an
// argv template.
func Expand(argv []string, source, output, staging string) []string {
	expanded := make([]string, len(argv))
	replacer := strings.NewReplacer("{source}", source, "{output}", output, "{staging}", staging)
	for i, arg := range argv {
		expanded[i] = replacer.Replace(arg)
	}
	return expanded
}

// CommandRunner runs the configured build binary, streaming its combined
// output to a log file that is replayed at error level when the build fails.
type CommandRunner struct {
	Logger *slog.Logger
}

func NewCommandRunner() *CommandRunner {
	return &CommandRunner{Logger: slog.Default()}
}

func (r *CommandRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if len(spec.Argv) == 0 {
		return nil, ErrNoCommand
	}
	if _, err := exec.LookPath(spec.Argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}

	logPath := filepath.Join(spec.LogDir, spec.Name+"-build.log")
	if err := os.MkdirAll(spec.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create build log dir: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create build log: %w", err)
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	r.Logger.Info("running build subprocess",
		slog.String("build", spec.Name),
		slog.String("command", strings.Join(spec.Argv, " ")),
		logfields.Path(logPath))

	start := time.Now()
	runErr := cmd.Run()
	closeErr := logFile.Close()

	result := &Result{Duration: time.Since(start), LogPath: logPath}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	} else {
		result.ExitCode = -1
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		r.Logger.Error("build subprocess failed",
			slog.String("build", spec.Name),
			slog.Int("exit_code", result.ExitCode),
			slog.String("output", readExcerpt(logPath)))
		return result, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, spec.Name, runErr)
	}
	if closeErr != nil {
		return result, fmt.Errorf("close build log: %w", closeErr)
	}

	r.Logger.Info("build subprocess finished",
		slog.String("build", spec.Name),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// readExcerpt returns the tail of the captured build output for diagnostics.
func readExcerpt(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(content) > excerptLimit {
		content = content[len(content)-excerptLimit:]
	}
	return strings.TrimSpace(string(content))
}

// NoopRunner performs no build; used when a build argv is not configured and
// in tests.
type NoopRunner struct{}

func (NoopRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	slog.Debug("skipping build, no command configured", slog.String("build", spec.Name))
	return &Result{}, nil
}
