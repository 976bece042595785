// Package commands defines the llmdocs command line grammar and wires the
// configured collaborators (journal, event publisher, worktree gate) into
// the refresh and build machinery.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries shared state bound into every command's Run.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command grammar with global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"llmdocs.yaml"`
	LogLevel  string           `name:"log-level" help:"Log level" enum:"debug,info,warn,error" default:"info"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	Quiet     bool             `short:"q" help:"Only log warnings and errors"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Refresh summaries, run the builds, merge and write the llms.txt artifacts"`
	Refresh RefreshCmd `cmd:"" help:"Refresh docref summaries in the source tree"`
	Merge   MergeCmd   `cmd:"" help:"Merge an existing markdown tree into the primary tree and write artifacts"`
	Watch   WatchCmd   `cmd:"" help:"Watch the sources and refresh or rebuild on change"`
	History HistoryCmd `cmd:"" help:"Show journal entries from past runs"`
	Init    InitCmd    `cmd:"" help:"Write a commented example configuration file"`
	Ver     VersionCmd `cmd:"" name:"version" help:"Show version information"`
}

// AfterApply runs after flag parsing; sets up the process logger once.
func (c *CLI) AfterApply() error {
	level := parseLevel(c.LogLevel)
	if c.Quiet {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
