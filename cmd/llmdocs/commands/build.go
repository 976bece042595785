package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/llmdocs/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	NoRefresh bool `name:"no-refresh" help:"Skip the summary refresh stage"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	rt, err := openRuntime(root)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gate, err := worktreeGate(rt.cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	p := pipeline.New(rt.cfg, pipeline.Options{
		Gate:      gate,
		Events:    rt.sinkFor(runID),
		NoRefresh: b.NoRefresh,
		RunID:     runID,
	})

	report, err := p.Run(ctx)
	rt.publishBuild(ctx, report)
	if report != nil {
		fmt.Println(report.Summary())
	}
	return err
}
