package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/summarize"
)

// RefreshCmd implements the 'refresh' command. Unlike the build pipeline it
// runs even when summary.enabled is false: the explicit command is the
// manual override of that toggle.
type RefreshCmd struct {
	DryRun bool `name:"dry-run" help:"Report decisions without generating or rewriting"`
	Check  bool `help:"Exit non-zero when any summary is stale (implies --dry-run)"`
}

func (r *RefreshCmd) Run(_ *Global, root *CLI) error {
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
	gen := summarize.NewOllamaGenerator(rt.cfg.Summary.Endpoint, rt.cfg.Summary.RequestTimeout())
	ref := docref.NewRefresher(rt.cfg, gen)
	ref.DryRun = r.DryRun || r.Check
	ref.Gate = gate
	ref.Events = rt.sinkFor(runID)

	rep, err := ref.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println(rep.Summary())
	rt.publishRefresh(ctx, runID, rep)

	if r.Check && rep.Stale() > 0 {
		return fmt.Errorf("%d summaries are stale", rep.Stale())
	}
	return nil
}
