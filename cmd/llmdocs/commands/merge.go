package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/llmstxt"
	"git.home.luguber.info/inful/llmdocs/internal/merge"
)

// MergeCmd implements the 'merge' command: fold an already built markdown
// tree into the primary tree and write the artifacts, no subprocesses. Both
// trees must exist, typically produced by an external CI step.
type MergeCmd struct{}

func (m *MergeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	ctx := context.Background()

	merger := merge.New(cfg.Build.Output, cfg.Build.Staging, cfg.Build.Flavor, cfg.LLMs.SuffixMode)
	rep, err := merger.Merge(ctx)
	if err != nil {
		return err
	}

	builder := llmstxt.New(llmstxt.Options{
		OutDir:      cfg.Build.Output,
		Title:       cfg.Project.Title,
		Description: cfg.Project.Description,
		Copyright:   cfg.Project.Copyright,
		FullText:    cfg.LLMs.FullTextEnabled(),
	})
	if err := builder.Build(ctx, rep.Pages); err != nil {
		return err
	}

	fmt.Printf("merged %d of %d documents (%d gaps), wrote %s\n",
		rep.Merged, rep.Documents, len(rep.Gaps), llmstxt.SitemapName)
	return nil
}
