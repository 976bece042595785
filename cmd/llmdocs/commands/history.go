package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/journal"
)

// HistoryCmd implements the 'history' command over the SQLite journal.
type HistoryCmd struct {
	Limit int    `help:"Maximum entries to show" default:"50"`
	RunID string `name:"run" help:"Only show entries for this run id"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return errors.New("journal is not configured (set journal.path)")
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Events(context.Background(), journal.Query{RunID: h.RunID, Limit: h.Limit})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no journal entries")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tKIND\tDOCUMENT\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.RunID, e.Kind, e.Document, e.Detail)
	}
	return tw.Flush()
}
