// Package gitsafe refuses docref rewrites of files that are not committed
// clean in the enclosing git worktree, so generated text never buries manual
// edits the author has not secured yet.
package gitsafe

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Gate snapshots the enclosing worktree's status once and answers per-file
// rewrite permission from it. It satisfies the refresher's write gate.
type Gate struct {
	root   string // worktree root, absolute
	status git.Status
}

// New opens the repository enclosing dir and snapshots its status. Dirty
// state appearing after construction is not seen; the refresher holds the
// gate only for the duration of one pass.
func New(dir string) (*Gate, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository enclosing %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("compute worktree status: %w", err)
	}
	return &Gate{root: wt.Filesystem.Root(), status: status}, nil
}

// Allow returns an error unless path is tracked and unchanged. Untracked
// files count as unsafe: they have no committed baseline to recover from.
func (g *Gate) Allow(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return fmt.Errorf("resolve %s against worktree root %s: %w", path, g.root, err)
	}
	st, ok := g.status[filepath.ToSlash(rel)]
	if !ok {
		return nil
	}
	if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
		return nil
	}
	return fmt.Errorf("%s has uncommitted changes; commit or stash before refreshing summaries", path)
}
