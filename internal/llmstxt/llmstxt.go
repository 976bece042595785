// Package llmstxt writes the llms.txt sitemap and the llms-full.txt
// concatenation over the merged markdown pages.
package llmstxt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/llmdocs/internal/htmlmeta"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/mdextract"
	"git.home.luguber.info/inful/llmdocs/internal/merge"
)

const (
	SitemapName  = "llms.txt"
	FullTextName = "llms-full.txt"
)

// Entry is one sitemap line.
type Entry struct {
	Docname     string
	Title       string
	Description string
	Link        string
}

// Options configure artifact generation for one output tree.
type Options struct {
	OutDir      string
	Title       string
	Description string
	Copyright   string
	FullText    bool
}

// Builder produces the index artifacts from merged pages, in the order the
// merge report established.
type Builder struct {
	opts Options

	Logger *slog.Logger
}

func New(opts Options) *Builder {
	return &Builder{opts: opts, Logger: slog.Default()}
}

// Build writes llms.txt and, unless disabled, llms-full.txt. The sitemap is
// unconditional once merge ran.
func (b *Builder) Build(ctx context.Context, pages []merge.Page) error {
	if err := b.writeSitemap(b.Entries(pages)); err != nil {
		return err
	}
	if !b.opts.FullText {
		b.Logger.Debug("full text artifact disabled")
		return nil
	}
	return b.writeFullText(ctx, pages)
}

// Entries resolves title and description for every merged page. Title chain:
// first markdown heading, page <title>, name derived from the docname.
// Description chain: first substantial markdown line, meta description,
// generic fallback.
func (b *Builder) Entries(pages []merge.Page) []Entry {
	entries := make([]Entry, 0, len(pages))
	for _, page := range pages {
		content, err := os.ReadFile(filepath.Join(b.opts.OutDir, filepath.FromSlash(page.Path)))
		if err != nil {
			b.Logger.Warn("merged page unreadable, skipping sitemap entry", logfields.Path(page.Path), logfields.Error(err))
			continue
		}
		entries = append(entries, Entry{
			Docname:     page.Docname,
			Title:       b.pageTitle(page, content),
			Description: b.pageDescription(page, content),
			Link:        page.Path,
		})
	}
	return entries
}

func (b *Builder) pageTitle(page merge.Page, content []byte) string {
	if title, ok := mdextract.Title(content); ok {
		return title
	}
	if title, ok := htmlmeta.TitleFromFile(filepath.Join(b.opts.OutDir, filepath.FromSlash(page.HTML))); ok {
		return title
	}
	return titleFromDocname(page.Docname)
}

func (b *Builder) pageDescription(page merge.Page, content []byte) string {
	if desc, ok := mdextract.Description(content); ok {
		return desc
	}
	if desc, ok := htmlmeta.DescriptionFromFile(filepath.Join(b.opts.OutDir, filepath.FromSlash(page.HTML))); ok {
		return desc
	}
	if page.Docname == "index" {
		return "Main documentation page"
	}
	return "Page content"
}

func (b *Builder) writeSitemap(entries []Entry) error {
	title := b.opts.Title
	if title == "" {
		title = "Documentation"
	}
	desc := strings.TrimSpace(b.opts.Description)
	if desc == "" {
		desc = "Documentation for " + title
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	for _, line := range strings.Split(desc, "\n") {
		fmt.Fprintf(&sb, "> %s\n", line)
	}
	sb.WriteString("\n\n")
	if b.opts.Copyright != "" {
		fmt.Fprintf(&sb, "%s\n\n", b.opts.Copyright)
	}
	sb.WriteString("## Pages\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "- [%s](%s): %s\n", e.Title, e.Link, e.Description)
	}

	dest := filepath.Join(b.opts.OutDir, SitemapName)
	if err := os.WriteFile(dest, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	b.Logger.Info("wrote sitemap", logfields.Path(dest), slog.Int("pages", len(entries)))
	return nil
}

func (b *Builder) writeFullText(ctx context.Context, pages []merge.Page) error {
	var sb strings.Builder
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := os.ReadFile(filepath.Join(b.opts.OutDir, filepath.FromSlash(page.Path)))
		if err != nil {
			b.Logger.Warn("merged page unreadable, skipping in full text", logfields.Path(page.Path), logfields.Error(err))
			continue
		}
		fmt.Fprintf(&sb, "# %s\n\n", path.Base(page.Path))
		sb.Write(content)
		sb.WriteString("\n\n")
	}

	dest := filepath.Join(b.opts.OutDir, FullTextName)
	if err := os.WriteFile(dest, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write full text artifact: %w", err)
	}
	b.Logger.Info("wrote full text artifact", logfields.Path(dest), slog.Int("pages", len(pages)))
	return nil
}

// titleFromDocname derives a display title from the document name alone:
// the root index is "Home", a section index takes the section's name, and
// underscores read as spaces.
func titleFromDocname(docname string) string {
	if docname == "index" {
		return "Home"
	}
	base := path.Base(docname)
	if base == "index" {
		base = path.Base(path.Dir(docname))
	}
	return cases.Title(language.English).String(strings.ReplaceAll(base, "_", " "))
}
