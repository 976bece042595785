// Package merge copies the markdown build's pages into the primary output
// tree under names derived from the configured suffix mode and builder
// flavor. It only ever writes new files; primary build output is read-only
// here.
package merge

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
)

// servicePages are builder chrome, not logical documents. The secondary
// build never produces counterparts for them, so they are excluded from the
// walk instead of reported as gaps.
var servicePages = map[string]bool{
	"genindex": true,
	"search":   true,
	"404":      true,
}

// Merger merges one completed secondary (markdown) tree into one completed
// primary tree.
type Merger struct {
	primary string
	staging string
	flavor  config.Flavor
	mode    config.SuffixMode

	Logger  *slog.Logger
	Metrics metrics.Recorder
}

func New(primary, staging string, flavor config.Flavor, mode config.SuffixMode) *Merger {
	return &Merger{
		primary: primary,
		staging: staging,
		flavor:  flavor,
		mode:    mode,
		Logger:  slog.Default(),
		Metrics: metrics.NoopRecorder{},
	}
}

// Page is one successfully merged document.
type Page struct {
	Docname string   `json:"docname"` // logical document name, slash separated
	Path    string   `json:"path"`    // sitemap link target, relative to the primary root
	HTML    string   `json:"html"`    // rendered primary file, relative to the primary root
	Written []string `json:"written"` // every path written for this document (auto writes two)
}

// Report aggregates one merge pass.
type Report struct {
	Documents int      `json:"documents"`
	Merged    int      `json:"merged"`
	Files     int      `json:"files"`
	Gaps      []string `json:"gaps,omitempty"`

	// Pages in sitemap order: root index first, then lexicographic by path.
	Pages []Page `json:"pages"`
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%d of %d documents merged, %d files written, %d gaps",
		r.Merged, r.Documents, r.Files, len(r.Gaps))
}

// Merge walks the primary tree and copies each document's markdown
// counterpart to its derived names. Missing counterparts are gaps, not
// errors; an unknown suffix mode or an IO failure on write is fatal.
func (m *Merger) Merge(ctx context.Context) (*Report, error) {
	mode := config.NormalizeSuffixMode(string(m.mode))
	if mode == "" {
		return nil, fmt.Errorf("unknown suffix mode %q, want auto, file-suffix, url-suffix or replace", m.mode)
	}
	flavor := config.NormalizeFlavor(string(m.flavor))
	if flavor == "" {
		return nil, fmt.Errorf("unknown builder flavor %q, want html or dirhtml", m.flavor)
	}

	rels, err := m.collectPrimaryDocs(flavor)
	if err != nil {
		return nil, fmt.Errorf("walk primary tree %s: %w", m.primary, err)
	}

	report := &Report{Documents: len(rels)}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		docname, counterpart, ok := m.locateCounterpart(flavor, rel)
		if !ok {
			report.Gaps = append(report.Gaps, rel)
			m.Logger.Warn("no markdown counterpart for document", logfields.Document(rel))
			m.Metrics.IncMergeGap()
			continue
		}
		content, err := os.ReadFile(counterpart)
		if err != nil {
			report.Gaps = append(report.Gaps, rel)
			m.Logger.Warn("markdown counterpart unreadable", logfields.Document(rel), logfields.Error(err))
			m.Metrics.IncMergeGap()
			continue
		}

		targets, primary := deriveTargets(flavor, mode, rel, docname)
		for _, target := range targets {
			dest := filepath.Join(m.primary, filepath.FromSlash(target))
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return report, fmt.Errorf("create merge target dir: %w", err)
			}
			if err := os.WriteFile(dest, content, 0644); err != nil {
				return report, fmt.Errorf("write merged page %s: %w", dest, err)
			}
		}
		report.Merged++
		report.Files += len(targets)
		report.Pages = append(report.Pages, Page{Docname: docname, Path: primary, HTML: rel, Written: targets})
		m.Logger.Debug("merged document", logfields.Document(docname), logfields.Path(primary))
	}

	sortPages(report.Pages)
	m.Metrics.AddMergedFiles(report.Files)
	return report, nil
}

// collectPrimaryDocs gathers document files from the primary tree in
// deterministic order. Flat flavor: every *.html file. Dirhtml flavor: every
// index.html, one per document directory.
func (m *Merger) collectPrimaryDocs(flavor config.Flavor) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(m.primary, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != m.primary && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(m.primary, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isServicePath(rel) {
			return nil
		}
		switch flavor {
		case config.FlavorDirHTML:
			if d.Name() == "index.html" {
				rels = append(rels, rel)
			}
		default:
			if strings.HasSuffix(rel, ".html") {
				rels = append(rels, rel)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(rels)
	return rels, nil
}

// locateCounterpart finds the markdown file for one primary document and
// resolves its logical docname. Dirhtml output is ambiguous between document
// x and index document x/index, so x/index.md is probed before x.md.
func (m *Merger) locateCounterpart(flavor config.Flavor, rel string) (docname, path string, ok bool) {
	if flavor != config.FlavorDirHTML {
		docname = strings.TrimSuffix(rel, ".html")
		path = filepath.Join(m.staging, filepath.FromSlash(docname)+".md")
		if fileExists(path) {
			return docname, path, true
		}
		return docname, "", false
	}

	if rel == "index.html" {
		path = filepath.Join(m.staging, "index.md")
		if fileExists(path) {
			return "index", path, true
		}
		return "index", "", false
	}

	dir := strings.TrimSuffix(rel, "/index.html")
	for _, candidate := range []string{dir + "/index", dir} {
		path = filepath.Join(m.staging, filepath.FromSlash(candidate)+".md")
		if fileExists(path) {
			return candidate, path, true
		}
	}
	return dir, "", false
}

// deriveTargets maps one document to the relative paths to write, plus the
// one the sitemap should link. Replace mode mirrors the source layout
// (docname.md); file-suffix appends .md to the rendered file name;
// url-suffix names the page after its URL.
func deriveTargets(flavor config.Flavor, mode config.SuffixMode, rel, docname string) (targets []string, primary string) {
	if flavor != config.FlavorDirHTML {
		if mode == config.SuffixModeReplace {
			target := docname + ".md"
			return []string{target}, target
		}
		target := rel + ".md"
		return []string{target}, target
	}

	fileSuffix := rel + ".md"
	urlSuffix := docname + ".md"
	if rel != "index.html" && strings.HasSuffix(docname, "/index") {
		// Index document of a section: the URL is the section itself.
		urlSuffix = strings.TrimSuffix(docname, "/index") + ".md"
	}

	switch mode {
	case config.SuffixModeFileSuffix:
		return []string{fileSuffix}, fileSuffix
	case config.SuffixModeURLSuffix:
		return []string{urlSuffix}, urlSuffix
	case config.SuffixModeReplace:
		target := docname + ".md"
		return []string{target}, target
	default: // auto
		if urlSuffix == fileSuffix {
			return []string{fileSuffix}, fileSuffix
		}
		return []string{fileSuffix, urlSuffix}, fileSuffix
	}
}

// sortPages orders the sitemap: root index first, then lexicographic by
// merged path. Build engine TOC order is not observable across the
// subprocess boundary, so this deterministic order stands in for it.
func sortPages(pages []Page) {
	sort.Slice(pages, func(i, j int) bool {
		ri, rj := pages[i].Docname == "index", pages[j].Docname == "index"
		if ri != rj {
			return ri
		}
		return pages[i].Path < pages[j].Path
	})
}

func isServicePath(rel string) bool {
	first, _, _ := strings.Cut(rel, "/")
	return servicePages[strings.TrimSuffix(first, ".html")]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
