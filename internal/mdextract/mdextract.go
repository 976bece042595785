// Package mdextract pulls sitemap metadata (titles, descriptions) out of
// markdown documents. It is an analysis API over the Goldmark AST; it never
// re-renders markdown.
package mdextract

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// descriptionMaxLen is where descriptions are cut for sitemap entries.
const descriptionMaxLen = 100

// Title returns the text of the first heading, whatever its level. Rendered
// markdown pages open with their page title, so first wins.
func Title(body []byte) (string, bool) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			title = strings.TrimSpace(textOf(h, body))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title, title != ""
}

// Description returns the first substantial prose line of the document:
// the first paragraph line longer than ten characters that is not a heading,
// comment or directive. Long lines are truncated with an ellipsis.
func Description(body []byte) (string, bool) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var desc string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		p, ok := n.(*gmast.Paragraph)
		if !ok {
			return gmast.WalkContinue, nil
		}
		for _, line := range strings.Split(textOf(p, body), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || len(line) <= 10 {
				continue
			}
			// Directive and field-list lines can leak into markdown builds.
			if strings.HasPrefix(line, "..") || strings.HasPrefix(line, ":") {
				continue
			}
			desc = truncate(line)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return desc, desc != ""
}

func truncate(s string) string {
	if len(s) > descriptionMaxLen {
		return s[:descriptionMaxLen] + "..."
	}
	return s
}

// textOf collects the literal text under a node, preserving soft line breaks
// as newlines so callers can reason per line.
func textOf(node gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(node, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
