// Package htmlmeta extracts page metadata from rendered HTML. It backs the
// sitemap builder when a markdown mirror yields no usable title or
// description.
package htmlmeta

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// TitleFromFile extracts the page title from an HTML file.
func TitleFromFile(path string) (string, bool) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", false
	}
	defer func() {
		_ = f.Close()
	}()
	return Title(f)
}

// Title extracts the page title from HTML content: the <title> element first,
// falling back to the first <h1>. Builder-appended suffixes like
// "Page — Project documentation" are cut at the separator.
func Title(r io.Reader) (string, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false
	}

	if t := findText(doc, "title"); t != "" {
		return stripSuffix(t), true
	}
	if t := findText(doc, "h1"); t != "" {
		return stripSuffix(t), true
	}
	return "", false
}

// DescriptionFromFile extracts the meta description from an HTML file.
func DescriptionFromFile(path string) (string, bool) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", false
	}
	defer func() {
		_ = f.Close()
	}()
	return Description(f)
}

// Description extracts the content of a <meta name="description"> tag.
func Description(r io.Reader) (string, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false
	}

	var desc string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if desc != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			name, content := "", ""
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if name == "description" {
				desc = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return desc, desc != ""
}

// findText returns the collected text of the first element with the given tag.
func findText(root *html.Node, tag string) string {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(extractText(found))
}

// extractText collects text content from a node and its children.
func extractText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// stripSuffix removes the site-name tail that HTML builders append to titles
// and the headerlink pilcrow some themes render inside headings.
func stripSuffix(title string) string {
	title = strings.TrimSuffix(strings.TrimSpace(title), "¶")
	for _, sep := range []string{" — ", " – ", " - "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}
