// Package docref discovers docref directives in documentation sources,
// decides per occurrence whether the embedded summary can be reused, and
// rewrites stale occurrences in place. The declaring file is the only cache:
// digest, model and summary text are stored as directive options and body.
package docref

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// markerPattern matches the directive introduction line. Group 1 is the
// indentation, group 2 the raw target text.
var markerPattern = regexp.MustCompile(`^([ \t]*)\.\. docref::(.*)$`)

// optionPattern matches reStructuredText field options below the marker.
var optionPattern = regexp.MustCompile(`^:([A-Za-z0-9_.-]+):[ \t]?(.*)$`)

const (
	optionHash  = "hash"
	optionModel = "model"

	// bodyIndent is the canonical indentation of option and body lines
	// relative to the marker.
	bodyIndent = "   "
)

// Occurrence is one docref directive found in a source file, together with
// the exact byte span it occupies so a rewrite can splice the canonical form
// back without touching surrounding content.
type Occurrence struct {
	Target string
	Hash   string
	Model  string
	Body   string
	Extra  []string // unrecognized option lines, kept verbatim

	Line int // 1-based marker line, for diagnostics

	indent     string
	start      int
	end        int
	terminated bool // span ends with a line terminator
	dirty      bool
}

// SetGenerated records a fresh summary on the occurrence and marks it for
// rewrite.
func (o *Occurrence) SetGenerated(hash, model, body string) {
	o.Hash = hash
	o.Model = model
	o.Body = body
	o.dirty = true
}

// Stored reports whether the occurrence carries any cached attributes at all.
func (o *Occurrence) Stored() bool {
	return o.Hash != "" || o.Model != ""
}

// render serializes the occurrence in canonical form: marker, hash and model
// options, unrecognized options verbatim, then a blank line and the indented
// body. The trailing terminator matches what the parsed span ended with.
func (o *Occurrence) render(nl string) []byte {
	opt := o.indent + bodyIndent
	lines := []string{o.indent + ".. docref:: " + o.Target}
	if o.Hash != "" {
		lines = append(lines, opt+":"+optionHash+": "+o.Hash)
	}
	if o.Model != "" {
		lines = append(lines, opt+":"+optionModel+": "+o.Model)
	}
	for _, extra := range o.Extra {
		lines = append(lines, opt+extra)
	}
	if o.Body != "" {
		lines = append(lines, "")
		for _, ln := range strings.Split(o.Body, "\n") {
			if ln == "" {
				lines = append(lines, "")
				continue
			}
			lines = append(lines, opt+ln)
		}
	}
	out := strings.Join(lines, nl)
	if o.terminated {
		out += nl
	}
	return []byte(out)
}

// File is a parsed source file with its directive occurrences.
type File struct {
	Path        string
	Occurrences []*Occurrence

	content []byte
	newline string
}

// Dirty reports whether any occurrence needs writing back.
func (f *File) Dirty() bool {
	for _, occ := range f.Occurrences {
		if occ.dirty {
			return true
		}
	}
	return false
}

// ParseFile reads path and parses its directives.
func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, content)
}

// Parse scans content for docref directives. Files without directives return
// an empty occurrence list.
func Parse(path string, content []byte) (*File, error) {
	f := &File{Path: path, content: content, newline: detectNewline(content)}
	lines := splitLines(content)
	for i := 0; i < len(lines); i++ {
		m := markerPattern.FindStringSubmatch(lines[i].text)
		if m == nil {
			continue
		}
		target := strings.TrimSpace(m[2])
		if target == "" {
			return nil, fmt.Errorf("%s:%d: docref directive has no target", path, i+1)
		}
		occ := &Occurrence{
			Target:     target,
			Line:       i + 1,
			indent:     m[1],
			start:      lines[i].start,
			end:        lines[i].end,
			terminated: lines[i].terminated,
		}

		// Option block: deeper-indented field lines directly below the
		// marker, ended by a blank line or anything else.
		j := i + 1
		for j < len(lines) {
			text := lines[j].text
			if isBlank(text) || len(leadingWhitespace(text)) <= len(occ.indent) {
				break
			}
			om := optionPattern.FindStringSubmatch(strings.TrimSpace(text))
			if om == nil {
				break
			}
			value := strings.TrimSpace(om[2])
			switch om[1] {
			case optionHash:
				occ.Hash = value
			case optionModel:
				occ.Model = value
			default:
				occ.Extra = append(occ.Extra, strings.TrimSpace(text))
			}
			occ.end = lines[j].end
			occ.terminated = lines[j].terminated
			j++
		}

		// Body: deeper-indented lines after the option block. Trailing blank
		// lines belong to the surrounding document, not the directive.
		firstContent, lastContent := -1, -1
		for j < len(lines) {
			text := lines[j].text
			if isBlank(text) {
				j++
				continue
			}
			if len(leadingWhitespace(text)) <= len(occ.indent) {
				break
			}
			if firstContent == -1 {
				firstContent = j
			}
			lastContent = j
			j++
		}
		if firstContent >= 0 {
			occ.end = lines[lastContent].end
			occ.terminated = lines[lastContent].terminated
			occ.Body = extractBody(lines[firstContent : lastContent+1])
		}

		f.Occurrences = append(f.Occurrences, occ)
		i = j - 1
	}
	return f, nil
}

// extractBody dedents directive content. The first content line sets the
// prefix; deeper lines keep their relative indentation.
func extractBody(lines []line) string {
	prefix := ""
	for _, ln := range lines {
		if !isBlank(ln.text) {
			prefix = leadingWhitespace(ln.text)
			break
		}
	}
	parts := make([]string, 0, len(lines))
	for _, ln := range lines {
		if isBlank(ln.text) {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, strings.TrimPrefix(ln.text, prefix))
	}
	return strings.Join(parts, "\n")
}

type line struct {
	text       string // without terminator
	start, end int    // byte span including the terminator
	terminated bool
}

func splitLines(content []byte) []line {
	var lines []line
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] != '\n' {
			continue
		}
		text := strings.TrimSuffix(string(content[start:i]), "\r")
		lines = append(lines, line{text: text, start: start, end: i + 1, terminated: true})
		start = i + 1
	}
	if start < len(content) {
		lines = append(lines, line{text: string(content[start:]), start: start, end: len(content)})
	}
	return lines
}

func detectNewline(content []byte) string {
	if bytes.Contains(content, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
