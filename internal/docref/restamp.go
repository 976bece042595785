package docref

import (
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// restampFingerprint recomputes the mdfp frontmatter fingerprint after a
// rewrite, so sources managed under fingerprint verification keep verifying.
// A file is never given a fingerprint it did not already carry. On error the
// caller keeps the un-stamped content; a stale fingerprint is a lint finding,
// not a data-loss risk.
func restampFingerprint(content []byte) ([]byte, error) {
	if !hasFingerprintField(content) {
		return content, nil
	}
	updated, err := mdfp.ProcessContent(string(content))
	if err != nil {
		return content, err
	}
	return []byte(updated), nil
}

// hasFingerprintField reports whether the leading YAML frontmatter block
// declares the mdfp fingerprint field.
func hasFingerprintField(content []byte) bool {
	s := string(content)
	if !strings.HasPrefix(s, "---\n") {
		return false
	}
	end := strings.Index(s[4:], "\n---\n")
	if end == -1 {
		return false
	}
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(s[4:end+4]), &fields); err != nil {
		return false
	}
	_, ok := fields[mdfp.FingerprintField]
	return ok
}
