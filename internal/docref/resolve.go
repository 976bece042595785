package docref

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps directive targets to files under the source tree. Targets
// use forward slashes and normally omit the suffix; the configured suffix
// list is tried in order.
type Resolver struct {
	root     string
	suffixes []string
}

func NewResolver(root string, suffixes []string) *Resolver {
	return &Resolver{root: root, suffixes: suffixes}
}

// Resolve returns the path of the target document, or ok=false when the
// reference is broken. Absolute targets and targets escaping the source tree
// never resolve.
func (r *Resolver) Resolve(target string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "/") {
		return "", false
	}
	rel := filepath.FromSlash(target)
	if !filepath.IsLocal(rel) {
		return "", false
	}
	candidates := make([]string, 0, len(r.suffixes)+1)
	for _, suffix := range r.suffixes {
		candidates = append(candidates, filepath.Join(r.root, rel+suffix))
	}
	// A target spelled with its suffix resolves as-is.
	candidates = append(candidates, filepath.Join(r.root, rel))
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}
