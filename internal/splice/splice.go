// Package splice applies non-overlapping byte-range replacements to
// documentation sources. Every byte outside the replaced spans is preserved
// exactly, so rewrites stay minimal-diff: no re-rendering, no reformatting.
package splice

import (
	"errors"
	"fmt"
	"sort"
)

// Span is one byte-range replacement. Start and End are offsets into the
// original source, End exclusive.
type Span struct {
	Start       int
	End         int
	Replacement []byte
}

// Apply replaces every span in source and returns the result. Spans must be
// in bounds and non-overlapping; they may be given in any order. The input
// slice is not modified.
func Apply(source []byte, spans []Span) ([]byte, error) {
	if len(spans) == 0 {
		return source, nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, s := range sorted {
		if s.Start < 0 || s.End < s.Start {
			return nil, fmt.Errorf("invalid span %d: [%d,%d)", i, s.Start, s.End)
		}
		if s.End > len(source) {
			return nil, fmt.Errorf("invalid span %d: end %d past %d bytes", i, s.End, len(source))
		}
		// sorted by Start descending, so the current span must end at or
		// before the previous span's start
		if i > 0 && s.End > sorted[i-1].Start {
			return nil, errors.New("overlapping spans")
		}
	}

	// back to front so earlier spans keep their offsets
	out := append([]byte(nil), source...)
	for _, s := range sorted {
		buf := make([]byte, 0, len(out)-(s.End-s.Start)+len(s.Replacement))
		buf = append(buf, out[:s.Start]...)
		buf = append(buf, s.Replacement...)
		buf = append(buf, out[s.End:]...)
		out = buf
	}
	return out, nil
}
