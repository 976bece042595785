package docref

import (
	"os"

	"git.home.luguber.info/inful/llmdocs/internal/splice"
)

// Splice returns the file content with every dirty occurrence replaced by
// its canonical rendering. All other bytes are preserved exactly. An error
// means the parsed occurrence offsets no longer describe the content, which
// only happens on a parser defect.
func (f *File) Splice() ([]byte, error) {
	var spans []splice.Span
	for _, occ := range f.Occurrences {
		if !occ.dirty {
			continue
		}
		spans = append(spans, splice.Span{
			Start:       occ.start,
			End:         occ.end,
			Replacement: occ.render(f.newline),
		})
	}
	return splice.Apply(f.content, spans)
}

// writeFileAtomic writes data next to path and renames it into place, so a
// crash mid-write never leaves a half-written source file. The original file
// mode is preserved.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
