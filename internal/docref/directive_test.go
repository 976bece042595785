package docref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSplice(t *testing.T, f *File) string {
	t.Helper()
	out, err := f.Splice()
	require.NoError(t, err)
	return string(out)
}

func TestParseFindsOccurrenceWithAttributes(t *testing.T) {
	content := []byte(`Intro paragraph.

.. docref:: fruit/apples
   :hash: 0123456789abcdef0123456789abcdef
   :model: llama3.2:3b

   Apples are covered in depth, from orchard to cider press.

Next section.
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	occ := f.Occurrences[0]
	assert.Equal(t, "fruit/apples", occ.Target)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", occ.Hash)
	assert.Equal(t, "llama3.2:3b", occ.Model)
	assert.Equal(t, "Apples are covered in depth, from orchard to cider press.", occ.Body)
	assert.Equal(t, 3, occ.Line)
	assert.True(t, occ.Stored())
}

func TestParseBareDirective(t *testing.T) {
	f, err := Parse("guide.md", []byte(".. docref:: apples\n"))
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	occ := f.Occurrences[0]
	assert.Equal(t, "apples", occ.Target)
	assert.Empty(t, occ.Hash)
	assert.Empty(t, occ.Model)
	assert.Empty(t, occ.Body)
	assert.False(t, occ.Stored())
}

func TestParseRejectsMissingTarget(t *testing.T) {
	_, err := Parse("guide.md", []byte(".. docref::\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guide.md:1")
}

func TestParseKeepsUnknownOptions(t *testing.T) {
	content := []byte(`.. docref:: apples
   :hash: 0123456789abcdef0123456789abcdef
   :class: wide
   :model: llama3.2:3b

   Summary.
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)
	assert.Equal(t, []string{":class: wide"}, f.Occurrences[0].Extra)
}

func TestCanonicalFormRoundTrips(t *testing.T) {
	content := []byte(`Before.

.. docref:: apples
   :hash: 0123456789abcdef0123456789abcdef
   :model: llama3.2:3b

   First paragraph of the summary.

   Second paragraph after a blank line.

After.
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	// Re-rendering the parsed values must reproduce the input exactly.
	occ := f.Occurrences[0]
	occ.SetGenerated(occ.Hash, occ.Model, occ.Body)
	assert.Equal(t, string(content), mustSplice(t, f))
}

func TestSpliceRewritesOnlyDirtyOccurrence(t *testing.T) {
	content := []byte(`.. docref:: apples
   :hash: aaaa
   :model: m

   Old apples text.

Middle prose stays put.

.. docref:: pears
   :hash: bbbb
   :model: m

   Pears text, user polished.
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 2)

	f.Occurrences[0].SetGenerated("cccc", "m", "New apples text.")
	out := mustSplice(t, f)

	assert.Contains(t, out, ":hash: cccc")
	assert.Contains(t, out, "New apples text.")
	assert.Contains(t, out, "Middle prose stays put.")
	assert.Contains(t, out, "Pears text, user polished.")
	assert.NotContains(t, out, "Old apples text.")
	assert.Contains(t, out, ":hash: bbbb")
}

func TestParseIndentedDirective(t *testing.T) {
	content := []byte(`.. note::

   .. docref:: apples
      :hash: aaaa
      :model: m

      Indented summary line.

Trailing prose.
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	occ := f.Occurrences[0]
	assert.Equal(t, "apples", occ.Target)
	assert.Equal(t, "Indented summary line.", occ.Body)

	occ.SetGenerated("bbbb", "m", "Replaced.")
	out := mustSplice(t, f)
	assert.Contains(t, out, "   .. docref:: apples\n      :hash: bbbb")
	assert.Contains(t, out, "      Replaced.")
	assert.Contains(t, out, "Trailing prose.")
}

func TestParseDirectiveAtEOFWithoutNewline(t *testing.T) {
	content := []byte(".. docref:: apples\n   :hash: aaaa\n   :model: m\n\n   Text")
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	f.Occurrences[0].SetGenerated("aaaa", "m", "Text")
	assert.Equal(t, string(content), mustSplice(t, f))
}

func TestParseCRLFContent(t *testing.T) {
	content := []byte(".. docref:: apples\r\n   :hash: aaaa\r\n   :model: m\r\n\r\n   Body line.\r\n")
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)
	assert.Equal(t, "Body line.", f.Occurrences[0].Body)

	f.Occurrences[0].SetGenerated("aaaa", "m", "Body line.")
	assert.Equal(t, string(content), mustSplice(t, f))
}

func TestBootstrapGainsCanonicalShape(t *testing.T) {
	content := []byte("Intro.\n\n.. docref:: apples\n\nOutro.\n")
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)

	f.Occurrences[0].SetGenerated("0123456789abcdef0123456789abcdef", "llama3.2:3b", "Fresh summary.")
	out := mustSplice(t, f)
	want := "Intro.\n\n.. docref:: apples\n   :hash: 0123456789abcdef0123456789abcdef\n   :model: llama3.2:3b\n\n   Fresh summary.\n\nOutro.\n"
	assert.Equal(t, want, out)

	// A second parse of the spliced output must see the same values.
	f2, err := Parse("guide.md", []byte(out))
	require.NoError(t, err)
	require.Len(t, f2.Occurrences, 1)
	assert.Equal(t, "Fresh summary.", f2.Occurrences[0].Body)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", f2.Occurrences[0].Hash)
}

func TestParseMultilineBodyKeepsRelativeIndent(t *testing.T) {
	content := []byte(`.. docref:: apples
   :hash: aaaa
   :model: m

   A list follows:

   - first
     continued
   - second
`)
	f, err := Parse("guide.md", content)
	require.NoError(t, err)
	require.Len(t, f.Occurrences, 1)
	assert.Equal(t, "A list follows:\n\n- first\n  continued\n- second", f.Occurrences[0].Body)

	f.Occurrences[0].SetGenerated("aaaa", "m", f.Occurrences[0].Body)
	assert.Equal(t, string(content), mustSplice(t, f))
}
