package htmlmeta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle_FromTitleElement(t *testing.T) {
	page := `<html><head><title>Installation</title></head><body><h1>Other</h1></body></html>`

	title, ok := Title(strings.NewReader(page))
	require.True(t, ok)
	assert.Equal(t, "Installation", title)
}

func TestTitle_StripsBuilderSuffix(t *testing.T) {
	page := "<html><head><title>Apples — sphinx-llm documentation</title></head></html>"

	title, ok := Title(strings.NewReader(page))
	require.True(t, ok)
	assert.Equal(t, "Apples", title)
}

func TestTitle_FallsBackToH1(t *testing.T) {
	page := `<html><body><h1>Reference Guide<a class="headerlink" href="#x">¶</a></h1></body></html>`

	title, ok := Title(strings.NewReader(page))
	require.True(t, ok)
	assert.Equal(t, "Reference Guide", title)
}

func TestTitle_NoneFound(t *testing.T) {
	_, ok := Title(strings.NewReader(`<html><body><p>nothing here</p></body></html>`))
	assert.False(t, ok)
}

func TestTitleFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><head><title>From Disk</title></head></html>`), 0o644))

	title, ok := TitleFromFile(path)
	require.True(t, ok)
	assert.Equal(t, "From Disk", title)

	_, ok = TitleFromFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.False(t, ok)
}

func TestDescription_FromMetaTag(t *testing.T) {
	page := `<html><head><meta charset="utf-8"><meta name="description" content="How apples are grown."></head></html>`

	desc, ok := Description(strings.NewReader(page))
	require.True(t, ok)
	assert.Equal(t, "How apples are grown.", desc)
}

func TestDescription_NoneFound(t *testing.T) {
	page := `<html><head><meta charset="utf-8"></head><body><p>text</p></body></html>`

	_, ok := Description(strings.NewReader(page))
	assert.False(t, ok)
}

func TestDescriptionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<head><meta name="description" content="Stored."></head>`), 0o644))

	desc, ok := DescriptionFromFile(path)
	require.True(t, ok)
	assert.Equal(t, "Stored.", desc)

	_, ok = DescriptionFromFile(filepath.Join(t.TempDir(), "missing.html"))
	assert.False(t, ok)
}
