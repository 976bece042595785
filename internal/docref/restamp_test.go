package docref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFingerprintField(t *testing.T) {
	withField := []byte("---\ntitle: Guide\nfingerprint: abc123\n---\n\nBody.\n")
	assert.True(t, hasFingerprintField(withField))

	withoutField := []byte("---\ntitle: Guide\n---\n\nBody.\n")
	assert.False(t, hasFingerprintField(withoutField))

	noFrontmatter := []byte("# Guide\n\nBody.\n")
	assert.False(t, hasFingerprintField(noFrontmatter))

	unterminated := []byte("---\ntitle: Guide\n")
	assert.False(t, hasFingerprintField(unterminated))
}

func TestRestampLeavesUnmanagedFilesAlone(t *testing.T) {
	content := []byte("---\ntitle: Guide\n---\n\nBody.\n")
	out, err := restampFingerprint(content)
	require.NoError(t, err)
	assert.Equal(t, content, out)

	plain := []byte("# Guide\n\nBody.\n")
	out, err = restampFingerprint(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}
