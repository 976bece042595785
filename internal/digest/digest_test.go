package digest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute_Deterministic(t *testing.T) {
	a := Compute([]byte("# Apples\n\nSome content.\n"))
	b := Compute([]byte("# Apples\n\nSome content.\n"))
	require.Equal(t, a, b)
	require.Len(t, a, Length)
}

func TestCompute_DiffersOnContentChange(t *testing.T) {
	a := Compute([]byte("version one"))
	b := Compute([]byte("version two"))
	require.NotEqual(t, a, b)
}

func TestCompute_EmptyInput(t *testing.T) {
	d := Compute(nil)
	require.Len(t, d, Length)
	require.True(t, IsValid(d))
}

func TestIsValid(t *testing.T) {
	require.True(t, IsValid(Compute([]byte("x"))))
	require.False(t, IsValid(""))
	require.False(t, IsValid("short"))
	require.False(t, IsValid("ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ"))
	// Uppercase hex is not the stored form.
	require.False(t, IsValid("ABCDEF0123456789ABCDEF0123456789"))
}
