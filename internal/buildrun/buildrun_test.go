package buildrun

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH; skipping subprocess test")
	}
}

func TestCommandRunner_CapturesOutputToLogFile(t *testing.T) {
	requireShell(t)
	logDir := t.TempDir()

	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), Spec{
		Name:   "primary",
		Argv:   []string{"sh", "-c", "echo captured output"},
		LogDir: logDir,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, filepath.Join(logDir, "primary-build.log"), result.LogPath)

	content, err := os.ReadFile(result.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "captured output")
}

func TestCommandRunner_FailureReportsExitCodeAndKeepsLog(t *testing.T) {
	requireShell(t)
	logDir := t.TempDir()

	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), Spec{
		Name:   "markdown",
		Argv:   []string{"sh", "-c", "echo broken >&2; exit 3"},
		LogDir: logDir,
	})
	require.Error(t, err)
	require.NotNil(t, result)

	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.Contains(t, err.Error(), "markdown")
	assert.Equal(t, 3, result.ExitCode)

	// Stderr lands in the same log file as stdout.
	content, err := os.ReadFile(result.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "broken")
}

func TestCommandRunner_MissingBinary(t *testing.T) {
	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), Spec{
		Name:   "primary",
		Argv:   []string{"llmdocs-no-such-binary-for-tests"},
		LogDir: t.TempDir(),
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}

func TestCommandRunner_EmptyArgv(t *testing.T) {
	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), Spec{Name: "primary", LogDir: t.TempDir()})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestCommandRunner_CanceledContext(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewCommandRunner()
	_, err := runner.Run(ctx, Spec{
		Name:   "primary",
		Argv:   []string{"sh", "-c", "sleep 30"},
		LogDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExecutionFailed)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want []string
	}{
		{
			name: "substitutes all placeholders",
			argv: []string{"sphinx-build", "-b", "html", "{source}", "{output}"},
			want: []string{"sphinx-build", "-b", "html", "/docs", "/site"},
		},
		{
			name: "staging placeholder",
			argv: []string{"make", "markdown", "BUILDDIR={staging}"},
			want: []string{"make", "markdown", "BUILDDIR=/site/.llmdocs-staging"},
		},
		{
			name: "multiple placeholders in one argument",
			argv: []string{"sh", "-c", "cp -r {source} {output}"},
			want: []string{"sh", "-c", "cp -r /docs /site"},
		},
		{
			name: "no placeholders left untouched",
			argv: []string{"true"},
			want: []string{"true"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.argv, "/docs", "/site", "/site/.llmdocs-staging")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_DoesNotMutateTemplate(t *testing.T) {
	template := []string{"build", "{source}"}
	_ = Expand(template, "/docs", "/site", "/staging")
	assert.Equal(t, []string{"build", "{source}"}, template)
}

func TestNoopRunner(t *testing.T) {
	result, err := NoopRunner{}.Run(context.Background(), Spec{Name: "primary"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.ExitCode)
	assert.Empty(t, result.LogPath)
}

func TestReadExcerpt_TailBounded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")
	head := strings.Repeat("a", excerptLimit)
	require.NoError(t, os.WriteFile(path, []byte(head+"tail-marker"), 0644))

	excerpt := readExcerpt(path)
	assert.LessOrEqual(t, len(excerpt), excerptLimit)
	assert.True(t, strings.HasSuffix(excerpt, "tail-marker"))
}
