package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrompts_Embedded(t *testing.T) {
	prompts, err := LoadPrompts("", "")
	require.NoError(t, err)
	require.NotNil(t, prompts)

	// The embedded file only documents the template variables.
	assert.Empty(t, prompts.Improve, "built-in template applies when no override exists")
}

func TestLoadPrompts_GlobalOverride(t *testing.T) {
	globalDir := t.TempDir()
	promptsDir := filepath.Join(globalDir, "prompts")
	require.NoError(t, os.MkdirAll(promptsDir, 0o755))

	custom := "# my template\nReview this {{.Language}} code:\n{{.Code}}"
	require.NoError(t, os.WriteFile(filepath.Join(promptsDir, "improve.md"), []byte(custom), 0o644))

	prompts, err := LoadPrompts(globalDir, "")
	require.NoError(t, err)
	assert.Equal(t, "Review this {{.Language}} code:\n{{.Code}}", prompts.Improve)
}

func TestLoadPrompts_LocalOverridesGlobal(t *testing.T) {
	globalDir := t.TempDir()
	localDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(globalDir, "prompts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(localDir, "prompts"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "prompts", "improve.md"), []byte("Global {{.Code}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "prompts", "improve.md"), []byte("Local {{.Code}}"), 0o644))

	prompts, err := LoadPrompts(globalDir, localDir)
	require.NoError(t, err)
	assert.Equal(t, "Local {{.Code}}", prompts.Improve)
}

func TestLoadPrompts_CommentOnlyLocalFallsThrough(t *testing.T) {
	globalDir := t.TempDir()
	localDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(globalDir, "prompts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(localDir, "prompts"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "prompts", "improve.md"), []byte("Global {{.Code}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "prompts", "improve.md"), []byte("# nothing here\n"), 0o644))

	prompts, err := LoadPrompts(globalDir, localDir)
	require.NoError(t, err)
	assert.Equal(t, "Global {{.Code}}", prompts.Improve)
}

func TestLoadPrompts_NonexistentGlobalFallsToEmbedded(t *testing.T) {
	prompts, err := LoadPrompts("/nonexistent/global/dir", "")
	require.NoError(t, err)
	require.NotNil(t, prompts)
	assert.Empty(t, prompts.Improve)
}

func TestLoadPrompts_LocalPermissionErrorFallsBack(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files regardless of mode")
	}
	localDir := t.TempDir()
	promptsDir := filepath.Join(localDir, "prompts")
	require.NoError(t, os.MkdirAll(promptsDir, 0o755))

	unreadable := filepath.Join(promptsDir, "improve.md")
	require.NoError(t, os.WriteFile(unreadable, []byte("custom"), 0o644))
	require.NoError(t, os.Chmod(unreadable, 0o000))
	t.Cleanup(func() { _ = os.Chmod(unreadable, 0o644) })

	prompts, err := LoadPrompts("", localDir)
	require.NoError(t, err)
	assert.Empty(t, prompts.Improve, "should fall back to embedded prompt")
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single comment line",
			input:    "# comment\ncontent",
			expected: "content",
		},
		{
			name:     "comment with indentation",
			input:    "  # indented comment\ncontent",
			expected: "content",
		},
		{
			name:     "multiple comments",
			input:    "# first\n# second\ncontent",
			expected: "content",
		},
		{
			name:     "no comments",
			input:    "line1\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "crlf line endings",
			input:    "# comment\r\ncontent",
			expected: "content",
		},
		{
			name:     "hash in middle of line preserved",
			input:    "content # not a comment",
			expected: "content # not a comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripComments(tt.input))
		})
	}
}
