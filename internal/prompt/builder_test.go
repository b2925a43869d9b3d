package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Improve(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	tests := []struct {
		name     string
		code     string
		language string
		mods     Modifiers
		wantSubs []string
		notWant  []string
	}{
		{
			name:     "custom language",
			code:     "def f(): pass",
			language: "Python",
			wantSubs: []string{"inline Python comments", "\ndef f(): pass"},
			notWant:  []string{"annotate the code"},
		},
		{
			name:     "default language",
			code:     "let x = 1",
			wantSubs: []string{"inline " + DefaultLanguage + " comments"},
		},
		{
			name:     "concise comment clause goes before payload",
			code:     "PAYLOAD",
			language: "Go",
			mods:     Modifiers{CommentCode: true},
			wantSubs: []string{"problematic lines of code" + ConciseCommentClause + ". \nPAYLOAD"},
		},
		{
			name:     "verbose comment clause",
			code:     "PAYLOAD",
			language: "Go",
			mods:     Modifiers{CommentCode: true, Verbose: true},
			wantSubs: []string{VerboseCommentClause},
		},
		{
			name:     "code only is not applied to improve",
			code:     "PAYLOAD",
			language: "Go",
			mods:     Modifiers{CodeOnly: true},
			notWant:  []string{CodeOnlyClause},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Improve(tt.code, tt.language, tt.mods)
			require.NoError(t, err)
			for _, sub := range tt.wantSubs {
				assert.Contains(t, got, sub)
			}
			for _, sub := range tt.notWant {
				assert.NotContains(t, got, sub)
			}
			assert.True(t, strings.HasSuffix(got, tt.code), "payload must come last")
		})
	}
}

func TestBuilder_Improve_EmptyPayload(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	got, err := b.Improve("", "Go", Modifiers{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Read over the following code"))
	assert.True(t, strings.HasSuffix(got, ". \n"))
}

func TestNewBuilder_CustomTemplate(t *testing.T) {
	b, err := NewBuilder("Review this {{.Language}} code{{.Annotation}}:\n{{.Code}}")
	require.NoError(t, err)

	got, err := b.Improve("x := 1", "Go", Modifiers{CommentCode: true})
	require.NoError(t, err)
	assert.Equal(t, "Review this Go code"+ConciseCommentClause+":\nx := 1", got)
}

func TestNewBuilder_InvalidTemplate(t *testing.T) {
	_, err := NewBuilder("{{.Code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse improve template")
}

func TestBuilder_Improve_UnknownField(t *testing.T) {
	b, err := NewBuilder("{{.Missing}}")
	require.NoError(t, err)

	_, err = b.Improve("x", "Go", Modifiers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render improve prompt")
}
