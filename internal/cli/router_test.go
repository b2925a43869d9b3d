package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supallama/supallama/internal/llm"
)

func TestCommandTable(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range commandTable() {
		assert.False(t, names[c.Name], "duplicate command %s", c.Name)
		names[c.Name] = true
		assert.NotEmpty(t, c.Short, c.Name)
		assert.NotNil(t, c.Run, c.Name)
		for _, p := range c.Params {
			assert.NotEmpty(t, p.Help, "%s %s", c.Name, p.Name)
			if p.Required {
				assert.Empty(t, p.Default, "required param %s has a default", p.Name)
			}
		}
	}

	for _, want := range []string{
		"llama_chat", "llama_code", "llama_code_improve",
		"mixtral_chat", "mixtral_code",
		"fine_tune", "fine_tune_status", "deploy_model", "get_model",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestResolveArgs(t *testing.T) {
	params := []param{
		{Name: "id", Required: true, Help: "id"},
		{Name: "name", Default: "anon", Help: "name"},
	}

	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr string
	}{
		{name: "defaults filled", args: []string{"x"}, want: map[string]string{"id": "x", "name": "anon"}},
		{name: "all given", args: []string{"x", "bob"}, want: map[string]string{"id": "x", "name": "bob"}},
		{name: "explicit empty kept", args: []string{"x", ""}, want: map[string]string{"id": "x", "name": ""}},
		{name: "missing required", args: nil, wantErr: "missing required argument <id>"},
		{name: "too many", args: []string{"a", "b", "c"}, wantErr: "accepts at most 2 arg(s), received 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveArgs(params, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				var usageErr *UsageError
				require.True(t, errors.As(err, &usageErr))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveArgs_ValidateRuns(t *testing.T) {
	params := []param{{Name: "id", Required: true, Help: "id", Validate: valueValidator("job id")}}

	_, err := resolveArgs(params, []string{"-rf"})
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, err.Error(), "must not start with '-'")
}

func TestUseLine(t *testing.T) {
	assert.Equal(t, "fine_tune_status <job-id>", useLine(command{
		Name:   "fine_tune_status",
		Params: []param{{Name: "job-id", Required: true}},
	}))
	assert.Equal(t, "llama_chat [content]", useLine(command{
		Name:   "llama_chat",
		Params: []param{{Name: "content"}},
	}))
}

func TestLongHelpListsArguments(t *testing.T) {
	help := longHelp(command{
		Short:  "Chat",
		Params: []param{{Name: "content", Default: "Tell me a joke", Help: "Content to say"}},
	})
	assert.Contains(t, help, "Arguments:")
	assert.Contains(t, help, `Content to say (default "Tell me a joke")`)
}

func TestRun_HyphenatedAlias(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "llama-chat", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, h.completer.prompts)
}

func TestRun_NoArgsPrintsHelp(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t))
	assert.Contains(t, h.stdout.String(), "Usage:")
	assert.Contains(t, h.stdout.String(), "fine_tune_status")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{name: "unknown command", args: []string{"bogus"}, wantStderr: `unknown command "bogus"`},
		{name: "unknown flag", args: []string{"llama_chat", "--nope"}, wantStderr: "unknown flag: --nope"},
		{name: "too many args", args: []string{"llama_chat", "a", "b"}, wantStderr: "accepts at most 1 arg(s)"},
		{name: "missing required", args: []string{"deploy_model"}, wantStderr: "missing required argument <model-id>"},
		{name: "negative timeout", args: []string{"--firectl-timeout", "-1s", "get_model", "m"}, wantStderr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			err := h.run(t, tt.args...)
			requireExitCode(t, 2, err)
			assert.Contains(t, h.stderr.String(), "Error: ")
			assert.Contains(t, h.stderr.String(), tt.wantStderr)
			assert.Zero(t, h.completerBuilt, "no inference client may be built")
			assert.Empty(t, h.runner.Calls, "no process may be spawned")
		})
	}
}

func TestRun_UsageErrorIncludesCommandUsage(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "fine_tune_status")
	requireExitCode(t, 2, err)
	assert.Contains(t, h.stderr.String(), "Usage:")
	assert.Contains(t, h.stderr.String(), "fine_tune_status <job-id>")
}

func TestRun_MissingAPIKey(t *testing.T) {
	for _, args := range [][]string{
		{"llama_chat"},
		{"mixtral_code", "--code-only"},
		{"llama_code_improve"},
	} {
		t.Run(args[0], func(t *testing.T) {
			h := newHarness(t)
			h.app.Config.APIKey = ""

			err := h.run(t, args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, llm.ErrAuth)
			assert.Equal(t, 1, ExitCode(err))
			assert.Zero(t, h.completerBuilt)
			assert.Contains(t, h.stderr.String(), "FIREWORKS_AI_KEY is not set")
		})
	}
}

func TestRun_JobCommandsDoNotNeedAPIKey(t *testing.T) {
	h := newHarness(t)
	h.app.Config.APIKey = ""

	require.NoError(t, h.run(t, "get_model", "m-1"))
	require.Len(t, h.runner.Calls, 1)
	assert.Nil(t, h.runner.Calls[0].Env(), "environment is inherited unchanged without a key")
}

func TestRun_GlobalFirectlFlag(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "--firectl", "/opt/bin/firectl", "get_model", "m-1", "--dry-run"))
	assert.Equal(t, "/opt/bin/firectl get model m-1\n", h.stdout.String())
	assert.Equal(t, "/opt/bin/firectl", h.app.Config.Firectl.Path)
	assert.Contains(t, h.app.Config.Sources(), "cli:firectl")
}

func TestRun_InferenceTimeoutFlag(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "llama_chat", "--inference-timeout", "45s"))
	assert.Equal(t, 45, h.app.Config.Inference.Timeout)
}

func TestRun_InvalidConfig(t *testing.T) {
	h := newHarness(t)
	h.app.Config.Inference.BaseURL = "not a url"

	err := h.run(t, "llama_chat")
	requireExitCode(t, 1, err)
	assert.Contains(t, h.stderr.String(), "invalid config")
	assert.Zero(t, h.completerBuilt)
}

func TestRun_ConfigShow(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "config", "show"))
	out := h.stdout.String()
	assert.Contains(t, out, "# Supallama Configuration")
	assert.Contains(t, out, "llama:   llama-model")
	assert.Contains(t, out, "api_key:    (set)")
	assert.Contains(t, out, "timeout:       (none)")
	assert.NotContains(t, out, "fw-test")
}

func TestRun_Version(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "version"))
	assert.Equal(t, "supallama 1.2.3 (abc1234, 2026-01-15)\n", h.stdout.String())

	h = newHarness(t)
	require.NoError(t, h.run(t, "--version"))
	assert.Contains(t, h.stdout.String(), "1.2.3 (abc1234, 2026-01-15)")
}

func TestVersionInfo_Defaults(t *testing.T) {
	assert.Equal(t, "dev (unknown, unknown)", VersionInfo{}.String())
}
