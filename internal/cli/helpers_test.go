package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supallama/supallama/internal/config"
	"github.com/supallama/supallama/internal/firectl"
	"github.com/supallama/supallama/internal/llm"
)

// fakeCompleter records every request and returns a canned answer.
type fakeCompleter struct {
	content string
	err     error

	models  []string
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, model string, messages []llm.Message) (string, error) {
	f.models = append(f.models, model)
	for _, m := range messages {
		f.prompts = append(f.prompts, m.Content)
	}
	return f.content, f.err
}

type harness struct {
	app       *App
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	completer *fakeCompleter
	runner    *firectl.MockRunner

	completerBuilt int
}

func testConfig() *config.Config {
	return &config.Config{
		Inference: config.InferenceConfig{BaseURL: "https://api.fireworks.ai/inference/v1", Timeout: 300},
		Models:    config.ModelsConfig{Llama: "llama-model", Mixtral: "mixtral-model"},
		Firectl:   config.FirectlConfig{Path: "firectl", SettingsFile: "test_settings.yaml"},
		Improve:   config.ImproveConfig{Language: "Go"},
		APIKey:    "fw-test",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		completer: &fakeCompleter{content: "ha"},
		runner:    firectl.NewMockRunner(),
	}
	h.app = &App{
		Config: testConfig(),
		Stdin:  strings.NewReader(""),
		Stdout: h.stdout,
		Stderr: h.stderr,
		NewCompleter: func(*config.Config) (llm.Completer, error) {
			h.completerBuilt++
			return h.completer, nil
		},
		Runner:  h.runner,
		Version: VersionInfo{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-15"},
	}
	return h
}

func (h *harness) withStdin(r io.Reader) *harness {
	h.app.Stdin = r
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	return h.app.Run(context.Background(), args)
}

func requireExitCode(t *testing.T, want int, err error) {
	t.Helper()
	require.Equal(t, want, ExitCode(err), "error: %v", err)
}
