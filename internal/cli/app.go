// Package cli implements the command-line interface for supallama.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/supallama/supallama/internal/config"
	"github.com/supallama/supallama/internal/debug"
	"github.com/supallama/supallama/internal/firectl"
	"github.com/supallama/supallama/internal/llm"
	"github.com/supallama/supallama/internal/llm/fireworks"
	"github.com/supallama/supallama/internal/process"
	"github.com/supallama/supallama/internal/timing"
)

// App holds everything a command needs. It is built once per process and
// passed to every handler.
type App struct {
	Config *config.Config

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	IsTTY       bool // stdout is a terminal
	StderrIsTTY bool
	TermWidth   int

	// NewCompleter builds the inference client from the resolved config.
	NewCompleter func(cfg *config.Config) (llm.Completer, error)
	// Runner executes firectl invocations. Nil means a process.Invoker
	// bounded by the configured firectl timeout.
	Runner firectl.Runner

	Version VersionInfo

	opts globalOptions
}

// globalOptions are the values of the persistent flags.
type globalOptions struct {
	firectlPath      string
	firectlTimeout   time.Duration
	inferenceTimeout time.Duration
	json             bool
	render           bool
}

// Execute loads configuration, runs the command named by os.Args and
// reports any error on stderr. The returned error maps to an exit status
// through ExitCode.
func Execute(v VersionInfo) error {
	// Existing environment variables win over .env entries.
	_ = godotenv.Load()
	timing.Log("env loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stderrTTY := term.IsTerminal(int(os.Stderr.Fd()))

	cfg, err := config.Load()
	if err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		printError(os.Stderr, err, stderrTTY)
		return err
	}
	timing.Log("config loaded")

	app := &App{
		Config:       cfg,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		IsTTY:        term.IsTerminal(int(os.Stdout.Fd())),
		StderrIsTTY:  stderrTTY,
		NewCompleter: NewFireworksCompleter,
		Version:      v,
	}
	if app.IsTTY {
		app.TermWidth, _, _ = term.GetSize(int(os.Stdout.Fd()))
	}

	return app.Run(ctx, os.Args[1:])
}

// Run executes a single command line against the app.
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		var usageErr *UsageError
		if errors.As(err, &usageErr) && usageErr.Usage == "" && cmd != nil {
			usageErr.Usage = cmd.UsageString()
		}
		a.reportError(err)
	}
	return err
}

func (a *App) reportError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		// the external output was already printed verbatim
		return
	}
	printError(a.Stderr, err, a.StderrIsTTY)
	var usageErr *UsageError
	if errors.As(err, &usageErr) && usageErr.Usage != "" {
		_, _ = fmt.Fprintln(a.Stderr)
		_, _ = io.WriteString(a.Stderr, usageErr.Usage)
	}
}

// NewFireworksCompleter builds the Fireworks client from cfg.
func NewFireworksCompleter(cfg *config.Config) (llm.Completer, error) {
	return fireworks.New(fireworks.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.Inference.BaseURL,
		Timeout:   cfg.InferenceTimeout(),
		MaxTokens: cfg.Inference.MaxTokens,
	})
}

func (a *App) completer() (llm.Completer, error) {
	newCompleter := a.NewCompleter
	if newCompleter == nil {
		newCompleter = NewFireworksCompleter
	}
	return newCompleter(a.Config)
}

func (a *App) jobClient() *firectl.Client {
	runner := a.Runner
	if runner == nil {
		runner = &process.Invoker{Timeout: a.Config.FirectlTimeout()}
	}
	return firectl.NewClient(firectl.Config{
		Binary: a.Config.Firectl.Path,
		APIKey: a.Config.APIKey,
	}, runner)
}

// ask sends text as a single user message and returns the completion.
func (a *App) ask(ctx context.Context, model, text string) (string, error) {
	c, err := a.completer()
	if err != nil {
		return "", err
	}
	debug.Log("requesting completion", "model", model, "prompt_bytes", len(text))
	return c.Complete(ctx, model, []llm.Message{llm.UserMessage(text)})
}
