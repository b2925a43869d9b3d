package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supallama/supallama/internal/config"
	"github.com/supallama/supallama/internal/debug"
	"github.com/supallama/supallama/internal/llm"
	"github.com/supallama/supallama/internal/timing"
)

// newRootCommand builds a fresh command tree bound to a.
func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "supallama",
		Short: "Chat with Fireworks-hosted models and manage fine-tuning jobs",
		Long: `Supallama sends prompts to models hosted on Fireworks AI and drives the
firectl binary to create fine-tuning jobs, check their status and deploy
the resulting models.

The inference credential is read from FIREWORKS_AI_KEY (a .env file in the
working directory is loaded first).`,
		Version:           a.Version.String(),
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.applyGlobalFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.firectlPath, "firectl", "", "Path to the firectl executable (default from config)")
	pf.DurationVar(&a.opts.firectlTimeout, "firectl-timeout", 0, "Kill firectl after this long (0 = no bound)")
	pf.DurationVar(&a.opts.inferenceTimeout, "inference-timeout", 0, "Bound on a completion request (0 = no bound)")
	pf.BoolVar(&a.opts.json, "json", false, "Print results as JSON")
	pf.BoolVar(&a.opts.render, "render", false, "Render completions as markdown")

	for _, entry := range commandTable() {
		root.AddCommand(a.newCommand(entry))
	}
	root.AddCommand(a.newConfigCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// applyGlobalFlags layers the persistent flags over the loaded config.
func (a *App) applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	var o config.Overrides
	if fs.Changed("firectl") {
		o.FirectlPath = &a.opts.firectlPath
	}
	if fs.Changed("firectl-timeout") {
		if a.opts.firectlTimeout < 0 {
			return usageErrorf("--firectl-timeout must not be negative")
		}
		o.FirectlTimeout = &a.opts.firectlTimeout
	}
	if fs.Changed("inference-timeout") {
		if a.opts.inferenceTimeout < 0 {
			return usageErrorf("--inference-timeout must not be negative")
		}
		o.InferenceTimeout = &a.opts.inferenceTimeout
	}
	a.Config.ApplyCLIFlags(o)

	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// newCommand turns a table entry into a cobra command.
func (a *App) newCommand(entry command) *cobra.Command {
	opts := &cmdOptions{}
	cmd := &cobra.Command{
		Use:     useLine(entry),
		Aliases: []string{strings.ReplaceAll(entry.Name, "_", "-")},
		Short:   entry.Short,
		Long:    longHelp(entry),
		// arity is checked by resolveArgs so that it surfaces as a UsageError
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.validate(entry, opts, args)
			if err != nil {
				return err
			}
			timing.Log(entry.Name + ": validated")
			debug.Log("dispatching command", "command", entry.Name, "args", len(args))
			err = entry.Run(cmd.Context(), a, req)
			timing.Log(entry.Name + ": finished")
			return err
		},
	}
	if entry.Flags != nil {
		entry.Flags(cmd.Flags(), opts, a.Config)
	}
	return cmd
}

// validate resolves positional arguments, checks flag values and the
// credential. Nothing has been sent or spawned when it returns an error.
func (a *App) validate(entry command, opts *cmdOptions, args []string) (*request, error) {
	values, err := resolveArgs(entry.Params, args)
	if err != nil {
		return nil, err
	}
	req := &request{name: entry.Name, values: values, opts: opts}
	if entry.Check != nil {
		if err := entry.Check(req); err != nil {
			return nil, &UsageError{Err: err}
		}
	}
	if entry.NeedsAPIKey && a.Config.APIKey == "" {
		return nil, llm.NewAuthError(config.APIKeyEnv + " is not set")
	}
	return req, nil
}

// resolveArgs maps positional args onto params, filling defaults and
// running per-param validation.
func resolveArgs(params []param, args []string) (map[string]string, error) {
	if len(args) > len(params) {
		return nil, usageErrorf("accepts at most %d arg(s), received %d", len(params), len(args))
	}
	values := make(map[string]string, len(params))
	for i, p := range params {
		var v string
		switch {
		case i < len(args):
			v = args[i]
		case p.Required:
			return nil, usageErrorf("missing required argument <%s>", p.Name)
		default:
			v = p.Default
		}
		if p.Validate != nil {
			if err := p.Validate(v); err != nil {
				return nil, &UsageError{Err: err}
			}
		}
		values[p.Name] = v
	}
	return values, nil
}

func useLine(entry command) string {
	parts := []string{entry.Name}
	for _, p := range entry.Params {
		if p.Required {
			parts = append(parts, "<"+p.Name+">")
		} else {
			parts = append(parts, "["+p.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// longHelp appends an Arguments section built from the param help text.
func longHelp(entry command) string {
	var sb strings.Builder
	if entry.Long != "" {
		sb.WriteString(entry.Long)
	} else {
		sb.WriteString(entry.Short + ".")
	}
	if len(entry.Params) == 0 {
		return sb.String()
	}
	sb.WriteString("\n\nArguments:\n")
	for _, p := range entry.Params {
		fmt.Fprintf(&sb, "  %-14s %s", p.Name, p.Help)
		switch {
		case p.Required:
			sb.WriteString(" (required)")
		case p.Default != "":
			fmt.Fprintf(&sb, " (default %q)", p.Default)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
