package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *App) newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage supallama configuration",
		Long:  `View and manage supallama configuration.`,
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration with source annotations",
		Long: `Show the fully resolved configuration with annotations indicating
where each value came from.

Configuration is loaded from multiple sources with the following precedence:
  1. Embedded defaults (built into binary)
  2. Global config (~/.config/supallama/config.yaml)
  3. Environment variables (FIREWORKS_AI_KEY, SUPALLAMA_*) and .env
  4. Local config (.supallama/config.yaml)
  5. CLI flags (highest precedence)`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a.showConfig(a.Stdout)
			return nil
		},
	})
	return configCmd
}

func (a *App) showConfig(w io.Writer) {
	cfg := a.Config
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }

	p("# Supallama Configuration\n\n")
	p("## Sources (in order of precedence)\n")
	for _, src := range cfg.Sources() {
		p("  - %s\n", src)
	}
	p("\n")

	p("## Directories\n")
	p("  Global config: %s\n", cfg.ConfigDir())
	if cfg.LocalDir() != "" {
		p("  Local config:  %s\n", cfg.LocalDir())
	} else {
		p("  Local config:  (none detected)\n")
	}
	p("\n")

	p("## Inference\n")
	p("  base_url:   %s\n", cfg.Inference.BaseURL)
	p("  timeout:    %s\n", formatTimeout(cfg.Inference.Timeout))
	if cfg.Inference.MaxTokens > 0 {
		p("  max_tokens: %d\n", cfg.Inference.MaxTokens)
	} else {
		p("  max_tokens: (service default)\n")
	}
	if cfg.APIKey != "" {
		p("  api_key:    (set)\n")
	} else {
		p("  api_key:    (not set)\n")
	}
	p("\n")

	p("## Models\n")
	p("  llama:   %s\n", cfg.Models.Llama)
	p("  mixtral: %s\n", cfg.Models.Mixtral)
	p("\n")

	p("## Firectl\n")
	p("  path:          %s\n", cfg.Firectl.Path)
	p("  timeout:       %s\n", formatTimeout(cfg.Firectl.Timeout))
	p("  settings_file: %s\n", cfg.Firectl.SettingsFile)
	p("\n")

	p("## Improve\n")
	p("  language: %s\n", cfg.Improve.Language)
	if cfg.Prompts != nil && cfg.Prompts.Improve != "" {
		p("  prompt:   (custom template)\n")
	} else {
		p("  prompt:   (built-in)\n")
	}
}

func formatTimeout(seconds int) string {
	if seconds <= 0 {
		return "(none)"
	}
	return fmt.Sprintf("%ds", seconds)
}
