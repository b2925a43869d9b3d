package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/sjson"

	"github.com/supallama/supallama/internal/config"
	"github.com/supallama/supallama/internal/firectl"
	"github.com/supallama/supallama/internal/prompt"
)

// Default argument values.
const (
	defaultChatContent = "Tell me a joke"

	defaultLlamaCodePrompt = "Generate a functional react server component and react server action for a signup form " +
		"with fields for the first name, last name, email, password, password confirmation fields and a submit " +
		"button that invokes a react server action. Use typescript and the shadcn/ui component library for the react code."

	defaultMixtralCodePrompt = "Generate a custom navigation react component with home, blog, store and shopping " +
		"cart navigation items using typescript and the shadcn/ui library"

	defaultDisplayName = "Unnamed Fine-tuning job"

	// stdinPath selects standard input as the improve payload.
	stdinPath = "-"
)

// param is a positional argument of a command.
type param struct {
	Name     string
	Required bool
	Default  string
	Help     string
	Validate func(value string) error
}

// cmdOptions holds the values of command-local flags. Each command binds
// only the flags it declares.
type cmdOptions struct {
	model        string
	mods         prompt.Modifiers
	language     string
	diff         bool
	dryRun       bool
	settingsFile string
	dataset      string
}

// request is a command invocation that passed validation.
type request struct {
	name   string
	values map[string]string
	opts   *cmdOptions
}

func (r *request) arg(name string) string {
	return r.values[name]
}

// command is one entry of the static command table.
type command struct {
	Name        string
	Short       string
	Long        string
	Params      []param
	NeedsAPIKey bool

	// Flags binds command-local flags into opts. Defaults may come from cfg.
	Flags func(fs *pflag.FlagSet, opts *cmdOptions, cfg *config.Config)
	// Check validates flag values. It runs before any side effect.
	Check func(req *request) error
	Run   func(ctx context.Context, a *App, req *request) error
}

// commandTable lists every command supallama dispatches.
func commandTable() []command {
	return []command{
		{
			Name:        "llama_chat",
			Short:       "Chat with Llama 3.1 8B Instruct",
			Params:      []param{{Name: "content", Default: defaultChatContent, Help: "Content to say to the model"}},
			NeedsAPIKey: true,
			Flags:       modelFlag(func(c *config.Config) string { return c.Models.Llama }),
			Run:         runChat,
		},
		{
			Name:        "llama_code",
			Short:       "Ask Llama 3.1 8B Instruct to write code",
			Params:      []param{{Name: "prompt", Default: defaultLlamaCodePrompt, Help: "Prompt for the model"}},
			NeedsAPIKey: true,
			Flags:       codeFlags(func(c *config.Config) string { return c.Models.Llama }),
			Run:         codeRunner("prompt"),
		},
		{
			Name:  "llama_code_improve",
			Short: "Ask Llama 3.1 8B Instruct to analyze and improve code",
			Long: `Read a source document from a file or standard input and ask the model to
annotate it with inline comments on how to improve problematic lines.

The input is echoed to stdout before the model's answer so the two can be
compared. With --diff a unified diff from the input to the answer is printed
instead.`,
			Params: []param{{
				Name:     "input-file",
				Default:  stdinPath,
				Help:     "Code to improve; - or omitted reads standard input",
				Validate: validateInputFile,
			}},
			NeedsAPIKey: true,
			Flags:       improveFlags,
			Run:         runImprove,
		},
		{
			Name:        "mixtral_chat",
			Short:       "Chat with Mixtral 8x7B Instruct",
			Params:      []param{{Name: "content", Default: defaultChatContent, Help: "Content to say to the model"}},
			NeedsAPIKey: true,
			Flags:       modelFlag(func(c *config.Config) string { return c.Models.Mixtral }),
			Run:         runChat,
		},
		{
			Name:        "mixtral_code",
			Short:       "Ask Mixtral 8x7B Instruct to write code",
			Params:      []param{{Name: "command", Default: defaultMixtralCodePrompt, Help: "Command for the model"}},
			NeedsAPIKey: true,
			Flags:       codeFlags(func(c *config.Config) string { return c.Models.Mixtral }),
			Run:         codeRunner("command"),
		},
		{
			Name:  "fine_tune",
			Short: "Create a fine-tuning job with firectl",
			Params: []param{{
				Name:     "display_name",
				Default:  defaultDisplayName,
				Help:     "Display name of the fine-tuning job",
				Validate: valueValidator("display name"),
			}},
			Flags: fineTuneFlags,
			Check: checkFineTune,
			Run:   runFineTune,
		},
		{
			Name:  "fine_tune_status",
			Short: "Show the status of a fine-tuning job",
			Params: []param{{
				Name:     "job-id",
				Required: true,
				Help:     "Fine-tuning job id",
				Validate: valueValidator("job id"),
			}},
			Flags: dryRunFlag,
			Run: func(ctx context.Context, a *App, req *request) error {
				return a.runJob(ctx, req, func(c *firectl.Client) (jobInvocation, error) {
					return c.JobStatus(req.arg("job-id"))
				})
			},
		},
		{
			Name:  "deploy_model",
			Short: "Deploy a fine-tuned model to a serverless endpoint",
			Params: []param{{
				Name:     "model-id",
				Required: true,
				Help:     "Id of the fine-tuned model",
				Validate: valueValidator("model id"),
			}},
			Flags: dryRunFlag,
			Run: func(ctx context.Context, a *App, req *request) error {
				return a.runJob(ctx, req, func(c *firectl.Client) (jobInvocation, error) {
					return c.Deploy(req.arg("model-id"))
				})
			},
		},
		{
			Name:  "get_model",
			Short: "Show the details of a fine-tuned model",
			Params: []param{{
				Name:     "model-id",
				Required: true,
				Help:     "Id of the fine-tuned model",
				Validate: valueValidator("model id"),
			}},
			Flags: dryRunFlag,
			Run: func(ctx context.Context, a *App, req *request) error {
				return a.runJob(ctx, req, func(c *firectl.Client) (jobInvocation, error) {
					return c.GetModel(req.arg("model-id"))
				})
			},
		},
	}
}

func modelFlag(def func(*config.Config) string) func(*pflag.FlagSet, *cmdOptions, *config.Config) {
	return func(fs *pflag.FlagSet, opts *cmdOptions, cfg *config.Config) {
		fs.StringVarP(&opts.model, "model", "m", def(cfg), "Model id to send the request to")
	}
}

func modifierFlags(fs *pflag.FlagSet, opts *cmdOptions) {
	fs.BoolVar(&opts.mods.CommentCode, "comment-code", false, "Annotate the generated code with comments")
	fs.BoolVar(&opts.mods.Verbose, "verbose", false, "Use verbose comments (with --comment-code)")
}

func codeFlags(def func(*config.Config) string) func(*pflag.FlagSet, *cmdOptions, *config.Config) {
	withModel := modelFlag(def)
	return func(fs *pflag.FlagSet, opts *cmdOptions, cfg *config.Config) {
		withModel(fs, opts, cfg)
		fs.BoolVar(&opts.mods.CodeOnly, "code-only", false, "Only generate code in the output")
		modifierFlags(fs, opts)
	}
}

func improveFlags(fs *pflag.FlagSet, opts *cmdOptions, cfg *config.Config) {
	modelFlag(func(c *config.Config) string { return c.Models.Llama })(fs, opts, cfg)
	fs.StringVarP(&opts.language, "language", "l", cfg.Improve.Language, "Language/style label for the inline comments")
	fs.BoolVar(&opts.diff, "diff", false, "Print a unified diff from the input to the improved code")
	modifierFlags(fs, opts)
}

func dryRunFlag(fs *pflag.FlagSet, opts *cmdOptions, _ *config.Config) {
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the firectl invocation instead of running it")
}

func fineTuneFlags(fs *pflag.FlagSet, opts *cmdOptions, cfg *config.Config) {
	dryRunFlag(fs, opts, cfg)
	fs.StringVar(&opts.settingsFile, "with-settings-file", cfg.Firectl.SettingsFile, "Fine-tuning settings file passed to firectl")
	fs.StringVar(&opts.dataset, "dataset", "", "Dataset id to fine-tune on")
}

func valueValidator(name string) func(string) error {
	return func(v string) error {
		return firectl.ValidateValue(name, v)
	}
}

func validateInputFile(path string) error {
	if path == stdinPath {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file %s does not exist", path)
		}
		return fmt.Errorf("input file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file %s is a directory", path)
	}
	return nil
}

func checkFineTune(req *request) error {
	if req.opts.dataset != "" {
		if err := firectl.ValidateValue("dataset", req.opts.dataset); err != nil {
			return err
		}
	}
	return firectl.ValidateSettingsFile(req.opts.settingsFile)
}

func runChat(ctx context.Context, a *App, req *request) error {
	return a.complete(ctx, req.opts.model, req.arg("content"))
}

// codeRunner composes the prompt held by the named parameter.
func codeRunner(paramName string) func(context.Context, *App, *request) error {
	return func(ctx context.Context, a *App, req *request) error {
		return a.complete(ctx, req.opts.model, prompt.Compose(req.arg(paramName), req.opts.mods))
	}
}

// complete asks for a completion and prints it.
func (a *App) complete(ctx context.Context, model, text string) error {
	content, err := a.ask(ctx, model, text)
	if err != nil {
		return err
	}
	if a.opts.json {
		doc, err := completionJSON(model, content)
		if err != nil {
			return fmt.Errorf("encode completion: %w", err)
		}
		a.printJSON(doc)
		return nil
	}
	a.printCompletion(content)
	return nil
}

func runImprove(ctx context.Context, a *App, req *request) error {
	// Read the whole payload before anything goes over the network.
	code, err := a.readInput(req.arg("input-file"))
	if err != nil {
		return err
	}

	var tmpl string
	if a.Config.Prompts != nil {
		tmpl = a.Config.Prompts.Improve
	}
	builder, err := prompt.NewBuilder(tmpl)
	if err != nil {
		return fmt.Errorf("failed to create prompt builder: %w", err)
	}
	// code-only has no meaning for an annotate request
	mods := prompt.Modifiers{CommentCode: req.opts.mods.CommentCode, Verbose: req.opts.mods.Verbose}
	text, err := builder.Improve(code, req.opts.language, mods)
	if err != nil {
		return err
	}

	if !a.opts.json && !req.opts.diff {
		printText(a.Stdout, code)
	}

	content, err := a.ask(ctx, req.opts.model, text)
	if err != nil {
		return err
	}

	switch {
	case a.opts.json:
		doc, err := completionJSON(req.opts.model, content)
		if err == nil {
			doc, err = sjson.SetBytes(doc, "input", code)
		}
		if err == nil && req.opts.diff {
			doc, err = sjson.SetBytes(doc, "diff", unifiedDiff(code, content))
		}
		if err != nil {
			return fmt.Errorf("encode completion: %w", err)
		}
		a.printJSON(doc)
	case req.opts.diff:
		_, _ = io.WriteString(a.Stdout, unifiedDiff(code, content))
	default:
		a.printCompletion(content)
	}
	return nil
}

func (a *App) readInput(path string) (string, error) {
	if path == stdinPath {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			return "", fmt.Errorf("read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's input file
	if err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}
	return string(data), nil
}

func runFineTune(ctx context.Context, a *App, req *request) error {
	return a.runJob(ctx, req, func(c *firectl.Client) (jobInvocation, error) {
		return c.CreateJob(firectl.CreateJobRequest{
			SettingsFile: req.opts.settingsFile,
			DisplayName:  req.arg("display_name"),
			Dataset:      req.opts.dataset,
		})
	})
}
