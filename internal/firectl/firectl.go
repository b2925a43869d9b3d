// Package firectl translates fine-tuning and deployment actions into
// invocations of the firectl binary.
package firectl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/supallama/supallama/internal/process"
)

// DefaultBinary is the executable looked up on PATH when none is configured.
const DefaultBinary = "firectl"

// apiKeyEnv is the variable firectl reads its credential from.
const apiKeyEnv = "FIREWORKS_API_KEY"

// ErrInvalidArgument is returned when a value cannot be placed in an
// argument vector slot.
var ErrInvalidArgument = errors.New("invalid argument")

// Runner executes an invocation. *process.Invoker satisfies it.
type Runner interface {
	Invoke(ctx context.Context, inv process.Invocation) (*process.Result, error)
}

var _ Runner = (*process.Invoker)(nil)

// CreateJobRequest describes a fine-tuning job to create.
type CreateJobRequest struct {
	SettingsFile string
	DisplayName  string
	Dataset      string // optional dataset id
}

// CreateJobArgs returns
// create fine-tuning-job --settings-file <path> --display-name <name> [--dataset <id>].
func CreateJobArgs(req CreateJobRequest) ([]string, error) {
	if err := ValidateValue("settings file", req.SettingsFile); err != nil {
		return nil, err
	}
	if err := ValidateValue("display name", req.DisplayName); err != nil {
		return nil, err
	}
	args := []string{
		"create", "fine-tuning-job",
		"--settings-file", req.SettingsFile,
		"--display-name", req.DisplayName,
	}
	if req.Dataset != "" {
		if err := ValidateValue("dataset", req.Dataset); err != nil {
			return nil, err
		}
		args = append(args, "--dataset", req.Dataset)
	}
	return args, nil
}

// JobStatusArgs returns get fine-tuning-job <job-id>.
func JobStatusArgs(jobID string) ([]string, error) {
	if err := ValidateValue("job id", jobID); err != nil {
		return nil, err
	}
	return []string{"get", "fine-tuning-job", jobID}, nil
}

// DeployArgs returns deploy <model-id>.
func DeployArgs(modelID string) ([]string, error) {
	if err := ValidateValue("model id", modelID); err != nil {
		return nil, err
	}
	return []string{"deploy", modelID}, nil
}

// GetModelArgs returns get model <model-id>.
func GetModelArgs(modelID string) ([]string, error) {
	if err := ValidateValue("model id", modelID); err != nil {
		return nil, err
	}
	return []string{"get", "model", modelID}, nil
}

// ValidateValue rejects values that cannot safely occupy a single argv slot:
// empty values, values firectl would parse as a flag, and control characters
// that cannot be passed through or would garble its output.
func ValidateValue(name, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	case strings.HasPrefix(value, "-"):
		return fmt.Errorf("%w: %s %q must not start with '-'", ErrInvalidArgument, name, value)
	case strings.ContainsAny(value, "\x00\r\n"):
		return fmt.Errorf("%w: %s must not contain NUL or newline characters", ErrInvalidArgument, name)
	}
	return nil
}

// ValidateSettingsFile checks that path is a usable value and names an
// existing regular file.
func ValidateSettingsFile(path string) error {
	if err := ValidateValue("settings file", path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: settings file %s does not exist", ErrInvalidArgument, path)
		}
		return fmt.Errorf("%w: settings file %s: %v", ErrInvalidArgument, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: settings file %s is not a regular file", ErrInvalidArgument, path)
	}
	return nil
}

// Config configures the firectl client.
type Config struct {
	Binary string // defaults to DefaultBinary
	APIKey string // forwarded as FIREWORKS_API_KEY when set
}

// Client builds and runs firectl invocations.
type Client struct {
	binary string
	env    []string
	runner Runner
}

// NewClient returns a Client that executes through runner.
func NewClient(cfg Config, runner Runner) *Client {
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	var env []string
	if cfg.APIKey != "" {
		env = process.MergeEnv(os.Environ(), map[string]string{apiKeyEnv: cfg.APIKey})
	}
	return &Client{binary: binary, env: env, runner: runner}
}

func (c *Client) invocation(args []string) process.Invocation {
	inv := process.NewInvocation(c.binary, args...)
	if c.env != nil {
		inv = inv.WithEnv(c.env)
	}
	return inv
}

// CreateJob builds the invocation that creates a fine-tuning job.
func (c *Client) CreateJob(req CreateJobRequest) (process.Invocation, error) {
	args, err := CreateJobArgs(req)
	if err != nil {
		return process.Invocation{}, err
	}
	return c.invocation(args), nil
}

// JobStatus builds the invocation that shows a fine-tuning job.
func (c *Client) JobStatus(jobID string) (process.Invocation, error) {
	args, err := JobStatusArgs(jobID)
	if err != nil {
		return process.Invocation{}, err
	}
	return c.invocation(args), nil
}

// Deploy builds the invocation that deploys a model.
func (c *Client) Deploy(modelID string) (process.Invocation, error) {
	args, err := DeployArgs(modelID)
	if err != nil {
		return process.Invocation{}, err
	}
	return c.invocation(args), nil
}

// GetModel builds the invocation that shows model details.
func (c *Client) GetModel(modelID string) (process.Invocation, error) {
	args, err := GetModelArgs(modelID)
	if err != nil {
		return process.Invocation{}, err
	}
	return c.invocation(args), nil
}

// Run executes inv. A non-zero exit status is reported through the result,
// not as an error.
func (c *Client) Run(ctx context.Context, inv process.Invocation) (*process.Result, error) {
	return c.runner.Invoke(ctx, inv)
}
