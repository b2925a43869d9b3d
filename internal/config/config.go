// Package config provides unified configuration management for supallama.
// Configuration is loaded from multiple sources with the following precedence:
// embedded defaults → global file → env vars → local file → CLI flags
package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/supallama/supallama/internal/debug"
	"github.com/supallama/supallama/internal/dirs"
)

//go:embed defaults/config.yaml
var defaultsFS embed.FS

// APIKeyEnv names the variable holding the inference credential.
const APIKeyEnv = "FIREWORKS_AI_KEY"

// InferenceConfig holds settings for the chat-completion endpoint.
type InferenceConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"`    // seconds, 0 = no bound
	MaxTokens int    `yaml:"max_tokens"` // 0 = let the service decide

	// Set tracking for merge
	TimeoutSet   bool `yaml:"-"`
	MaxTokensSet bool `yaml:"-"`
}

// ModelsConfig maps model families to Fireworks model ids.
type ModelsConfig struct {
	Llama   string `yaml:"llama"`
	Mixtral string `yaml:"mixtral"`
}

// FirectlConfig holds settings for the external job-management binary.
type FirectlConfig struct {
	Path         string `yaml:"path"`
	Timeout      int    `yaml:"timeout"` // seconds, 0 = no bound
	SettingsFile string `yaml:"settings_file"`

	// Set tracking for merge
	TimeoutSet bool `yaml:"-"`
}

// ImproveConfig holds defaults for the code improvement command.
type ImproveConfig struct {
	Language string `yaml:"language"`
}

// Config holds all configuration settings for supallama.
// Fields ending in *Set track whether that field was explicitly set in config.
// This allows distinguishing explicit 0 from "not set", enabling proper
// merge behavior where local config can override global config with zero values.
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Models    ModelsConfig    `yaml:"models"`
	Firectl   FirectlConfig   `yaml:"firectl"`
	Improve   ImproveConfig   `yaml:"improve"`

	// Credential, only ever read from the environment.
	APIKey string `yaml:"-"`

	// Prompts (loaded separately, not from YAML)
	Prompts *Prompts `yaml:"-"`

	// Private: track where config was loaded from
	configDir string
	localDir  string
	sources   []string // ordered list of sources that contributed to this config
}

// Sources returns the ordered list of sources that contributed to this config.
func (c *Config) Sources() []string {
	return c.sources
}

// LocalDir returns the local project config directory if one was detected.
func (c *Config) LocalDir() string {
	return c.localDir
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// InferenceTimeout returns the HTTP timeout for inference calls.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.Inference.Timeout) * time.Second
}

// FirectlTimeout returns the bound on a firectl run, 0 meaning none.
func (c *Config) FirectlTimeout() time.Duration {
	return time.Duration(c.Firectl.Timeout) * time.Second
}

// Load loads all configuration from the default locations.
// It auto-detects .supallama/ in the current working directory for local overrides.
// It installs defaults if needed.
func Load() (*Config, error) {
	var localDir string
	if cwd, err := os.Getwd(); err == nil {
		localDir = dirs.LocalDir(cwd)
	}
	return LoadWithDirs(dirs.ConfigDir(), localDir)
}

// LoadWithDirs loads configuration with explicit global and local directories.
// Local config (.supallama/) overrides global config (~/.config/supallama/) per-field.
// If localDir is empty, only global config is used.
func LoadWithDirs(globalDir, localDir string) (*Config, error) {
	if err := InstallDefaults(globalDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	// Load in order: embedded → global → env → local
	// Each layer only overwrites fields that were explicitly set

	cfg, err := loadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load embedded defaults: %w", err)
	}
	cfg.sources = append(cfg.sources, "embedded")

	globalPath := filepath.Join(globalDir, "config.yaml")
	if globalCfg, err := loadFile(globalPath); err == nil {
		cfg.mergeFrom(globalCfg)
		cfg.sources = append(cfg.sources, globalPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load global config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if localDir != "" {
		localPath := filepath.Join(localDir, "config.yaml")
		if localCfg, err := loadFile(localPath); err == nil {
			cfg.mergeFrom(localCfg)
			cfg.sources = append(cfg.sources, localPath)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load local config: %w", err)
		}
	}

	cfg.configDir = globalDir
	cfg.localDir = localDir

	prompts, err := LoadPrompts(globalDir, localDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	cfg.Prompts = prompts

	debug.Logf("config loaded from %d source(s): %s", len(cfg.sources), strings.Join(cfg.sources, ", "))
	return cfg, nil
}

// InstallDefaults creates the config directory and installs default config if not exists.
func InstallDefaults(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// For user overrides
	promptsDir := filepath.Join(configDir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o700); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		data, err := defaultsFS.ReadFile("defaults/config.yaml")
		if err != nil {
			return fmt.Errorf("read embedded config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
	}

	return nil
}

func loadEmbedded() (*Config, error) {
	data, err := defaultsFS.ReadFile("defaults/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}
	return parseConfigWithTracking(data)
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user's config file
	if err != nil {
		return nil, err
	}
	cfg, err := parseConfigWithTracking(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// parseConfigWithTracking parses YAML config and tracks which fields were set.
func parseConfigWithTracking(data []byte) (*Config, error) {
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}

	// Parse into a map to detect which fields were explicitly set
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if inference, ok := raw["inference"].(map[string]any); ok {
		if _, ok := inference["timeout"]; ok {
			cfg.Inference.TimeoutSet = true
		}
		if _, ok := inference["max_tokens"]; ok {
			cfg.Inference.MaxTokensSet = true
		}
	}

	if firectl, ok := raw["firectl"].(map[string]any); ok {
		if _, ok := firectl["timeout"]; ok {
			cfg.Firectl.TimeoutSet = true
		}
	}

	return cfg, nil
}

// applyEnv applies environment variables to the config.
// Env vars sit between global and local config in precedence.
func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		c.APIKey = v
		c.sources = append(c.sources, "env:"+APIKeyEnv)
	}

	if v := os.Getenv("SUPALLAMA_BASE_URL"); v != "" {
		c.Inference.BaseURL = v
		c.sources = append(c.sources, "env:SUPALLAMA_BASE_URL")
	}

	if v := os.Getenv("SUPALLAMA_INFERENCE_TIMEOUT"); v != "" {
		n, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("SUPALLAMA_INFERENCE_TIMEOUT: %w", err)
		}
		c.Inference.Timeout = n
		c.Inference.TimeoutSet = true
		c.sources = append(c.sources, "env:SUPALLAMA_INFERENCE_TIMEOUT")
	}

	if v := os.Getenv("SUPALLAMA_FIRECTL"); v != "" {
		c.Firectl.Path = v
		c.sources = append(c.sources, "env:SUPALLAMA_FIRECTL")
	}

	if v := os.Getenv("SUPALLAMA_FIRECTL_TIMEOUT"); v != "" {
		n, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("SUPALLAMA_FIRECTL_TIMEOUT: %w", err)
		}
		c.Firectl.Timeout = n
		c.Firectl.TimeoutSet = true
		c.sources = append(c.sources, "env:SUPALLAMA_FIRECTL_TIMEOUT")
	}

	return nil
}

// parseSeconds accepts either a whole number of seconds or a Go duration.
func parseSeconds(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative timeout %d", n)
		}
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: want seconds or a duration like 90s", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", d)
	}
	return durationSeconds(d), nil
}

// mergeFrom merges non-empty/set values from src into c.
func (c *Config) mergeFrom(src *Config) {
	if src.Inference.BaseURL != "" {
		c.Inference.BaseURL = src.Inference.BaseURL
	}
	if src.Inference.TimeoutSet {
		c.Inference.Timeout = src.Inference.Timeout
		c.Inference.TimeoutSet = true
	}
	if src.Inference.MaxTokensSet {
		c.Inference.MaxTokens = src.Inference.MaxTokens
		c.Inference.MaxTokensSet = true
	}

	if src.Models.Llama != "" {
		c.Models.Llama = src.Models.Llama
	}
	if src.Models.Mixtral != "" {
		c.Models.Mixtral = src.Models.Mixtral
	}

	if src.Firectl.Path != "" {
		c.Firectl.Path = src.Firectl.Path
	}
	if src.Firectl.TimeoutSet {
		c.Firectl.Timeout = src.Firectl.Timeout
		c.Firectl.TimeoutSet = true
	}
	if src.Firectl.SettingsFile != "" {
		c.Firectl.SettingsFile = src.Firectl.SettingsFile
	}

	if src.Improve.Language != "" {
		c.Improve.Language = src.Improve.Language
	}
}

// Overrides carries CLI flag values. Nil fields were not given on the
// command line.
type Overrides struct {
	FirectlPath      *string
	FirectlTimeout   *time.Duration
	InferenceTimeout *time.Duration
}

// ApplyCLIFlags applies CLI flag overrides to the config.
// CLI flags have the highest precedence.
func (c *Config) ApplyCLIFlags(o Overrides) {
	if o.FirectlPath != nil && *o.FirectlPath != "" {
		c.Firectl.Path = *o.FirectlPath
		c.sources = append(c.sources, "cli:firectl")
	}
	if o.FirectlTimeout != nil {
		c.Firectl.Timeout = durationSeconds(*o.FirectlTimeout)
		c.Firectl.TimeoutSet = true
		c.sources = append(c.sources, "cli:firectl-timeout")
	}
	if o.InferenceTimeout != nil {
		c.Inference.Timeout = durationSeconds(*o.InferenceTimeout)
		c.Inference.TimeoutSet = true
		c.sources = append(c.sources, "cli:inference-timeout")
	}
}

// durationSeconds rounds up so that a sub-second bound never becomes 0 (no bound).
func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Validate reports settings that would make every command fail.
func (c *Config) Validate() error {
	var errs []error
	if c.Inference.Timeout < 0 {
		errs = append(errs, fmt.Errorf("inference.timeout must not be negative (got %d)", c.Inference.Timeout))
	}
	if c.Inference.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("inference.max_tokens must not be negative (got %d)", c.Inference.MaxTokens))
	}
	if c.Firectl.Timeout < 0 {
		errs = append(errs, fmt.Errorf("firectl.timeout must not be negative (got %d)", c.Firectl.Timeout))
	}
	if u, err := url.Parse(c.Inference.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("inference.base_url %q is not an absolute URL", c.Inference.BaseURL))
	}
	if c.Models.Llama == "" {
		errs = append(errs, errors.New("models.llama must not be empty"))
	}
	if c.Models.Mixtral == "" {
		errs = append(errs, errors.New("models.mixtral must not be empty"))
	}
	return errors.Join(errs...)
}
