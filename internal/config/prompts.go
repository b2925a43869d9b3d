package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/supallama/supallama/internal/debug"
)

//go:embed defaults/prompts/*.md
var promptsFS embed.FS

// Prompts holds prompt template overrides.
// An empty field means the built-in template applies.
type Prompts struct {
	Improve string // text/template for llama_code_improve
}

// promptLoader handles loading prompts with fallback chain.
type promptLoader struct {
	embedFS embed.FS
}

func newPromptLoader(embedFS embed.FS) *promptLoader {
	return &promptLoader{embedFS: embedFS}
}

// LoadPrompts loads all prompt templates with fallback chain: local → global → embedded.
// localDir can be empty to skip local lookup.
func LoadPrompts(globalDir, localDir string) (*Prompts, error) {
	return newPromptLoader(promptsFS).Load(globalDir, localDir)
}

// Load loads all prompt files with fallback chain: local → global → embedded.
func (p *promptLoader) Load(globalDir, localDir string) (*Prompts, error) {
	var prompts Prompts
	var err error

	prompts.Improve, err = p.loadPromptWithLocalFallback(localDir, globalDir, "improve.md")
	if err != nil {
		return nil, fmt.Errorf("load improve prompt: %w", err)
	}

	return &prompts, nil
}

// loadPromptWithLocalFallback loads a prompt file with fallback chain: local → global → embedded.
func (p *promptLoader) loadPromptWithLocalFallback(localDir, globalDir, filename string) (string, error) {
	if localDir != "" {
		content, err := p.loadPromptFile(filepath.Join(localDir, "prompts", filename))
		if err != nil {
			debug.Warn("failed to load local prompt, falling back to global/embedded", "file", filename, "err", err)
		} else if content != "" {
			return content, nil
		}
	}

	if globalDir == "" {
		return p.loadPromptFromEmbedFS("defaults/prompts/" + filename)
	}
	return p.loadPromptWithFallback(
		filepath.Join(globalDir, "prompts", filename),
		"defaults/prompts/"+filename,
	)
}

// loadPromptWithFallback tries to load a prompt from a user file first,
// falling back to the embedded filesystem if the user file doesn't exist or is empty.
func (p *promptLoader) loadPromptWithFallback(userPath, embedPath string) (string, error) {
	content, err := p.loadPromptFile(userPath)
	if err != nil {
		return "", err
	}
	if content != "" {
		return content, nil
	}
	return p.loadPromptFromEmbedFS(embedPath)
}

// loadPromptFile reads a prompt file from disk.
// Returns empty string (not error) if file doesn't exist.
func (p *promptLoader) loadPromptFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read prompt file %s: %w", path, err)
	}
	return strings.TrimSpace(stripComments(string(data))), nil
}

func (p *promptLoader) loadPromptFromEmbedFS(path string) (string, error) {
	data, err := p.embedFS.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read embedded prompt %s: %w", path, err)
	}
	return strings.TrimSpace(stripComments(string(data))), nil
}

// stripComments removes lines starting with # (comment lines) from content.
// Empty lines are preserved, inline comments are not supported.
// Handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
