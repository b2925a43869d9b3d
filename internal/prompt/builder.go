package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultLanguage is the language/style label used by the improve prompt
// when none is configured.
const DefaultLanguage = "TypeScript and possibly Functional React Components or possibly React Server Components or possibly React Server Actions"

// DefaultImproveTemplate is the built-in improve prompt. The code payload is
// always the last thing in the prompt.
const DefaultImproveTemplate = "Read over the following code and look for any errors or " +
	"examples of poor coding practices. Then output the input code " +
	"itself with helpful, inline {{.Language}} comments added on how to " +
	"improve any problematic lines of code{{.Annotation}}. \n{{.Code}}"

// ImproveData holds the variables available to the improve template.
type ImproveData struct {
	Language   string
	Annotation string
	Code       string
}

// Builder renders the improve prompt from a parsed template.
type Builder struct {
	improve *template.Template
}

// NewBuilder parses the improve template. An empty string selects
// DefaultImproveTemplate.
func NewBuilder(improveTemplate string) (*Builder, error) {
	if strings.TrimSpace(improveTemplate) == "" {
		improveTemplate = DefaultImproveTemplate
	}
	tmpl, err := template.New("improve").Option("missingkey=error").Parse(improveTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse improve template: %w", err)
	}
	return &Builder{improve: tmpl}, nil
}

// Improve wraps code in the analyse-and-annotate instruction. Only the
// comment modifiers are honoured; they extend the instruction, never the
// code payload. An empty language falls back to DefaultLanguage.
func (b *Builder) Improve(code, language string, mods Modifiers) (string, error) {
	if language == "" {
		language = DefaultLanguage
	}
	data := ImproveData{
		Language:   language,
		Annotation: commentClause(mods),
		Code:       code,
	}
	var sb strings.Builder
	if err := b.improve.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render improve prompt: %w", err)
	}
	return sb.String(), nil
}
