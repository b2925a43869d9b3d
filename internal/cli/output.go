package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/supallama/supallama/internal/process"
)

const colorRed = "196"

// printText writes s followed by a newline unless it already ends in one.
func printText(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
	if !strings.HasSuffix(s, "\n") {
		_, _ = io.WriteString(w, "\n")
	}
}

// printCompletion prints a completion as plain text, or rendered as
// markdown when --render is set.
func (a *App) printCompletion(content string) {
	if a.opts.render {
		if rendered, err := a.renderMarkdown(content); err == nil {
			_, _ = io.WriteString(a.Stdout, rendered)
			return
		}
	}
	printText(a.Stdout, content)
}

func (a *App) renderMarkdown(content string) (string, error) {
	style := "notty"
	if a.IsTTY {
		style = "dark"
	}
	width := a.TermWidth
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-6, 40)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(content)
}

// printJSON pretty-prints a JSON document, colored when stdout is a terminal.
func (a *App) printJSON(doc []byte) {
	out := pretty.Pretty(doc)
	if a.IsTTY {
		out = pretty.Color(out, pretty.TerminalStyle)
	}
	_, _ = a.Stdout.Write(out)
}

// completionJSON builds {"model": ..., "content": ...}.
func completionJSON(model, content string) ([]byte, error) {
	doc, err := sjson.SetBytes([]byte(`{}`), "model", model)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(doc, "content", content)
}

// resultJSON builds {"command": [...], "exit_code": n, "stdout": ..., "stderr": ...}.
func resultJSON(inv process.Invocation, res *process.Result) ([]byte, error) {
	command := append([]string{inv.Executable()}, inv.Args()...)
	doc, err := sjson.SetBytes([]byte(`{}`), "command", command)
	if err != nil {
		return nil, err
	}
	if doc, err = sjson.SetBytes(doc, "exit_code", res.ExitCode); err != nil {
		return nil, err
	}
	if doc, err = sjson.SetBytes(doc, "stdout", res.Stdout); err != nil {
		return nil, err
	}
	return sjson.SetBytes(doc, "stderr", res.Stderr)
}

// printResult writes captured output verbatim: stdout to stdout, stderr to
// stderr.
func (a *App) printResult(inv process.Invocation, res *process.Result) error {
	if a.opts.json {
		doc, err := resultJSON(inv, res)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		a.printJSON(doc)
		return nil
	}
	_, _ = io.WriteString(a.Stdout, res.Stdout)
	_, _ = io.WriteString(a.Stderr, res.Stderr)
	return nil
}

// unifiedDiff returns a unified diff from the submitted code to the
// model's annotated version.
func unifiedDiff(input, completion string) string {
	if !strings.HasSuffix(input, "\n") {
		input += "\n"
	}
	if !strings.HasSuffix(completion, "\n") {
		completion += "\n"
	}
	return udiff.Unified("input", "improved", input, completion)
}

// printError writes "Error: <msg>" to w, with a red label on a terminal.
func printError(w io.Writer, err error, isTTY bool) {
	label := "Error:"
	if isTTY {
		label = lipgloss.NewRenderer(w).NewStyle().
			Foreground(lipgloss.Color(colorRed)).
			Bold(true).
			Render(label)
	}
	_, _ = fmt.Fprintf(w, "%s %v\n", label, err)
}
