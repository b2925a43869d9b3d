package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/supallama/supallama/internal/firectl"
	"github.com/supallama/supallama/internal/process"
)

type jobInvocation = process.Invocation

// runJob builds a firectl invocation, runs it and mirrors its outcome.
// Output captured before a timeout or interrupt is still printed.
func (a *App) runJob(ctx context.Context, req *request, build func(*firectl.Client) (jobInvocation, error)) error {
	client := a.jobClient()
	inv, err := build(client)
	if err != nil {
		if errors.Is(err, firectl.ErrInvalidArgument) {
			return &UsageError{Err: err}
		}
		return err
	}

	if req.opts.dryRun {
		return a.printDryRun(inv)
	}

	res, err := client.Run(ctx, inv)
	if res != nil {
		if perr := a.printResult(inv, res); perr != nil && err == nil {
			err = perr
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", req.name, err)
	}
	if !res.Success() {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}

func (a *App) printDryRun(inv jobInvocation) error {
	if !a.opts.json {
		printText(a.Stdout, inv.String())
		return nil
	}
	command := append([]string{inv.Executable()}, inv.Args()...)
	doc, err := sjson.SetBytes([]byte(`{}`), "command", command)
	if err == nil {
		doc, err = sjson.SetBytes(doc, "dry_run", true)
	}
	if err != nil {
		return fmt.Errorf("encode invocation: %w", err)
	}
	a.printJSON(doc)
	return nil
}
