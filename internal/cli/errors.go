package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/supallama/supallama/internal/process"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	// exitInterrupted follows the shell convention for SIGINT.
	exitInterrupted = 130
)

// UsageError reports a missing or invalid command-line argument. It is
// raised before any network call or process spawn.
type UsageError struct {
	Err   error
	Usage string // usage text of the command that failed, may be empty
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitError carries the exit status of an external process that ran and
// failed. Its output has already been printed, so it carries no message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			return exitError
		}
		return exitErr.Code
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return exitUsage
	}
	if errors.Is(err, process.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	return exitError
}
