// Package process runs external executables to completion and captures
// their output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/supallama/supallama/internal/debug"
)

// DefaultMaxOutput bounds each captured stream (64MB).
const DefaultMaxOutput = 64 * 1024 * 1024

// waitDelay bounds how long Wait keeps draining pipes after the child exits
// (a grandchild may hold them open).
const waitDelay = 2 * time.Second

// Invocation kinds. Match with errors.Is.
var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrStartFailed        = errors.New("failed to start")
	ErrCaptureFailed      = errors.New("failed to capture output")
	ErrTimeout            = errors.New("timed out")
	ErrInterrupted        = errors.New("interrupted")
)

// InvocationError reports that an executable could not be run or observed to
// completion. It never describes a non-zero exit status; that is reported
// through Result.ExitCode.
type InvocationError struct {
	Executable string
	Kind       error
	Err        error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Executable, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Invocation is an executable plus its argument vector. Each argument is
// passed to the child as its own argv slot; no shell is involved. Values are
// copied on construction and on access, so an Invocation never changes.
type Invocation struct {
	executable string
	args       []string
	env        []string
}

// NewInvocation builds an Invocation of executable with args.
func NewInvocation(executable string, args ...string) Invocation {
	return Invocation{executable: executable, args: slices.Clone(args)}
}

// WithEnv returns a copy that runs with env instead of the inherited
// environment.
func (inv Invocation) WithEnv(env []string) Invocation {
	inv.env = slices.Clone(env)
	return inv
}

// Executable returns the executable name or path.
func (inv Invocation) Executable() string { return inv.executable }

// Args returns a copy of the argument vector (without the executable).
func (inv Invocation) Args() []string { return slices.Clone(inv.args) }

// Env returns a copy of the explicit environment, nil when inherited.
func (inv Invocation) Env() []string { return slices.Clone(inv.env) }

// String renders the invocation for display, quoting arguments that a
// POSIX shell would split or interpret.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.args)+1)
	parts = append(parts, quoteArg(inv.executable))
	for _, a := range inv.args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return `''`
	}
	if strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]#~{}!") {
		return strconv.Quote(s)
	}
	return s
}

// Result is the captured outcome of a process that ran.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Invoker runs invocations synchronously.
type Invoker struct {
	// Timeout bounds each invocation. Zero means no bound.
	Timeout time.Duration
	// MaxOutput bounds each captured stream; zero means DefaultMaxOutput.
	MaxOutput int
}

// Invoke starts inv, waits for it to exit and returns its captured output.
// A non-zero exit status is not an error. An *InvocationError is returned
// when the executable cannot be found or started, when output capture fails,
// or when the run is cut short by the timeout or ctx; in the latter cases the
// partial Result is returned alongside the error.
func (i *Invoker) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	exe := inv.executable
	path, err := exec.LookPath(exe)
	if err != nil {
		return nil, &InvocationError{Executable: exe, Kind: ErrExecutableNotFound, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &InvocationError{Executable: exe, Kind: ErrInterrupted, Err: err}
	}

	runCtx := ctx
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	limit := i.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}

	// exec.Command rather than CommandContext: cancellation kills the whole
	// process group, not just the direct child.
	cmd := exec.Command(path, inv.args...) //nolint:gosec // argv is built by the caller, one value per slot
	cmd.Env = inv.env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setupProcessGroup(cmd)

	if debug.Enabled() {
		debug.Log("starting process", "argv", inv.String())
	}
	start := time.Now()

	if err := cmd.Start(); err != nil {
		kind := ErrStartFailed
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, exec.ErrNotFound) {
			kind = ErrExecutableNotFound
		}
		return nil, &InvocationError{Executable: exe, Kind: kind, Err: err}
	}

	cleanup := newProcessGroupCleanup(cmd, runCtx.Done())
	waitErr := cleanup.Wait()

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitStatus(cmd.ProcessState),
		Duration: time.Since(start),
	}
	debug.Log("process exited", "executable", exe, "exit_code", res.ExitCode,
		"elapsed", res.Duration.Round(time.Millisecond))

	if waitErr != nil && runCtx.Err() != nil {
		if ctx.Err() == nil {
			return res, &InvocationError{Executable: exe, Kind: ErrTimeout, Err: fmt.Errorf("after %s", i.Timeout)}
		}
		return res, &InvocationError{Executable: exe, Kind: ErrInterrupted, Err: ctx.Err()}
	}
	if stdout.overflow || stderr.overflow {
		return res, &InvocationError{Executable: exe, Kind: ErrCaptureFailed,
			Err: fmt.Errorf("output exceeded %d bytes", limit)}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, nil
		}
		return res, &InvocationError{Executable: exe, Kind: ErrCaptureFailed, Err: waitErr}
	}
	return res, nil
}

// cappedBuffer keeps at most limit bytes and silently drops the rest so the
// child never blocks on a full pipe; overflow is recorded instead.
type cappedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - b.buf.Len()
	if room < len(p) {
		b.overflow = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
