//go:build !windows

package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/supallama/supallama/internal/debug"
)

// gracefulShutdownDelay is the time to wait between SIGTERM and SIGKILL.
const gracefulShutdownDelay = 100 * time.Millisecond

// processGroupCleanup kills the child's whole process group when the cancel
// channel fires before the child exits.
type processGroupCleanup struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

// setupProcessGroup configures command to run in its own process group.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// newProcessGroupCleanup must be called after cmd.Start.
func newProcessGroupCleanup(cmd *exec.Cmd, cancelCh <-chan struct{}) *processGroupCleanup {
	pg := &processGroupCleanup{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go pg.watchForCancel(cancelCh)
	return pg
}

func (pg *processGroupCleanup) watchForCancel(cancelCh <-chan struct{}) {
	select {
	case <-cancelCh:
		pg.killProcessGroup()
	case <-pg.done:
	}
}

func (pg *processGroupCleanup) killProcessGroup() {
	process := pg.cmd.Process
	if process == nil {
		return
	}

	pid := process.Pid
	if pid <= 0 {
		debug.Warn("invalid pid, skipping process group kill", "pid", pid)
		return
	}

	pgid := -pid

	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		debug.Warn("SIGTERM failed", "pgid", pgid, "err", err)
	}

	time.Sleep(gracefulShutdownDelay)

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		debug.Warn("SIGKILL failed", "pgid", pgid, "err", err)
	}
}

// Wait waits for the command to complete. Safe to call more than once.
func (pg *processGroupCleanup) Wait() error {
	pg.once.Do(func() {
		pg.err = pg.cmd.Wait()
		close(pg.done)
		if pg.err != nil {
			pg.err = fmt.Errorf("command wait: %w", pg.err)
		}
	})
	return pg.err
}

// exitStatus follows the shell convention of 128+signal for children
// killed by a signal.
func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
