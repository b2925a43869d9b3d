//go:build windows

package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// processGroupCleanup manages process lifecycle on Windows.
// Windows doesn't support Unix process groups, so this only kills the direct process.
type processGroupCleanup struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

func setupProcessGroup(_ *exec.Cmd) {}

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
		if pg.cmd.Process != nil {
			_ = pg.cmd.Process.Kill()
		}
	case <-pg.done:
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

func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
