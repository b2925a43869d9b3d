// Package timing records elapsed-time checkpoints for a single command run.
package timing

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu        sync.Mutex
	enabled   = os.Getenv("SUPALLAMA_DEBUG_TIMING") == "1"
	out       io.Writer = os.Stderr
	startTime = time.Now()
	lastTime  = startTime
)

// Log writes a checkpoint if SUPALLAMA_DEBUG_TIMING=1
func Log(label string) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	now := time.Now()
	sinceLast := now.Sub(lastTime)
	sinceStart := now.Sub(startTime)
	_, _ = fmt.Fprintf(out, "[TIMING] %s: +%dms (total: %dms)\n", label, sinceLast.Milliseconds(), sinceStart.Milliseconds())
	lastTime = now
}

// Capture enables checkpoints into w and restarts the clock. The returned
// function restores the previous state. Intended for tests.
func Capture(w io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prevEnabled, prevOut, prevStart, prevLast := enabled, out, startTime, lastTime
	enabled, out = true, w
	startTime = time.Now()
	lastTime = startTime
	return func() {
		mu.Lock()
		defer mu.Unlock()
		enabled, out, startTime, lastTime = prevEnabled, prevOut, prevStart, prevLast
	}
}
