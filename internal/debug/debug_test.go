package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogf_Disabled(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf, false)
	defer restore()

	Logf("hidden %d", 1)
	Log("also hidden", "key", "value")

	assert.Empty(t, buf.String())
	assert.False(t, Enabled())
}

func TestLogf_Enabled(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf, true)
	defer restore()

	Logf("invoking %s", "firectl")
	Log("process exited", "exit_code", 3)

	out := buf.String()
	assert.Contains(t, out, "invoking firectl")
	assert.Contains(t, out, "process exited")
	assert.Contains(t, out, "exit_code=3")
	assert.True(t, Enabled())
}

func TestWarn_AlwaysShown(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf, false)
	defer restore()

	Warn("prompt override ignored", "path", "/tmp/x")

	assert.Contains(t, buf.String(), "prompt override ignored")
}
