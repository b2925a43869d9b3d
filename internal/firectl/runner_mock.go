package firectl

import (
	"context"
	"sync"

	"github.com/supallama/supallama/internal/process"
)

// MockRunner records invocations and returns canned results.
type MockRunner struct {
	mu sync.Mutex

	InvokeFunc func(ctx context.Context, inv process.Invocation) (*process.Result, error)

	Calls []process.Invocation
}

var _ Runner = (*MockRunner)(nil)

func NewMockRunner() *MockRunner {
	return &MockRunner{Calls: make([]process.Invocation, 0)}
}

func (m *MockRunner) Invoke(ctx context.Context, inv process.Invocation) (*process.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, inv)
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, inv)
	}
	return &process.Result{}, nil
}
