package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable completion client for tests and offline
// runs. Responses are returned in order; when the script is exhausted
// the last response repeats. A non-nil Err fails every call.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	// Unconfigured makes Configured() return false, simulating a
	// missing-transport-configuration fatal failure.
	Unconfigured bool

	calls int
}

// Complete returns the next scripted response.
func (m *MockClient) Complete(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "{}", nil
	}
	i := m.calls - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Configured reports the scripted configuration state.
func (m *MockClient) Configured() bool {
	return !m.Unconfigured
}

// Calls returns how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
