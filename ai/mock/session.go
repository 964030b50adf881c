package mock

import (
	"context"
	"sync"
)

type MockSession struct {
	// SendFunc is called by Send if set.
	// If nil, scripted replies are returned in order, then empty strings.
	SendFunc func(ctx context.Context, prompt string) (string, error)

	// SystemPrompt and Credential are recorded by MockProvider.
	SystemPrompt string
	Credential   string

	mu      sync.Mutex
	replies []string
	prompts []string
}

func NewMockSession(replies ...string) *MockSession {
	return &MockSession{replies: replies}
}

func (m *MockSession) Send(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.SendFunc
	var reply string
	if fn == nil && len(m.replies) > 0 {
		reply = m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return reply, nil
}

// Script appends replies to the queue.
func (m *MockSession) Script(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *MockSession) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockSession) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *MockSession) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.replies = nil
	m.SendFunc = nil
}
