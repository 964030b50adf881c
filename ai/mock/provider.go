package mock

import (
	"context"
	"sync"

	"github.com/poiesic/oneiro/ai"
)

// MockProvider implements ai.SessionFactory and ai.EmbedderFactory.
type MockProvider struct {
	// NewSessionFunc is called by NewSession if set.
	NewSessionFunc func(ctx context.Context, systemPrompt, credential string) (ai.Session, error)

	// NewEmbedderFunc is called by NewEmbedder if set.
	NewEmbedderFunc func(model string) (ai.Embedder, error)

	mu        sync.Mutex
	sessions  []*MockSession
	embedders map[string]*MockEmbedder
}

var (
	_ ai.SessionFactory  = (*MockProvider)(nil)
	_ ai.EmbedderFactory = (*MockProvider)(nil)
)

func NewMockProvider() *MockProvider {
	return &MockProvider{embedders: make(map[string]*MockEmbedder)}
}

func (p *MockProvider) NewSession(ctx context.Context, systemPrompt, credential string) (ai.Session, error) {
	if p.NewSessionFunc != nil {
		return p.NewSessionFunc(ctx, systemPrompt, credential)
	}
	if credential == "" {
		return nil, ai.ErrCredentialRequired
	}

	s := NewMockSession()
	s.SystemPrompt = systemPrompt
	s.Credential = credential

	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.mu.Unlock()
	return s, nil
}

func (p *MockProvider) NewEmbedder(model string) (ai.Embedder, error) {
	if p.NewEmbedderFunc != nil {
		return p.NewEmbedderFunc(model)
	}
	return p.GetMockEmbedder(model), nil
}

// Sessions returns every session created so far, in creation order.
func (p *MockProvider) Sessions() []*MockSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*MockSession(nil), p.sessions...)
}

// GetMockEmbedder returns the embedder for model, creating it on first use.
func (p *MockProvider) GetMockEmbedder(model string) *MockEmbedder {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.embedders[model]
	if !ok {
		e = NewMockEmbedder()
		p.embedders[model] = e
	}
	return e
}

func (p *MockProvider) Close() error {
	return nil
}
