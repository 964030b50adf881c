package interpret

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/oneiro/ai"
)

// SessionPair is the two conversational sessions bound to one credential.
type SessionPair struct {
	Rewrite   ai.Session // decomposes narratives into sub-queries
	Interpret ai.Session // arbitrates candidates and writes the summary
}

// SessionPool hands out session pairs round-robin.
//
// Assignment is per job, not per request: every call a job makes goes to
// the same pair, so one job's follow-up prompts never land in another job's
// conversation history.
type SessionPool struct {
	pairs   []SessionPair
	counter atomic.Uint64
}

// NewSessionPool creates a pool over pairs.
func NewSessionPool(pairs ...SessionPair) *SessionPool {
	return &SessionPool{pairs: pairs}
}

// OpenSessionPool creates one session pair per credential. Credentials whose
// sessions cannot be created are logged and skipped; ErrNoSessionPairs is
// returned if none succeed.
func OpenSessionPool(ctx context.Context, factory ai.SessionFactory, credentials []string) (*SessionPool, error) {
	logger := slog.Default().With("component", "session-pool")

	var pairs []SessionPair
	for i, credential := range credentials {
		rewrite, err := factory.NewSession(ctx, RewriteSystemPrompt, credential)
		if err != nil {
			logger.Error("error creating rewrite session", "credential", i+1, "err", err)
			continue
		}
		interpret, err := factory.NewSession(ctx, InterpretSystemPrompt, credential)
		if err != nil {
			logger.Error("error creating interpret session", "credential", i+1, "err", err)
			continue
		}
		pairs = append(pairs, SessionPair{Rewrite: rewrite, Interpret: interpret})
	}

	if len(pairs) == 0 {
		return nil, ErrNoSessionPairs
	}
	logger.Info("session pool ready", "pairs", len(pairs), "credentials", len(credentials))
	return NewSessionPool(pairs...), nil
}

// NextPair returns the next pair in rotation and its index. ok is false when
// the pool is empty.
func (p *SessionPool) NextPair() (index int, pair SessionPair, ok bool) {
	if p == nil || len(p.pairs) == 0 {
		return 0, SessionPair{}, false
	}
	index = int((p.counter.Add(1) - 1) % uint64(len(p.pairs)))
	return index, p.pairs[index], true
}

// Len returns the number of pairs in the pool.
func (p *SessionPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}
