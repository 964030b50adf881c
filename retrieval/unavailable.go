package retrieval

import (
	"context"
	"log/slog"
)

// UnavailableBackend is a configured backend that could not be opened.
// It answers every query with no matches.
type UnavailableBackend struct {
	name   string
	cause  error
	logger *slog.Logger
}

var _ Backend = (*UnavailableBackend)(nil)

// Unavailable returns a backend that always returns nothing.
func Unavailable(name string, cause error) *UnavailableBackend {
	if cause == nil {
		cause = ErrUnavailable
	}
	return &UnavailableBackend{
		name:   name,
		cause:  cause,
		logger: slog.Default().With("component", "vector-backend", "backend", name),
	}
}

func (b *UnavailableBackend) Name() string {
	return b.name
}

func (b *UnavailableBackend) Available() bool {
	return false
}

// Cause returns the error that made the backend unavailable.
func (b *UnavailableBackend) Cause() error {
	return b.cause
}

func (b *UnavailableBackend) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	b.logger.Debug("backend unavailable, returning no matches", "cause", b.cause)
	return nil, nil
}
