package interpret

import (
	"context"

	"github.com/poiesic/oneiro/ai"
)

// send issues one completion call. Session implementations bound the call
// time themselves.
func send(ctx context.Context, session ai.Session, prompt string) (string, error) {
	if session == nil {
		return "", ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return session.Send(ctx, prompt)
}
