package userctx

import (
	"context"

	"github.com/nkiryanov/bookadmin/internal/session"
)

type ctxKey string

const sessionKey ctxKey = "session"

// Create a new context with the session snapshot the request was let in with
func New(ctx context.Context, s session.Snapshot) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Extract the session snapshot from the context
func FromContext(ctx context.Context) (session.Snapshot, bool) {
	s, ok := ctx.Value(sessionKey).(session.Snapshot)
	return s, ok
}
