package ports

import (
	"context"
	"time"
)

// SessionStore persists login sessions. Get returns ErrSessionNotFound for
// unknown or expired sessions.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
