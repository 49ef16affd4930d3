// Package repository provides session storage for the funnel bounded
// context. Sessions are ephemeral: they live for one visitor traversal
// and expire on TTL, never persisting beyond that.
package repository

import (
	"context"
	"errors"

	"quiz_funnel_backend/internal/funnel/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// SessionStore is the port the funnel service uses to keep session state
// between HTTP requests.
type SessionStore interface {
	// Create stores a fresh session.
	Create(ctx context.Context, session *domain.Session) error

	// Get returns a copy of the session.
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Update applies fn to the session under a per-session lock, so one
	// visitor action at a time mutates the state. When fn returns an
	// error the session is left unchanged. The updated session is
	// returned on success.
	Update(ctx context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id uuid.UUID) error
}
