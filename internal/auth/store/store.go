// Package store defines the two mutable resources behind the provider
// engine. Implementations translate their failures into sentinel errors per
// the store boundary contract.
package store

import (
	"context"
	"time"

	"oidcp/internal/auth/models"
)

// SessionStore keeps authorization sessions between the authorization and
// token endpoints.
//
// Consume must serialize the lookup and the issued→exchanged transition so
// that of two concurrent calls with the same code exactly one succeeds; the
// loser observes ErrAlreadyUsed (or ErrNotFound for backends that drop the
// record on first use).
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Consume(ctx context.Context, code string, now time.Time) (*models.Session, error)
}

// UserStore is the peripheral user directory. Save upserts; FindByUID returns
// ErrNotFound for unseen subjects.
type UserStore interface {
	Save(ctx context.Context, user models.User) error
	FindByUID(ctx context.Context, uid string) (models.User, error)
}
