package store

import (
	"context"
	"time"

	"HealthSeva/module/user/model"
)

// ProfileStore persists profiles keyed by identity id.
type ProfileStore interface {
	// Get returns ErrRecordNotFound when the identity has no profile.
	Get(ctx context.Context, id string) (*model.Profile, error)
	// SignIn creates the profile when absent, otherwise only overwrites its
	// role. The stored document is returned.
	SignIn(ctx context.Context, p *model.Profile) (*model.Profile, error)
	Update(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error)
	Count(ctx context.Context) (int64, error)
}

// TokenRegistry tracks issued access tokens by hash.
type TokenRegistry interface {
	Put(ctx context.Context, s *model.UserSession, ttl time.Duration) error
	// Get returns ErrTokenInvalid for unknown, revoked or expired hashes.
	Get(ctx context.Context, hash string) (*model.UserSession, error)
	Revoke(ctx context.Context, hash string) (*model.UserSession, error)
}

// SessionLog keeps the sign-in history.
type SessionLog interface {
	Append(ctx context.Context, s *model.UserSession) error
}
