// Package provider is the boundary to the external auth provider: session
// issuance, password updates, sign-out. The policy of when to call it lives
// in the services layer; nothing here retries.
package provider

import (
	"context"
	"errors"

	"venuebook/internal/models"
)

var (
	ErrDuplicateAccount   = errors.New("account already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnauthenticated    = errors.New("no valid session")
	ErrSessionInvalid     = errors.New("session refresh token invalid or expired")
)

// User is the provider's view of an identity. The mirror row in the users
// table carries the rest (name, role).
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Client interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// SignOut is best effort: a transport failure must not fail the caller,
	// the local session is cleared regardless.
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	// RecoverSession mints a session without a password, used after a
	// password-reset code was verified so UpdatePassword can run.
	RecoverSession(ctx context.Context, email string) (*models.Session, error)
}
