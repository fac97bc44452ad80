package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"venuebook/internal/models"
	"venuebook/internal/repositories"
	"venuebook/internal/utils"
)

const (
	localAccessTTL  = 15 * time.Minute
	localRefreshTTL = 30 * 24 * time.Hour
	minPasswordLen  = 8
)

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Local is the in-process credential store used in dev and tests. Identities
// live in the users mirror table (bcrypt password hashes); sessions are HS256
// JWTs plus opaque refresh tokens held in memory.
type Local struct {
	users  repositories.UserRepository
	secret []byte

	mu      sync.Mutex
	refresh map[string]refreshEntry
}

type refreshEntry struct {
	authID  string
	email   string
	expires time.Time
}

func NewLocal(users repositories.UserRepository, jwtSecret string) *Local {
	return &Local{
		users:   users,
		secret:  []byte(jwtSecret),
		refresh: make(map[string]refreshEntry),
	}
}

func (l *Local) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLen {
		return "", ErrInvalidCredentials
	}
	existing, err := l.users.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrDuplicateAccount
	}
	return uuid.NewString(), nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	u, err := l.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAccountNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) != nil {
		return nil, ErrInvalidCredentials
	}
	return l.mintSession(u.AuthID, u.Email)
}

func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	claims, err := l.parse(accessToken)
	if err != nil {
		return nil // already unusable, nothing to revoke
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for tok, e := range l.refresh {
		if e.authID == claims.Subject {
			delete(l.refresh, tok)
		}
	}
	return nil
}

func (l *Local) GetUser(ctx context.Context, accessToken string) (*User, error) {
	claims, err := l.parse(accessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

func (l *Local) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	l.mu.Lock()
	e, ok := l.refresh[refreshToken]
	if ok {
		delete(l.refresh, refreshToken) // rotate: single use
	}
	l.mu.Unlock()
	if !ok || time.Now().After(e.expires) {
		return nil, ErrSessionInvalid
	}
	return l.mintSession(e.authID, e.email)
}

func (l *Local) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	claims, err := l.parse(accessToken)
	if err != nil {
		return ErrUnauthenticated
	}
	if len(newPassword) < minPasswordLen {
		return ErrInvalidCredentials
	}
	u, err := l.users.GetByAuthID(claims.Subject)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrAccountNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return l.users.UpdatePassword(u.ID, string(hash))
}

func (l *Local) RecoverSession(ctx context.Context, email string) (*models.Session, error) {
	u, err := l.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAccountNotFound
	}
	return l.mintSession(u.AuthID, u.Email)
}

func (l *Local) mintSession(authID, email string) (*models.Session, error) {
	now := time.Now()
	expires := now.Add(localAccessTTL)
	claims := &localClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   authID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, err
	}
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.refresh[rt] = refreshEntry{authID: authID, email: email, expires: now.Add(localRefreshTTL)}
	l.mu.Unlock()

	return &models.Session{AccessToken: access, RefreshToken: rt, ExpiresAt: expires}, nil
}

func (l *Local) parse(accessToken string) (*localClaims, error) {
	claims := &localClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return l.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// HashPassword is used at sign-up to fill the mirror row in local mode.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
