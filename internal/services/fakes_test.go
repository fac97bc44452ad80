package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"venuebook/internal/models"
	"venuebook/internal/provider"
	"venuebook/internal/utils"
)

// --- in-memory verification stores ---

type fakeStore struct {
	rows   []*models.VerificationRecord
	nextID int64
}

func (f *fakeStore) Create(userID int, tokenHash string, sentAt, expiresAt time.Time) (int64, error) {
	f.nextID++
	f.rows = append(f.rows, &models.VerificationRecord{
		ID:            f.nextID,
		UserID:        userID,
		TokenHash:     tokenHash,
		ExpiresAt:     expiresAt,
		LastTokenSent: sentAt,
	})
	return f.nextID, nil
}

func (f *fakeStore) GetLatestByUserID(userID int) (*models.VerificationRecord, error) {
	var latest *models.VerificationRecord
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if latest == nil || r.LastTokenSent.After(latest.LastTokenSent) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) IncrementAttempts(id int64) (int, error) {
	for _, r := range f.rows {
		if r.ID == id {
			r.Attempts++
			return r.Attempts, nil
		}
	}
	return 0, fmt.Errorf("no row %d", id)
}

func (f *fakeStore) MarkVerified(id int64, at time.Time) error {
	for _, r := range f.rows {
		if r.ID == id {
			r.Verified = true
			t := at
			r.VerifiedAt = &t
			return nil
		}
	}
	return fmt.Errorf("no row %d", id)
}

type fakeEmailStore struct{ fakeStore }

func (f *fakeEmailStore) HasVerified(userID int) (bool, error) {
	for _, r := range f.rows {
		if r.UserID == userID && r.Verified {
			return true, nil
		}
	}
	return false, nil
}

type fakeResetStore struct{ fakeStore }

func (f *fakeResetStore) MarkUsed(id int64, at time.Time) error {
	for _, r := range f.rows {
		if r.ID == id {
			if r.UsedAt != nil {
				return fmt.Errorf("token %d already used", id)
			}
			t := at
			r.UsedAt = &t
			return nil
		}
	}
	return fmt.Errorf("no row %d", id)
}

// --- in-memory user repository ---

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []*models.User
	nextID int
}

func (f *fakeUserRepo) Create(u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.Email = strings.ToLower(u.Email)
	cp := *u
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUserRepo) GetByID(id int) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByAuthID(authID string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.AuthID == authID })
}

func (f *fakeUserRepo) UpdatePassword(id int, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("no such user %d", id)
}

func (f *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- fake provider: bcrypt credentials, token -> email session table ---

type fakeProvider struct {
	mu        sync.Mutex
	passwords map[string]string // email -> bcrypt hash
	sessions  map[string]string // access token -> email
	refreshes map[string]string // refresh token -> email, single use
	nextID    int
	signOuts  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		passwords: make(map[string]string),
		sessions:  make(map[string]string),
		refreshes: make(map[string]string),
	}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.passwords[email]; ok {
		return "", provider.ErrDuplicateAccount
	}
	if len(password) < 8 {
		return "", provider.ErrInvalidCredentials
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	p.passwords[email] = string(h)
	p.nextID++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", p.nextID), nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hash, ok := p.passwords[email]
	if !ok {
		return nil, provider.ErrAccountNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, provider.ErrInvalidCredentials
	}
	return p.mint(email)
}

func (p *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, accessToken)
	p.signOuts++
	return nil
}

func (p *fakeProvider) GetUser(ctx context.Context, accessToken string) (*provider.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.sessions[accessToken]
	if !ok {
		return nil, provider.ErrUnauthenticated
	}
	return &provider.User{ID: "prov-" + email, Email: email}, nil
}

func (p *fakeProvider) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.refreshes[refreshToken]
	if !ok {
		return nil, provider.ErrSessionInvalid
	}
	delete(p.refreshes, refreshToken)
	return p.mint(email)
}

func (p *fakeProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.sessions[accessToken]
	if !ok {
		return provider.ErrUnauthenticated
	}
	if len(newPassword) < 8 {
		return provider.ErrInvalidCredentials
	}
	h, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	p.passwords[email] = string(h)
	return nil
}

func (p *fakeProvider) RecoverSession(ctx context.Context, email string) (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.passwords[email]; !ok {
		return nil, provider.ErrAccountNotFound
	}
	return p.mint(email)
}

func (p *fakeProvider) mint(email string) (*models.Session, error) {
	at, err := utils.NewRefreshToken(8)
	if err != nil {
		return nil, err
	}
	p.sessions[at] = email
	p.refreshes["rt-"+at] = email
	return &models.Session{
		AccessToken:  at,
		RefreshToken: "rt-" + at,
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}, nil
}

// --- capturing email service ---

type fakeEmails struct {
	mu     sync.Mutex
	codes  map[string][]string // email -> verification codes, in order
	tokens map[string][]string // email -> reset tokens, in order
}

func newFakeEmails() *fakeEmails {
	return &fakeEmails{codes: make(map[string][]string), tokens: make(map[string][]string)}
}

func (f *fakeEmails) SendVerificationCode(email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = append(f.codes[email], code)
	return nil
}

func (f *fakeEmails) SendPasswordResetToken(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[email] = append(f.tokens[email], token)
	return nil
}

func (f *fakeEmails) lastCode(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.codes[email]); n > 0 {
		return f.codes[email][n-1]
	}
	return ""
}

func (f *fakeEmails) lastToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.tokens[email]); n > 0 {
		return f.tokens[email][n-1]
	}
	return ""
}
