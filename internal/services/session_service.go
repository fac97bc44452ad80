package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"venuebook/internal/models"
	"venuebook/internal/provider"
	"venuebook/internal/repositories"
	"venuebook/internal/session"
)

// SessionService reconciles a persisted session with the provider's live
// session and the mirror role record into one CurrentUser value.
type SessionService struct {
	users    repositories.UserRepository
	prov     provider.Client
	sessions *session.Store
}

func NewSessionService(users repositories.UserRepository, prov provider.Client, sessions *session.Store) *SessionService {
	return &SessionService{users: users, prov: prov, sessions: sessions}
}

// Bootstrap resolves the persisted tokens to a CurrentUser or to nothing.
// An unusable refresh token is absorbed: local sign-out, nil user, no
// error, so a stale session can never wedge the app in an auth loop.
// When the access token had to be refreshed the fresh session is returned
// for the client to persist.
func (s *SessionService) Bootstrap(ctx context.Context, accessToken, refreshToken string) (*models.CurrentUser, *models.Session, error) {
	s.sessions.SetLoading(true)
	defer s.sessions.SetLoading(false)

	if accessToken == "" && refreshToken == "" {
		log.Printf("[session][bootstrap] no persisted session")
		return nil, nil, nil
	}

	var fresh *models.Session
	pu, err := s.prov.GetUser(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, provider.ErrUnauthenticated) {
			return nil, nil, err
		}
		if refreshToken == "" {
			s.forceLocalSignOut(accessToken, "stale access token, no refresh token")
			return nil, nil, nil
		}
		fresh, err = s.prov.RefreshSession(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, provider.ErrSessionInvalid) || errors.Is(err, provider.ErrUnauthenticated) {
				s.forceLocalSignOut(accessToken, "refresh token rejected")
				return nil, nil, nil
			}
			return nil, nil, err
		}
		pu, err = s.prov.GetUser(ctx, fresh.AccessToken)
		if err != nil {
			s.forceLocalSignOut(accessToken, "refreshed session still unusable")
			return nil, nil, nil
		}
		accessToken = fresh.AccessToken
	}

	cu := models.CurrentUser{ProviderID: pu.ID, Email: strings.ToLower(pu.Email)}
	user, err := s.users.GetByEmail(cu.Email)
	if err != nil {
		return nil, nil, err
	}
	if user != nil {
		cu = currentUser(user)
	} else {
		// no mirror row yet: a new or partially provisioned account is a
		// valid outcome, not an error
		log.Printf("[session][bootstrap] no mirror row for %s", cu.Email)
	}

	s.sessions.Put(accessToken, cu)
	log.Printf("[session][bootstrap] resolved %s role=%q", cu.Email, cu.Role)
	return &cu, fresh, nil
}

func (s *SessionService) forceLocalSignOut(accessToken, reason string) {
	log.Printf("[session][bootstrap] forced sign-out: %s", reason)
	s.sessions.Delete(accessToken)
}
