package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"venuebook/internal/authz"
	"venuebook/internal/metrics"
	"venuebook/internal/models"
	"venuebook/internal/provider"
	"venuebook/internal/repositories"
	"venuebook/internal/session"
)

// AuthService coordinates the provider, the mirror tables and the
// verification machine. It owns the policy of when each is called; the
// adapter calls themselves never retry.
type AuthService struct {
	users    repositories.UserRepository
	verif    *VerificationService
	prov     provider.Client
	emails   EmailService
	sessions *session.Store
}

func NewAuthService(
	users repositories.UserRepository,
	verif *VerificationService,
	prov provider.Client,
	emails EmailService,
	sessions *session.Store,
) *AuthService {
	return &AuthService{
		users:    users,
		verif:    verif,
		prov:     prov,
		emails:   emails,
		sessions: sessions,
	}
}

// SignUp registers the account with the provider, creates the mirror row
// and issues the first email-verification code. The account stays blocked
// from sign-in until that code is verified.
func (s *AuthService) SignUp(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	authID, err := s.prov.SignUp(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	hash, err := provider.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		AuthID:    authID,
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      authz.RoleCustomer,
		// local provider authenticates against this; hosted mode never reads it
		PasswordHash: hash,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	// the record must be durable before we report success, so the verify
	// call that follows reads a consistent row
	code, err := s.verif.Issue(user.ID, PurposeRegister)
	if err != nil {
		return nil, err
	}
	s.deliverCode(user.Email, PurposeRegister, code)

	log.Printf("[auth][signup] user_id=%d email=%s", user.ID, user.Email)
	return user, nil
}

// SignIn authenticates against the provider, then gates on the
// email-verification record. An unverified account gets its session
// discarded, a fresh login re-check code, and ErrEmailNotVerified so the
// app can route into the verification flow.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, *models.CurrentUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		metrics.SignIns.WithLabelValues("not_found").Inc()
		return nil, nil, provider.ErrAccountNotFound
	}
	if !authz.CanUsePublicSignIn(user.Role) {
		log.Printf("[auth][login] refused role=%s user_id=%d", user.Role, user.ID)
		metrics.SignIns.WithLabelValues("refused_role").Inc()
		return nil, nil, provider.ErrInvalidCredentials
	}

	sess, err := s.prov.SignIn(ctx, email, password)
	if err != nil {
		metrics.SignIns.WithLabelValues("bad_credentials").Inc()
		return nil, nil, err
	}

	verified, err := s.verif.EmailVerified(user.ID)
	if err != nil {
		return nil, nil, err
	}
	if !verified {
		// the credential was right but the email never confirmed: drop
		// the session and push the user into the re-check flow
		_ = s.prov.SignOut(ctx, sess.AccessToken)
		if code, issueErr := s.verif.Issue(user.ID, PurposeLogin); issueErr == nil {
			s.deliverCode(user.Email, PurposeLogin, code)
		} else if !errors.Is(issueErr, ErrResendThrottled) {
			log.Printf("[auth][login] issue re-check code failed user_id=%d: %v", user.ID, issueErr)
		}
		metrics.SignIns.WithLabelValues("unverified").Inc()
		return nil, nil, ErrEmailNotVerified
	}

	cu := currentUser(user)
	s.sessions.Put(sess.AccessToken, cu)
	metrics.SignIns.WithLabelValues("ok").Inc()
	log.Printf("[auth][login] success user_id=%d role=%s", user.ID, user.Role)
	return sess, &cu, nil
}

// Refresh exchanges a refresh token for a fresh session. Unlike the
// bootstrap path this surfaces a rejected token as an error; the client
// asked for a refresh explicitly and needs to know it failed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.CurrentUser, error) {
	if refreshToken == "" {
		return nil, nil, provider.ErrSessionInvalid
	}
	sess, err := s.prov.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	pu, err := s.prov.GetUser(ctx, sess.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	cu := models.CurrentUser{ProviderID: pu.ID, Email: strings.ToLower(pu.Email)}
	if user, err := s.users.GetByEmail(cu.Email); err == nil && user != nil {
		cu = currentUser(user)
	}
	s.sessions.Put(sess.AccessToken, cu)
	return sess, &cu, nil
}

// SignOut is idempotent and never fails the caller: the local session is
// cleared even when the provider call does not go through.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) {
	s.sessions.Delete(accessToken)
	_ = s.prov.SignOut(ctx, accessToken)
}

// VerifyEmail resolves the submitted code against whichever of the
// register/login purposes issued most recently, applies the machine's
// post-verify action (sign-out for both), and leaves the user to log in
// fresh.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrCodeMismatch // no record can match a non-account
	}
	purpose, err := s.verifyPurpose(user.ID)
	if err != nil {
		return err
	}
	if _, err := s.verif.Verify(user.ID, purpose, code); err != nil {
		return err
	}
	return nil
}

// ResendVerificationEmail re-issues the governing register/login code.
// Unknown emails succeed silently; the throttle is enforced against the
// persisted last-sent timestamp.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("[auth][resend] no account for %q", email)
		return nil
	}
	purpose, err := s.verifyPurpose(user.ID)
	if err != nil {
		return err
	}
	code, err := s.verif.Issue(user.ID, purpose)
	if err != nil {
		return err
	}
	s.deliverCode(user.Email, purpose, code)
	return nil
}

// SendPasswordResetEmail issues a reset token. The response never reveals
// whether the address is registered.
func (s *AuthService) SendPasswordResetEmail(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("[auth][reset-request] no account for %q", email)
		return nil
	}
	token, err := s.verif.Issue(user.ID, PurposeReset)
	if err != nil {
		return err
	}
	if s.emails != nil {
		if err := s.emails.SendPasswordResetToken(user.Email, token); err != nil {
			log.Printf("[auth][reset-request] send failed to %s: %v", user.Email, err)
		}
	}
	return nil
}

// ResendPasswordResetEmail is the same operation; the cooldown check in
// Issue is what separates a resend from spam.
func (s *AuthService) ResendPasswordResetEmail(ctx context.Context, email string) error {
	return s.SendPasswordResetEmail(ctx, email)
}

// VerifyPasswordReset checks the reset token and, unlike the other flows,
// keeps a session alive: the subsequent password update needs one.
func (s *AuthService) VerifyPasswordReset(ctx context.Context, email, token string) (*models.Session, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrCodeMismatch
	}
	action, err := s.verif.Verify(user.ID, PurposeReset, token)
	if err != nil {
		return nil, err
	}
	if action != ActionKeepSession {
		return nil, nil
	}
	sess, err := s.prov.RecoverSession(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(sess.AccessToken, currentUser(user))
	return sess, nil
}

// ResetPassword updates the password through the provider (which requires
// the recovered session), consumes the reset token, and ends the session
// so the user signs in with the new credential.
func (s *AuthService) ResetPassword(ctx context.Context, accessToken, newPassword string) error {
	pu, err := s.prov.GetUser(ctx, accessToken)
	if err != nil {
		return provider.ErrUnauthenticated
	}
	if err := s.prov.UpdatePassword(ctx, accessToken, newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(strings.ToLower(pu.Email))
	if err == nil && user != nil {
		if err := s.verif.ConsumeReset(user.ID); err != nil {
			log.Printf("[auth][reset] mark used failed user_id=%d: %v", user.ID, err)
		}
	}

	s.SignOut(ctx, accessToken)
	log.Printf("[auth][reset] password updated for %s", pu.Email)
	return nil
}

// verifyPurpose picks which record governs a submitted code: the most
// recently issued of the register/login purposes.
func (s *AuthService) verifyPurpose(userID int) (Purpose, error) {
	reg, err := s.verif.Latest(userID, PurposeRegister)
	if err != nil {
		return PurposeRegister, err
	}
	login, err := s.verif.Latest(userID, PurposeLogin)
	if err != nil {
		return PurposeRegister, err
	}
	if login != nil && (reg == nil || login.LastTokenSent.After(reg.LastTokenSent)) {
		return PurposeLogin, nil
	}
	return PurposeRegister, nil
}

func (s *AuthService) deliverCode(email string, purpose Purpose, code string) {
	if s.emails == nil {
		return
	}
	if err := s.emails.SendVerificationCode(email, code); err != nil {
		// the record is already durable; delivery failure is not fatal,
		// the user can hit resend
		log.Printf("[auth][%s] send code failed to %s: %v", purpose, email, err)
	}
}

func currentUser(u *models.User) models.CurrentUser {
	return models.CurrentUser{
		ProviderID: u.AuthID,
		Email:      u.Email,
		Name:       strings.TrimSpace(u.FirstName + " " + u.LastName),
		Role:       u.Role,
	}
}
