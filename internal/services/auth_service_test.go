package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/authz"
	"venuebook/internal/models"
	"venuebook/internal/provider"
	"venuebook/internal/session"
)

type authFixture struct {
	auth     *AuthService
	users    *fakeUserRepo
	prov     *fakeProvider
	emails   *fakeEmails
	sessions *session.Store
	machine  *machineFixture
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	fx := &authFixture{
		users:    &fakeUserRepo{},
		prov:     newFakeProvider(),
		emails:   newFakeEmails(),
		sessions: session.NewStore(),
		machine:  newMachine(t),
	}
	fx.auth = NewAuthService(fx.users, fx.machine.svc, fx.prov, fx.emails, fx.sessions)
	return fx
}

func (fx *authFixture) signUp(t *testing.T, email, password, first string) *models.User {
	t.Helper()
	u, err := fx.auth.SignUp(context.Background(), &models.RegisterRequest{
		Email: email, Password: password, FirstName: first,
	})
	require.NoError(t, err)
	return u
}

func TestSignUpThenSignInBlockedUntilVerified(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	assert.Equal(t, authz.RoleCustomer, u.Role)
	assert.NotEmpty(t, u.AuthID)
	assert.NotEmpty(t, fx.emails.lastCode("alice@example.com"), "sign-up must send a code")

	_, _, err := fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	// the refused sign-in must drop the provider session it briefly held
	assert.Equal(t, 1, fx.prov.signOuts)
}

func TestSignUpDuplicate(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	_, err := fx.auth.SignUp(context.Background(), &models.RegisterRequest{
		Email: "alice@example.com", Password: "Abcd123!", FirstName: "Alice",
	})
	assert.ErrorIs(t, err, provider.ErrDuplicateAccount)
}

func TestRegisterVerifyThenSignIn(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	code := fx.emails.lastCode("alice@example.com")

	require.NoError(t, fx.auth.VerifyEmail(context.Background(), "alice@example.com", code))

	sess, cu, err := fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "alice@example.com", cu.Email)
	assert.Equal(t, "Alice", cu.Name)

	got, ok := fx.sessions.Current(sess.AccessToken)
	require.True(t, ok)
	assert.Equal(t, authz.RoleCustomer, got.Role)
}

func TestVerifyExpiredCode(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	code := fx.emails.lastCode("alice@example.com")

	fx.machine.advance(11 * time.Minute)
	err := fx.auth.VerifyEmail(context.Background(), "alice@example.com", code)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestLoginRecheckFlow(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	fx.machine.advance(2 * time.Minute)

	// refused sign-in issues a fresh login re-check code
	_, _, err := fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	require.ErrorIs(t, err, ErrEmailNotVerified)
	recheck := fx.emails.lastCode("alice@example.com")
	require.NotEmpty(t, recheck)

	// the governing record is now the login one; verifying it unblocks sign-in
	require.NoError(t, fx.auth.VerifyEmail(context.Background(), "alice@example.com", recheck))
	_, _, err = fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	assert.NoError(t, err)
}

func TestRefreshRotatesSession(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	code := fx.emails.lastCode("alice@example.com")
	require.NoError(t, fx.auth.VerifyEmail(context.Background(), "alice@example.com", code))
	sess, _, err := fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	require.NoError(t, err)

	next, cu, err := fx.auth.Refresh(context.Background(), sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)
	assert.Equal(t, "alice@example.com", cu.Email)
	assert.Equal(t, "Alice", cu.Name, "mirror row enriches the refreshed identity")

	_, ok := fx.sessions.Current(next.AccessToken)
	assert.True(t, ok)

	// the consumed refresh token is single use
	_, _, err = fx.auth.Refresh(context.Background(), sess.RefreshToken)
	assert.ErrorIs(t, err, provider.ErrSessionInvalid)
}

func TestRefreshWithoutToken(t *testing.T) {
	fx := newAuthFixture(t)
	_, _, err := fx.auth.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, provider.ErrSessionInvalid)
}

func TestSignInUnknownAccount(t *testing.T) {
	fx := newAuthFixture(t)
	_, _, err := fx.auth.SignIn(context.Background(), "ghost@example.com", "whatever1!")
	assert.ErrorIs(t, err, provider.ErrAccountNotFound)
}

func TestAdministratorRefusedOnPublicSignIn(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.signUp(t, "root@example.com", "Abcd123!", "Root")
	fx.users.mu.Lock()
	fx.users.users[u.ID-1].Role = authz.RoleAdministrator
	fx.users.mu.Unlock()

	_, _, err := fx.auth.SignIn(context.Background(), "root@example.com", "Abcd123!")
	assert.ErrorIs(t, err, provider.ErrInvalidCredentials)
}

func TestResendVerificationThrottled(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")

	fx.machine.advance(10 * time.Second)
	err := fx.auth.ResendVerificationEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrResendThrottled)

	fx.machine.advance(60 * time.Second)
	require.NoError(t, fx.auth.ResendVerificationEmail(context.Background(), "alice@example.com"))
	assert.Len(t, fx.emails.codes["alice@example.com"], 2)
}

func TestResendUnknownEmailSucceedsSilently(t *testing.T) {
	fx := newAuthFixture(t)
	assert.NoError(t, fx.auth.ResendVerificationEmail(context.Background(), "ghost@example.com"))
	assert.NoError(t, fx.auth.SendPasswordResetEmail(context.Background(), "ghost@example.com"))
	assert.Empty(t, fx.emails.tokens["ghost@example.com"])
}

func TestPasswordResetRequestThrottled(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")

	require.NoError(t, fx.auth.SendPasswordResetEmail(context.Background(), "alice@example.com"))
	fx.machine.advance(10 * time.Second)
	err := fx.auth.SendPasswordResetEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrResendThrottled)
}

func TestForgotPasswordEndToEnd(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	code := fx.emails.lastCode("alice@example.com")
	require.NoError(t, fx.auth.VerifyEmail(context.Background(), "alice@example.com", code))

	fx.machine.advance(2 * time.Minute)
	require.NoError(t, fx.auth.SendPasswordResetEmail(context.Background(), "alice@example.com"))
	token := fx.emails.lastToken("alice@example.com")
	require.NotEmpty(t, token)

	// the reset verify keeps a session alive for the update call
	sess, err := fx.auth.VerifyPasswordReset(context.Background(), "alice@example.com", token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	_, ok := fx.sessions.Current(sess.AccessToken)
	assert.True(t, ok)

	require.NoError(t, fx.auth.ResetPassword(context.Background(), sess.AccessToken, "NewPass1!"))

	// token consumed, session ended
	rec, err := fx.machine.svc.Latest(1, PurposeReset)
	require.NoError(t, err)
	require.NotNil(t, rec.UsedAt)
	_, ok = fx.sessions.Current(sess.AccessToken)
	assert.False(t, ok)

	_, _, err = fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	assert.ErrorIs(t, err, provider.ErrInvalidCredentials, "old password must stop working")
	_, _, err = fx.auth.SignIn(context.Background(), "alice@example.com", "NewPass1!")
	assert.NoError(t, err)
}

func TestResetPasswordWithoutSession(t *testing.T) {
	fx := newAuthFixture(t)
	err := fx.auth.ResetPassword(context.Background(), "bogus-token", "NewPass1!")
	assert.ErrorIs(t, err, provider.ErrUnauthenticated)
}

func TestSignOutIdempotent(t *testing.T) {
	fx := newAuthFixture(t)
	fx.signUp(t, "alice@example.com", "Abcd123!", "Alice")
	code := fx.emails.lastCode("alice@example.com")
	require.NoError(t, fx.auth.VerifyEmail(context.Background(), "alice@example.com", code))
	sess, _, err := fx.auth.SignIn(context.Background(), "alice@example.com", "Abcd123!")
	require.NoError(t, err)

	fx.auth.SignOut(context.Background(), sess.AccessToken)
	_, ok := fx.sessions.Current(sess.AccessToken)
	assert.False(t, ok)

	// repeating, or signing out an unknown token, never fails
	fx.auth.SignOut(context.Background(), sess.AccessToken)
	fx.auth.SignOut(context.Background(), "never-issued")
}
