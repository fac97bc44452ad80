package services

import (
	"fmt"
	"log"
	"time"

	"venuebook/internal/metrics"
	"venuebook/internal/models"
	"venuebook/internal/repositories"
	"venuebook/internal/utils"
)

// Purpose identifies which flow a verification record pertains to.
type Purpose string

const (
	PurposeRegister Purpose = "register" // email confirmation after sign-up
	PurposeLogin    Purpose = "login"    // re-check after sign-in was refused
	PurposeReset    Purpose = "reset"    // password recovery token
)

// PostVerifyAction is what the caller does with the session once a code
// matched. The machine only reports it; routing is the caller's job.
type PostVerifyAction int

const (
	ActionSignOut PostVerifyAction = iota
	ActionKeepSession
)

// One policy table instead of conditionals scattered across call sites.
var postVerify = map[Purpose]PostVerifyAction{
	PurposeRegister: ActionSignOut,
	PurposeLogin:    ActionSignOut,
	PurposeReset:    ActionKeepSession,
}

type VerificationConfig struct {
	CodeTTL        time.Duration
	ResetTokenTTL  time.Duration
	ResendCooldown time.Duration
	AlertAttempts  int
}

// VerificationService is the state machine over the three mirror tables.
// A record is Unverified until a matching code arrives before expiry;
// expiry is derived from the clock, never written back. Issuing always
// supersedes: a new row is inserted and the previous code stops matching.
type VerificationService struct {
	stores map[Purpose]repositories.VerificationStore
	email  repositories.EmailVerificationStore
	resets repositories.PasswordResetStore
	alerts *AlertService
	cfg    VerificationConfig

	now func() time.Time
}

func NewVerificationService(
	emailRepo repositories.EmailVerificationStore,
	otpRepo repositories.VerificationStore,
	resetRepo repositories.PasswordResetStore,
	alerts *AlertService,
	cfg VerificationConfig,
) *VerificationService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = 60 * time.Second
	}
	if cfg.AlertAttempts <= 0 {
		cfg.AlertAttempts = 5
	}
	return &VerificationService{
		stores: map[Purpose]repositories.VerificationStore{
			PurposeRegister: emailRepo,
			PurposeLogin:    otpRepo,
			PurposeReset:    resetRepo,
		},
		email:  emailRepo,
		resets: resetRepo,
		alerts: alerts,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *VerificationService) store(p Purpose) (repositories.VerificationStore, error) {
	st, ok := s.stores[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPurpose, p)
	}
	return st, nil
}

// CanResend is the authoritative throttle check, backed by the persisted
// last-sent timestamp. Any client-side countdown is cosmetic.
func CanResend(lastSent, now time.Time, cooldown time.Duration) bool {
	return !now.Before(lastSent.Add(cooldown))
}

// Issue generates a fresh code for the purpose, stores only its hash and
// returns the raw value for delivery. The durable write completes before
// the code is handed back, so a subsequent Verify reads a consistent
// record. Re-issuing always wins over any prior active code.
func (s *VerificationService) Issue(userID int, purpose Purpose) (string, error) {
	st, err := s.store(purpose)
	if err != nil {
		return "", err
	}
	now := s.now()

	latest, err := st.GetLatestByUserID(userID)
	if err != nil {
		return "", err
	}
	if latest != nil && !CanResend(latest.LastTokenSent, now, s.cfg.ResendCooldown) {
		metrics.Failures.WithLabelValues(string(purpose), "throttled").Inc()
		return "", ErrResendThrottled
	}

	raw, ttl, err := s.generate(purpose, userID, now)
	if err != nil {
		return "", err
	}
	if _, err := st.Create(userID, utils.HashToken(raw), now, now.Add(ttl)); err != nil {
		return "", err
	}
	metrics.CodesIssued.WithLabelValues(string(purpose)).Inc()
	log.Printf("[verify][issue] user_id=%d purpose=%s expires_in=%s", userID, purpose, ttl)
	return raw, nil
}

func (s *VerificationService) generate(purpose Purpose, userID int, now time.Time) (string, time.Duration, error) {
	if purpose == PurposeReset {
		seed, err := utils.NewResetSeed(fmt.Sprintf("user:%d", userID), now)
		return seed, s.cfg.ResetTokenTTL, err
	}
	code, err := utils.GenerateOTP()
	return code, s.cfg.CodeTTL, err
}

// Verify checks the submitted code against the governing record.
// Expiry wins over mismatch: past the deadline even the right code is
// refused. A mismatch increments attempts but never locks the record;
// crossing the review threshold only fires an ops alert. Verifying an
// already verified record is a no-op success.
func (s *VerificationService) Verify(userID int, purpose Purpose, submitted string) (PostVerifyAction, error) {
	st, err := s.store(purpose)
	if err != nil {
		return ActionSignOut, err
	}
	now := s.now()

	rec, err := st.GetLatestByUserID(userID)
	if err != nil {
		return ActionSignOut, err
	}
	if rec == nil {
		metrics.Failures.WithLabelValues(string(purpose), "mismatch").Inc()
		return ActionSignOut, ErrCodeMismatch
	}
	if rec.UsedAt != nil {
		metrics.Failures.WithLabelValues(string(purpose), "expired").Inc()
		return ActionSignOut, ErrCodeExpired
	}
	if rec.Verified {
		// idempotent: the record already reached its terminal state
		return postVerify[purpose], nil
	}
	if now.After(rec.ExpiresAt) {
		metrics.Failures.WithLabelValues(string(purpose), "expired").Inc()
		return ActionSignOut, ErrCodeExpired
	}
	if utils.HashToken(submitted) != rec.TokenHash {
		attempts, incErr := st.IncrementAttempts(rec.ID)
		if incErr != nil {
			return ActionSignOut, incErr
		}
		metrics.Failures.WithLabelValues(string(purpose), "mismatch").Inc()
		if attempts == s.cfg.AlertAttempts {
			s.alerts.RepeatedCodeFailures(fmt.Sprintf("user:%d", userID), string(purpose), attempts)
		}
		return ActionSignOut, ErrCodeMismatch
	}

	if err := st.MarkVerified(rec.ID, now); err != nil {
		return ActionSignOut, err
	}
	if purpose == PurposeLogin {
		// the login re-check proved email ownership; reflect it on the
		// email-verification record so the next sign-in passes the gate
		if err := s.markEmailVerified(userID, now); err != nil {
			log.Printf("[verify][login] sync email_verification failed user_id=%d: %v", userID, err)
		}
	}
	metrics.Verified.WithLabelValues(string(purpose)).Inc()
	log.Printf("[verify][ok] user_id=%d purpose=%s", userID, purpose)
	return postVerify[purpose], nil
}

func (s *VerificationService) markEmailVerified(userID int, now time.Time) error {
	rec, err := s.email.GetLatestByUserID(userID)
	if err != nil {
		return err
	}
	if rec == nil || rec.Verified {
		return nil
	}
	return s.email.MarkVerified(rec.ID, now)
}

// EmailVerified is the sign-in gate: has this user ever confirmed the email.
// A later re-issue does not un-verify it.
func (s *VerificationService) EmailVerified(userID int) (bool, error) {
	return s.email.HasVerified(userID)
}

// Latest returns the governing record for a purpose, or nil.
func (s *VerificationService) Latest(userID int, purpose Purpose) (*models.VerificationRecord, error) {
	st, err := s.store(purpose)
	if err != nil {
		return nil, err
	}
	return st.GetLatestByUserID(userID)
}

// ConsumeReset stamps used_at on the verified reset row once the password
// was actually changed. Consumption is terminal and distinct from expiry.
func (s *VerificationService) ConsumeReset(userID int) error {
	rec, err := s.resets.GetLatestByUserID(userID)
	if err != nil {
		return err
	}
	if rec == nil || !rec.Verified || rec.UsedAt != nil {
		return nil
	}
	return s.resets.MarkUsed(rec.ID, s.now())
}
