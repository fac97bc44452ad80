package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"venuebook/internal/models"
)

// VerificationStore is the shape the verification state machine works
// against; each mirror table implements it over its own columns.
type VerificationStore interface {
	// Create inserts a fresh record superseding any prior active one
	// (every issue is a new row, attempts reset to zero).
	Create(userID int, tokenHash string, sentAt, expiresAt time.Time) (int64, error)
	// GetLatestByUserID returns the governing record: newest by send time.
	GetLatestByUserID(userID int) (*models.VerificationRecord, error)
	IncrementAttempts(id int64) (int, error)
	MarkVerified(id int64, at time.Time) error
}

// EmailVerificationStore adds the sign-in gate query.
type EmailVerificationStore interface {
	VerificationStore
	HasVerified(userID int) (bool, error)
}

// PasswordResetStore adds token consumption.
type PasswordResetStore interface {
	VerificationStore
	MarkUsed(id int64, at time.Time) error
}

type EmailVerificationRepository struct {
	DB *sql.DB
}

func NewEmailVerificationRepository(db *sql.DB) *EmailVerificationRepository {
	return &EmailVerificationRepository{DB: db}
}

func (r *EmailVerificationRepository) Create(userID int, tokenHash string, sentAt, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO email_verification (user_id, token_hash, last_token_sent, expires_at, is_verified, attempts)
		VALUES ($1, $2, $3, $4, FALSE, 0)
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, userID, tokenHash, sentAt, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("email_verification create: %w", err)
	}
	return id, nil
}

func (r *EmailVerificationRepository) GetLatestByUserID(userID int) (*models.VerificationRecord, error) {
	const q = `
		SELECT id, user_id, token_hash, expires_at, is_verified, verified_at, attempts, last_token_sent
		FROM email_verification
		WHERE user_id = $1
		ORDER BY last_token_sent DESC
		LIMIT 1
	`
	var v models.VerificationRecord
	var verifiedAt sql.NullTime
	err := r.DB.QueryRow(q, userID).Scan(
		&v.ID, &v.UserID, &v.TokenHash, &v.ExpiresAt, &v.Verified, &verifiedAt, &v.Attempts, &v.LastTokenSent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("email_verification latest: %w", err)
	}
	if verifiedAt.Valid {
		v.VerifiedAt = &verifiedAt.Time
	}
	return &v, nil
}

func (r *EmailVerificationRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE email_verification
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("email_verification increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *EmailVerificationRepository) MarkVerified(id int64, at time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE email_verification SET is_verified = TRUE, verified_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("email_verification mark verified: %w", err)
	}
	return nil
}

// HasVerified reports whether any record for the user ever reached Verified.
// Sign-in consults this; re-issuing a code later does not un-verify the email.
func (r *EmailVerificationRepository) HasVerified(userID int) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM email_verification WHERE user_id = $1 AND is_verified = TRUE
		)
	`
	var ok bool
	if err := r.DB.QueryRow(q, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("email_verification has verified: %w", err)
	}
	return ok, nil
}
