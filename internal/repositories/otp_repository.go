package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"venuebook/internal/models"
)

// OTPRepository backs the login re-check purpose: codes issued when a
// sign-in was refused for an unverified email.
type OTPRepository struct {
	DB *sql.DB
}

func NewOTPRepository(db *sql.DB) *OTPRepository {
	return &OTPRepository{DB: db}
}

func (r *OTPRepository) Create(userID int, codeHash string, sentAt, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO otp (user_id, otp_code_hash, last_otp_sent, otp_expiry, verified, otp_attempts)
		VALUES ($1, $2, $3, $4, FALSE, 0)
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, userID, codeHash, sentAt, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("otp create: %w", err)
	}
	return id, nil
}

func (r *OTPRepository) GetLatestByUserID(userID int) (*models.VerificationRecord, error) {
	const q = `
		SELECT id, user_id, otp_code_hash, otp_expiry, verified, verified_at, otp_attempts, last_otp_sent
		FROM otp
		WHERE user_id = $1
		ORDER BY last_otp_sent DESC
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
		return nil, fmt.Errorf("otp latest: %w", err)
	}
	if verifiedAt.Valid {
		v.VerifiedAt = &verifiedAt.Time
	}
	return &v, nil
}

func (r *OTPRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE otp
		SET otp_attempts = otp_attempts + 1
		WHERE id = $1
		RETURNING otp_attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("otp increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *OTPRepository) MarkVerified(id int64, at time.Time) error {
	_, err := r.DB.Exec(`UPDATE otp SET verified = TRUE, verified_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("otp mark verified: %w", err)
	}
	return nil
}
