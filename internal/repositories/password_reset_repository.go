package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"venuebook/internal/models"
)

type PasswordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) *PasswordResetRepository {
	return &PasswordResetRepository{DB: db}
}

func (r *PasswordResetRepository) Create(userID int, tokenHash string, sentAt, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO password_reset (user_id, reset_token_hash, last_token_sent, expires_at, attempts)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, userID, tokenHash, sentAt, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("password_reset create: %w", err)
	}
	return id, nil
}

func (r *PasswordResetRepository) GetLatestByUserID(userID int) (*models.VerificationRecord, error) {
	const q = `
		SELECT id, user_id, reset_token_hash, expires_at, verified, verified_at, used_at, attempts, last_token_sent
		FROM password_reset
		WHERE user_id = $1
		ORDER BY last_token_sent DESC
		LIMIT 1
	`
	var v models.VerificationRecord
	var verifiedAt, usedAt sql.NullTime
	err := r.DB.QueryRow(q, userID).Scan(
		&v.ID, &v.UserID, &v.TokenHash, &v.ExpiresAt, &v.Verified, &verifiedAt, &usedAt, &v.Attempts, &v.LastTokenSent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("password_reset latest: %w", err)
	}
	if verifiedAt.Valid {
		v.VerifiedAt = &verifiedAt.Time
	}
	if usedAt.Valid {
		v.UsedAt = &usedAt.Time
	}
	return &v, nil
}

func (r *PasswordResetRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE password_reset
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("password_reset increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *PasswordResetRepository) MarkVerified(id int64, at time.Time) error {
	_, err := r.DB.Exec(`UPDATE password_reset SET verified = TRUE, verified_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("password_reset mark verified: %w", err)
	}
	return nil
}

// MarkUsed stamps consumption of the token: the password was actually
// changed. Distinct from expiry and from the verify step.
func (r *PasswordResetRepository) MarkUsed(id int64, at time.Time) error {
	res, err := r.DB.Exec(
		`UPDATE password_reset SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("password_reset mark used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("password_reset mark used: token %d already used", id)
	}
	return nil
}
