package models

import "time"

// VerificationRecord is one issued code or reset token. Each issue inserts a
// new row; the newest row by last_token_sent governs, older rows stay as an
// audit trail. Only the SHA-256 hash of the code is ever stored.
//
// The same shape backs all three mirror tables (email_verification, otp,
// password_reset); UsedAt is populated for password_reset rows only, where
// consumption is distinct from expiry.
type VerificationRecord struct {
	ID            int64      `json:"id"`
	UserID        int        `json:"user_id"`
	TokenHash     string     `json:"-"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Verified      bool       `json:"verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	Attempts      int        `json:"attempts"`
	LastTokenSent time.Time  `json:"last_token_sent"`
}

// Active reports whether the record still accepts verification attempts.
func (v *VerificationRecord) Active(now time.Time) bool {
	return v != nil && !v.Verified && v.UsedAt == nil && now.Before(v.ExpiresAt)
}
