package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const otpCharSet = "1234567890"

// GenerateOTP returns a 6-digit zero-padded code from crypto/rand.
func GenerateOTP() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = otpCharSet[int(buf[i])%len(otpCharSet)]
	}
	return string(buf), nil
}

// NewResetSeed builds an opaque reset token from the email, the current time
// and a random component. Two calls with the same inputs never collide.
func NewResetSeed(email string, now time.Time) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	seed := fmt.Sprintf("%s|%d|%s", email, now.UnixNano(), hex.EncodeToString(b))
	return HashToken(seed), nil
}

// HashToken is the at-rest form of every code and reset token. SHA-256 so a
// leaked mirror table resists offline guessing; the raw value is never stored.
func HashToken(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
