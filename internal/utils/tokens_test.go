package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit in code %q", code)
		}
		seen[code] = true
	}
	// uniform over 10^6 values; 50 draws colliding every time means a broken generator
	assert.Greater(t, len(seen), 1)
}

func TestHashTokenDeterministic(t *testing.T) {
	h1 := HashToken("123456")
	h2 := HashToken("123456")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("123457"))
}

func TestNewResetSeedNotRepeatable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s1, err := NewResetSeed("alice@example.com", now)
	require.NoError(t, err)
	s2, err := NewResetSeed("alice@example.com", now)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2, "seed must carry a random component")
	assert.Len(t, s1, 64)
}

func TestNewRefreshToken(t *testing.T) {
	tok, err := NewRefreshToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 64) // 32 bytes hex by default
}
