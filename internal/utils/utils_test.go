package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerificationTokenRoundTrip(t *testing.T) {
	tok, err := NewVerificationToken("secret", " Jane@X.com ", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", tok.Email)

	email, err := ParseVerificationToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", email)
}

func TestVerificationTokenRejects(t *testing.T) {
	good, err := NewVerificationToken("secret", "jane@x.com", time.Hour)
	require.NoError(t, err)
	expired, err := NewVerificationToken("secret", "jane@x.com", -time.Minute)
	require.NoError(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "jane@x.com", "purpose": "session", "exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongPurpose, err := other.SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret":  {"other", good.Token},
		"expired":       {"secret", expired.Token},
		"wrong purpose": {"secret", wrongPurpose},
		"garbage":       {"secret", "not-a-jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerificationToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidVerificationToken)
		})
	}
}

func TestNewVerificationCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestCodeHash(t *testing.T) {
	h, err := HashCode("123456", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CompareCode(h, "123456"))
	assert.False(t, CompareCode(h, "654321"))
}
