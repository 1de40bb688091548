package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)

	_, err = NewPasetoService(testKey)
	assert.NoError(t, err)
}

func TestPasetoService_RoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "ada@example.com", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestPasetoService_Rejects(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "a@x.com", time.Hour)
	require.NoError(t, err)

	t.Run("tampered", func(t *testing.T) {
		i := len("v4.local.") + 10
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		_, err := svc.VerifyToken(token[:i] + string(replacement) + token[i+1:])
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewPasetoService([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		_, err = other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		t.Cleanup(func() { svc.now = time.Now })

		_, err := svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTService_SecretLength(t *testing.T) {
	_, err := NewJWTService([]byte("too-short"))
	assert.Error(t, err)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService(testKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "ada@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestJWTService_Rejects(t *testing.T) {
	svc, err := NewJWTService(testKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "a@x.com", time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService([]byte("ffffffffffffffffffffffffffffffff"))
		require.NoError(t, err)
		_, err = other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		t.Cleanup(func() { svc.now = time.Now })

		_, err := svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID: uuid.NewString(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.VerifyToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
			RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
			UserID:           uuid.NewString(),
		}).SignedString(testKey)
		require.NoError(t, err)

		_, err = svc.VerifyToken(noExp)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
