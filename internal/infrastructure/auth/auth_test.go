package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, h.Compare(hash, "secret1"))
	assert.ErrorIs(t, h.Compare(hash, "secret2"), ErrPasswordMismatch)
	assert.Error(t, h.Compare("not-a-hash", "secret1"))
}

func TestNewBcryptHasher_InvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "school-hub", time.Hour, nil)

	token, err := svc.Issue("u-1", user.RoleParent)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "parent", claims.Role)
	assert.Equal(t, "school-hub", claims.Issuer)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("test-secret", "school-hub", time.Hour, nil)
	token, err := svc.Issue("u-1", user.RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenService("other-secret", "school-hub", time.Hour, nil).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("test-secret", "someone-else", time.Hour, nil).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := timeutil.NewFakeClock(time.Now().UTC())
	svc := NewTokenService("test-secret", "", time.Minute, clock)

	token, err := svc.Issue("u-1", user.RoleTeacher)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
