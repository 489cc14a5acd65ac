package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campus-market/internal/model"
)

func testTokenService() *TokenService {
	return NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 168*time.Hour)
}

func testUser() model.User {
	return model.User{
		ID:       "user-1",
		Name:     "Asha",
		Email:    "asha@campus.edu",
		Role:     model.RoleStudent,
		IsActive: true,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testTokenService()

	raw, err := svc.SignAccess(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := svc.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "asha@campus.edu", claims.Email)
	require.Equal(t, model.RoleStudent, claims.Role)
	require.NotEmpty(t, claims.TokenID)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	svc := testTokenService()

	access, err := svc.SignAccess(testUser())
	require.NoError(t, err)
	refresh, err := svc.SignRefresh(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(access)
	require.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = svc.VerifyAccess(refresh)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	svc := NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", -1*time.Minute, -1*time.Minute)

	raw, err := svc.SignAccess(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(raw)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestWrongSecretIsRejected(t *testing.T) {
	signer := testTokenService()
	other := NewTokenService("a-different-access-secret", "a-different-refresh-secret", 15*time.Minute, 168*time.Hour)

	raw, err := signer.SignAccess(testUser())
	require.NoError(t, err)

	_, err = other.VerifyAccess(raw)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerifyGarbageToken(t *testing.T) {
	svc := testTokenService()

	_, err := svc.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = svc.VerifyRefresh("")
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestHashTokenIsStableAndOpaque(t *testing.T) {
	first := HashToken("some-refresh-token")
	second := HashToken("some-refresh-token")
	other := HashToken("another-refresh-token")

	require.Equal(t, first, second)
	require.NotEqual(t, first, other)
	require.Len(t, first, 64)
	require.NotContains(t, first, "some-refresh-token")
}
