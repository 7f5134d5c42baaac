package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue(42, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, 42, id)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue(1, false)
	require.NoError(t, err)

	other := NewTokenService("rotated", time.Hour)
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewTokenService("secret", -time.Minute)
	token, err := svc.Issue(1, false)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	_, err := svc.Verify("not.a.token")
	require.Error(t, err)
}

func TestClaimsUserIDInvalid(t *testing.T) {
	c := Claims{}
	c.Subject = "zero"
	_, err := c.UserID()
	require.Error(t, err)

	c.Subject = "0"
	_, err = c.UserID()
	require.Error(t, err)
}
