package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohakume/livegate/internal/domain"
)

func testCodec() *Codec {
	return NewCodec("test-secret", 30*24*time.Hour, 7*24*time.Hour, 24*time.Hour)
}

func TestMintAccess_RoundTrip(t *testing.T) {
	c := testCodec()

	signed, expiresAt, err := c.MintAccess(42, 7, "fan@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := c.VerifyAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.PurchaseID)
	assert.Equal(t, int64(7), claims.EventID)
	assert.Equal(t, "fan@example.com", claims.Email)

	// The returned expiry and the encoded claim are the same instant,
	// modulo the one-second resolution of the exp claim.
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, time.Minute)
}

func TestVerifyAccess_Expired(t *testing.T) {
	c := testCodec()

	signed, _, err := c.MintAccess(1, 1, "fan@example.com")
	require.NoError(t, err)

	future := c.WithClock(func() time.Time {
		return time.Now().Add(31 * 24 * time.Hour)
	})

	_, err = future.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccess_ExpiryBoundary(t *testing.T) {
	mintedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 30 * 24 * time.Hour

	c := testCodec().WithClock(func() time.Time { return mintedAt })

	signed, expiresAt, err := c.MintAccess(42, 7, "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, mintedAt.Add(ttl), expiresAt)

	// One second shy of the encoded expiry the token still verifies.
	early := c.WithClock(func() time.Time { return expiresAt.Add(-time.Second) })
	_, err = early.VerifyAccess(signed)
	assert.NoError(t, err)

	// One second past it the token is rejected as expired, not invalid.
	late := c.WithClock(func() time.Time { return expiresAt.Add(time.Second) })
	_, err = late.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	c := testCodec()
	other := NewCodec("other-secret", 30*24*time.Hour, 7*24*time.Hour, 24*time.Hour)

	signed, _, err := c.MintAccess(1, 1, "fan@example.com")
	require.NoError(t, err)

	_, err = other.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_Garbage(t *testing.T) {
	c := testCodec()

	_, err := c.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopes_DoNotCross(t *testing.T) {
	c := testCodec()

	accessTok, _, err := c.MintAccess(1, 1, "fan@example.com")
	require.NoError(t, err)

	userTok, err := c.MintUserSession(9, "fan@example.com")
	require.NoError(t, err)

	adminTok, err := c.MintAdminSession(&domain.Admin{
		ID:   3,
		Role: domain.RoleSuperAdmin,
	})
	require.NoError(t, err)

	// A session token is not an access token and vice versa, even though
	// all three families share the signing secret.
	_, err = c.VerifyAccess(userTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyAccess(adminTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyUserSession(accessTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyAdminSession(userTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	resetTok, err := c.MintPasswordReset(9, "fan@example.com")
	require.NoError(t, err)

	_, err = c.VerifyUserSession(resetTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyPasswordReset(userTok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	c := testCodec()

	signed, err := c.MintPasswordReset(9, "fan@example.com")
	require.NoError(t, err)

	claims, err := c.VerifyPasswordReset(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "fan@example.com", claims.Email)

	// Reset tokens live one hour, not thirty days.
	stale := c.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = stale.VerifyPasswordReset(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionRoundTrip(t *testing.T) {
	c := testCodec()

	userTok, err := c.MintUserSession(9, "fan@example.com")
	require.NoError(t, err)

	userClaims, err := c.VerifyUserSession(userTok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), userClaims.UserID)
	assert.Equal(t, "fan@example.com", userClaims.Email)

	artistID := int64(5)
	adminTok, err := c.MintAdminSession(&domain.Admin{
		ID:       3,
		Role:     domain.RoleArtistAdmin,
		ArtistID: &artistID,
	})
	require.NoError(t, err)

	adminClaims, err := c.VerifyAdminSession(adminTok)
	require.NoError(t, err)
	assert.Equal(t, int64(3), adminClaims.AdminID)
	assert.Equal(t, domain.RoleArtistAdmin, adminClaims.Role)
	require.NotNil(t, adminClaims.ArtistID)
	assert.Equal(t, artistID, *adminClaims.ArtistID)
}
