package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")

	token, err := verifier.Sign(Identity{UserID: "user-1", Role: RoleOwner}, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, RoleOwner, identity.Role)
}

func TestTokenVerifier_WrongSecret(t *testing.T) {
	token, err := NewTokenVerifier("secret-a").Sign(Identity{UserID: "user-1", Role: RoleTenant}, time.Minute)
	require.NoError(t, err)

	_, err = NewTokenVerifier("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestTokenVerifier_Expired(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")

	token, err := verifier.Sign(Identity{UserID: "user-1", Role: RoleTenant}, -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestTokenVerifier_Garbage(t *testing.T) {
	_, err := NewTokenVerifier("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "user-1", Role: RoleAdmin})
	identity, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", identity.UserID)
	assert.True(t, identity.IsAdmin())
}
