package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_TokenRoundTrip(t *testing.T) {
	t.Run("A generated token validates back to its player", func(t *testing.T) {
		// Given: an auth service with a secret
		authService := NewAuthService("test-secret")

		// When: a token is issued and validated
		token, err := authService.GenerateToken("player-1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		playerID, err := authService.ValidateToken(token)

		// Then: the subject round-trips
		require.NoError(t, err)
		assert.Equal(t, "player-1", playerID)
	})

	t.Run("A token signed with another secret is rejected", func(t *testing.T) {
		// Given: two services with different secrets
		issuer := NewAuthService("secret-a")
		verifier := NewAuthService("secret-b")

		token, err := issuer.GenerateToken("player-1")
		require.NoError(t, err)

		// When: the token is validated against the wrong secret
		_, err = verifier.ValidateToken(token)

		// Then: validation fails
		require.Error(t, err)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		// Given: an auth service
		authService := NewAuthService("test-secret")

		// When: a malformed string is validated
		_, err := authService.ValidateToken("not-a-token")

		// Then: validation fails
		require.Error(t, err)
	})
}
