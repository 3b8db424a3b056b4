package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/auth"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate("mel")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "mel", claims.Username)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", -time.Minute)

	token, err := manager.Generate("mel")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	token, err := auth.NewJWTManager("secret-a", time.Hour).Generate("mel")
	require.NoError(t, err)

	_, err = auth.NewJWTManager("secret-b", time.Hour).Validate(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	_, err := manager.Validate("not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
