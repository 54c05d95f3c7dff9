package jwt

import (
	"testing"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewJWTService()
	userID := uuid.NewString()

	token := service.GenerateTokenUser(userID)
	require.NotEmpty(t, token)

	got, err := service.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenRejectsGarbage(t *testing.T) {
	service := NewJWTService()

	_, err := service.GetUserIDByToken("not.a.token")
	assert.Error(t, err)

	_, err = service.GetUserIDByToken("")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
