package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(GetJWTSecret())
	require.NoError(t, err)
	return signed
}

func TestActorFromTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	hotelID := uuid.New()
	signed := signToken(t, jwt.MapClaims{
		"sub":          id.String(),
		"email":        "admin@example.com",
		"full_name":    "Admin",
		"role":         "Admin",
		"hotel":        hotelID.String(),
		"is_superuser": false,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	actor, err := ActorFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, id, actor.ID)
	assert.Equal(t, "admin@example.com", actor.Email)
	assert.Equal(t, "Admin", actor.RoleName)
	require.NotNil(t, actor.HotelID)
	assert.Equal(t, hotelID, *actor.HotelID)
	assert.False(t, actor.IsSuperuser)
}

func TestActorFromTokenRejectsExpired(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, err := ActorFromToken(signed)
	assert.Error(t, err)
}

func TestActorFromTokenRejectsBadSubject(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := ActorFromToken(signed)
	assert.Error(t, err)
}

func TestActorFromTokenRejectsWrongSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, actorErr := ActorFromToken(signed)
	assert.Error(t, actorErr)
}
