package jwt

import (
	"testing"
	"time"

	jwt_lib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-cms/curator/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("secret", time.Hour)

	tokenString, err := svc.NewToken(domain.User{Id: 7, Email: "admin@example.com", Admin: true})
	require.NoError(t, err)

	token, err := svc.DecodeToken(tokenString)
	require.NoError(t, err)

	claims, ok := token.Claims.(jwt_lib.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(7), claims["uid"])
	assert.Equal(t, "admin@example.com", claims["email"])
	assert.Equal(t, true, claims["admin"])
}

func TestDecodeToken(t *testing.T) {
	t.Run("wrong key", func(t *testing.T) {
		tokenString, err := New("secret", time.Hour).NewToken(domain.User{Id: 1})
		require.NoError(t, err)

		_, err = New("other", time.Hour).DecodeToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		svc := New("secret", time.Hour)
		tokenString, err := New("secret", -time.Minute).NewToken(domain.User{Id: 1})
		require.NoError(t, err)

		_, err = svc.DecodeToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := New("secret", time.Hour).DecodeToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		unsigned := jwt_lib.NewWithClaims(jwt_lib.SigningMethodNone, jwt_lib.MapClaims{"uid": 1})
		tokenString, err := unsigned.SignedString(jwt_lib.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = New("secret", time.Hour).DecodeToken(tokenString)
		assert.Error(t, err)
	})
}
