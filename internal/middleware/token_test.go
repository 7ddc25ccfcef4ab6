package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(token(t, secret, jwt.MapClaims{"sub": "u-42", "role": RoleOperator}), secret)
	require.NoError(t, err)
	assert.Equal(t, Claims{Subject: "u-42", Role: RoleOperator}, claims)
	assert.True(t, claims.HasRole(AllRoles...))
	assert.False(t, claims.HasRole(RoleAdmin, RoleManager))

	_, err = ParseToken(token(t, []byte("other"), jwt.MapClaims{"role": RoleAdmin}), secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(token(t, secret, jwt.MapClaims{"sub": "u-1"}), secret)
	assert.ErrorIs(t, err, ErrMissingRole)

	_, err = ParseToken("not-a-jwt", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
