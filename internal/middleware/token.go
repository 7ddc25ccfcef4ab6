package middleware

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingRole  = errors.New("role not found in token")
)

// Claims are the fields read from identity-service tokens.
type Claims struct {
	Subject string
	Role    string
}

// HasRole reports whether the claims carry one of roles.
func (c Claims) HasRole(roles ...string) bool {
	return slices.Contains(roles, c.Role)
}

// ParseToken verifies an HS256 token and extracts its subject and role.
func ParseToken(tokenString string, secret []byte) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, ok := mapClaims["role"].(string)
	if !ok {
		return Claims{}, ErrMissingRole
	}
	sub, _ := mapClaims["sub"].(string)
	return Claims{Subject: sub, Role: role}, nil
}
