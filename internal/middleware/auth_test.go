package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("unit-test-secret")

func token(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func router(auth *Auth, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", auth.RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	return r
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth(secret)
	r := router(auth, RoleAdmin, RoleManager)

	tests := []struct {
		name     string
		header   string
		cookie   string
		wantCode int
		wantBody string
	}{
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"bad format", "Token abc", "", http.StatusUnauthorized, ""},
		{"bad signature", "Bearer " + token(t, []byte("other"), jwt.MapClaims{"sub": "u1", "role": RoleAdmin}), "", http.StatusUnauthorized, ""},
		{"no role", "Bearer " + token(t, secret, jwt.MapClaims{"sub": "u1"}), "", http.StatusForbidden, ""},
		{"wrong role", "Bearer " + token(t, secret, jwt.MapClaims{"sub": "u1", "role": RoleOperator}), "", http.StatusForbidden, ""},
		{"header ok", "Bearer " + token(t, secret, jwt.MapClaims{"sub": "u1", "role": RoleManager}), "", http.StatusOK, "u1"},
		{"cookie ok", "", token(t, secret, jwt.MapClaims{"sub": "u2", "role": RoleAdmin}), http.StatusOK, "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireRole_RejectsNonHMAC(t *testing.T) {
	r := router(NewAuth(secret), AllRoles...)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
