package middleware

import (
	"errors"
	"net/http"
	"strings"

	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"

	// SystemActor is recorded in audit logs for unattended jobs.
	SystemActor = "system"

	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// AllRoles may read and move equipment.
var AllRoles = []string{RoleAdmin, RoleManager, RoleOperator}

// Auth verifies HS256 tokens issued by the identity service.
type Auth struct {
	secret []byte
}

func NewAuth(secret []byte) *Auth {
	return &Auth{secret: secret}
}

func (a *Auth) Secret() []byte { return a.secret }

// RequireRole Middleware validates the JWT token and checks if the user's role exists in the allowedRoles list
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		claims, err := ParseToken(tokenString, a.secret)
		switch {
		case errors.Is(err, ErrMissingRole):
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		if !claims.HasRole(allowedRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

// Actor returns the authenticated subject, used as the audit-log actor.
func Actor(c *gin.Context) string {
	if sub := c.GetString(ctxUserID); sub != "" {
		return sub
	}
	return "anonymous"
}
