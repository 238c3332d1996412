package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/auth"
	resp "marketplace-api/internal/transport/http/response"
)

func bearer(c *gin.Context) (string, bool) {
	ah := c.GetHeader("Authorization")
	if !strings.HasPrefix(ah, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
	return tok, tok != ""
}

func setClaims(c *gin.Context, cl *auth.Claims) {
	c.Set(KeyUserID, cl.UID)
	c.Set(KeyRole, cl.Role)
}

// AuthJWT requires a valid access token; requireRole is optional.
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous or invalid tokens through unauthenticated.
func OptionalAuth(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := bearer(c); ok {
			if claims, err := j.Parse(tok); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthJWT.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) != role {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
