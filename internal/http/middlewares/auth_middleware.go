package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "access_token_cookie"

// Authenticator is satisfied by accounts.Guard.
type Authenticator interface {
	Authenticate(token string) (email string, err error)
}

type AuthMiddleware struct {
	guard Authenticator
}

func NewAuthMiddleware(guard Authenticator) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// RequireAuth accepts the session cookie or a Bearer header. When both are
// sent, either one verifying is enough, so a stale cookie cannot mask a
// valid header.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates := sessionTokens(c)
		if len(candidates) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing session token",
				},
			})
			return
		}

		for _, raw := range candidates {
			email, err := m.guard.Authenticate(raw)
			if err != nil {
				continue
			}

			c.Set(CtxEmail, email)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "unauthorized",
				"message": "Invalid or expired session",
			},
		})
	}
}

// sessionTokens returns the cookie token, then the Bearer token.
func sessionTokens(c *gin.Context) []string {
	var out []string

	if v, err := c.Cookie(SessionCookie); err == nil {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if v := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); v != "" {
			out = append(out, v)
		}
	}

	return out
}

// EmailFromContext returns the identity stored by RequireAuth.
func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
