package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"venuebook/internal/provider"
)

const (
	CtxAccessToken = "access_token"
	CtxAuthID      = "auth_id"
	CtxEmail       = "email"
)

// AuthRequired validates the Bearer token against the provider session and
// puts the resolved identity in the request context.
func AuthRequired(prov provider.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "unauthenticated", "error": "Missing or invalid Authorization header",
			})
			return
		}
		pu, err := prov.GetUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "unauthenticated", "error": "Invalid or expired session",
			})
			return
		}
		c.Set(CtxAccessToken, token)
		c.Set(CtxAuthID, pu.ID)
		c.Set(CtxEmail, pu.Email)
		c.Next()
	}
}

// BearerToken extracts the raw token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
