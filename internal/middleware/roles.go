package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/repositories"
)

// RequireRoles restricts a route group to the given mirror-table roles.
// Runs after AuthRequired, which resolved the session to an email.
func RequireRoles(users repositories.UserRepository, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		email := c.GetString(CtxEmail)
		user, err := users.GetByEmail(email)
		if err != nil || user == nil || !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "forbidden", "error": "This account cannot perform the operation",
			})
			return
		}
		c.Next()
	}
}
