package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/provider"
	"venuebook/internal/services"
)

// respondError maps an error kind to an HTTP status and a stable code
// string. The app switches on "code"; message text is display-only and
// never pattern-matched.
func respondError(c *gin.Context, err error) {
	type mapping struct {
		kind    error
		status  int
		code    string
		message string
	}
	mappings := []mapping{
		{provider.ErrDuplicateAccount, http.StatusConflict, "duplicate_account", "An account with this email already exists"},
		{provider.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
		// account-not-found is a sign-in failure; keep the response
		// indistinguishable from a wrong password
		{provider.ErrAccountNotFound, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
		{provider.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "A valid session is required"},
		{provider.ErrSessionInvalid, http.StatusUnauthorized, "session_invalid", "The session could not be refreshed, sign in again"},
		{services.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified", "Please verify your email to continue"},
		{services.ErrCodeExpired, http.StatusBadRequest, "code_expired", "The code has expired, request a new one"},
		{services.ErrCodeMismatch, http.StatusBadRequest, "code_mismatch", "The code is not valid"},
		{services.ErrResendThrottled, http.StatusTooManyRequests, "throttle_active", "Please wait before requesting another code"},
	}
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			c.JSON(m.status, gin.H{"code": m.code, "error": m.message})
			return
		}
	}
	log.Printf("[http][err] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "error": "Something went wrong"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
}
