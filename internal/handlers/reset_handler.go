package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/middleware"
	"venuebook/internal/services"
)

type ResetHandler struct {
	auth *services.AuthService
}

func NewResetHandler(auth *services.AuthService) *ResetHandler {
	return &ResetHandler{auth: auth}
}

type resetUpdateRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// Request sends a reset token. The response is the same whether or not the
// address is registered.
func (h *ResetHandler) Request(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.SendPasswordResetEmail(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a reset email is on its way"})
}

func (h *ResetHandler) Resend(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ResendPasswordResetEmail(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a reset email is on its way"})
}

// @Summary      Verify reset token
// @Description  Checks the emailed token and returns a recovered session for the password update
// @Tags         PasswordReset
// @Accept       json
// @Produce      json
// @Param        verify  body      verifyRequest  true  "Email and token"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Router       /password-reset/verify [post]
func (h *ResetHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.auth.VerifyPasswordReset(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	// the session stays alive here: the update call below requires it
	c.JSON(http.StatusOK, gin.H{
		"message": "Token verified",
		"session": sess,
	})
}

// Update changes the password. Requires the recovered session from Verify.
func (h *ResetHandler) Update(c *gin.Context) {
	var req resetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, _ := c.Get(middleware.CtxAccessToken)
	accessToken, _ := token.(string)
	if err := h.auth.ResetPassword(c.Request.Context(), accessToken, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please sign in"})
}
