package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/services"
)

type VerifyHandler struct {
	auth *services.AuthService
}

func NewVerifyHandler(auth *services.AuthService) *VerifyHandler {
	return &VerifyHandler{auth: auth}
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary      Confirm email
// @Description  Verifies the submitted code; on success the client signs in fresh
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        verify  body      verifyRequest  true  "Email and code"
// @Success      200     {object}  map[string]string
// @Failure      400     {object}  map[string]string
// @Router       /verify-email [post]
func (h *VerifyHandler) Confirm(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified, please sign in"})
}

func (h *VerifyHandler) Resend(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.ResendVerificationEmail(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}
