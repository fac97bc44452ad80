package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/middleware"
	"venuebook/internal/models"
	"venuebook/internal/services"
)

type AuthHandler struct {
	auth     *services.AuthService
	sessions *services.SessionService
}

func NewAuthHandler(auth *services.AuthService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// @Summary      Register a new account
// @Description  Creates the account and sends the email verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Registration data"
// @Success      201       {object}  map[string]interface{}
// @Failure      400       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.auth.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created, check your email for the verification code",
		"user":    user,
	})
}

// @Summary      Sign in
// @Description  Authenticates and returns the provider session; refused with code email_not_verified until the email is confirmed
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, user, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"session": sess,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// @Summary      Refresh the session
// @Description  Exchanges the refresh token for a fresh session; the old token is invalidated
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        refresh  body      refreshRequest  true  "Refresh token"
// @Success      200      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.GetHeader("X-Refresh-Token")
	}
	sess, user, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"session": sess,
	})
}

// Logout always succeeds; the local session is cleared even when the
// provider is unreachable.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.SignOut(c.Request.Context(), bearerOrEmpty(c))
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Session runs the bootstrap: persisted tokens in, one CurrentUser (or
// null) out. A rejected refresh token resolves to null, never to an error.
func (h *AuthHandler) Session(c *gin.Context) {
	refresh := c.GetHeader("X-Refresh-Token")
	user, fresh, err := h.sessions.Bootstrap(c.Request.Context(), bearerOrEmpty(c), refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"user": user}
	if fresh != nil {
		resp["session"] = fresh
	}
	c.JSON(http.StatusOK, resp)
}

func bearerOrEmpty(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxAccessToken); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return middleware.BearerToken(c)
}
