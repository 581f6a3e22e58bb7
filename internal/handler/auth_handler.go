package handler

import (
	"log/slog"
	"net/http"

	"dealflow/internal/middleware"
	"dealflow/internal/service"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	cookies     middleware.CookieMode
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, cookies middleware.CookieMode, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, logger: logger}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	router.POST("/login", h.Login)
	router.POST("/logout", guard.Session, h.Logout)
	router.GET("/me", guard.Session, h.GetMe)
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Checks the username and password against the roster and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload")
		return
	}

	res, err := h.authService.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.SetTokenCookie(c, h.cookies, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res.TokenResponse))
}

// Logout handles POST /logout
// @Summary      Logout user
// @Description  Ends the current session and clears the token cookie
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.EndSession(c.Request.Context(), middleware.SessionFrom(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	middleware.ClearTokenCookie(c, h.cookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out successfully"}))
}

// GetMe handles GET /me
// @Summary      Get current user
// @Description  Returns the identity of the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=session.User}
// @Failure      401      {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		respondError(c, h.logger, service.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"user":       sess.User,
		"session_id": sess.ID,
		"expires_at": sess.ExpiresAt,
	}))
}
