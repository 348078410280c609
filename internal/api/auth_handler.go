package api

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ParentLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login godoc
// @Summary Back-office login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	h.respond(c, token, user, err)
}

// ParentLogin godoc
// @Summary Parent portal login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body ParentLoginRequest true "Portal credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/parent/login [post]
func (h *AuthHandler) ParentLogin(c *gin.Context) {
	var req ParentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	token, user, err := h.authService.ParentLogin(c.Request.Context(), req.Username, req.Password)
	h.respond(c, token, user, err)
}

func (h *AuthHandler) respond(c *gin.Context, token string, user *domain.User, err error) {
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			_ = c.Error(err)
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
		}
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}
