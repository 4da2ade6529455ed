package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/dto"
	apierrors "github.com/yukikurage/projectdesk/internal/errors"
	"github.com/yukikurage/projectdesk/internal/facade"
	"github.com/yukikurage/projectdesk/internal/middleware"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	facade   *facade.Facade
	identity *services.IdentityService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(f *facade.Facade, identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{
		facade:   f,
		identity: identity,
	}
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Roles     []string    `json:"roles"`
	User      dto.UserDTO `json:"user"`
}

// Register creates an account holding the Member role.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.identity.Register(services.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, c.ClientIP(), middleware.GetRequestID(c))
	if err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user by username or email and issues a token. The
// token is returned and also kept in the browser session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.facade.Authenticator().Login(services.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyToken, result.Token)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.Principal.ExpiresAt,
		Roles:     result.Principal.Roles,
		User:      dto.ToUserDTO(*result.User),
	})
}

// Logout revokes the session token and clears the browser session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.Token(c); token != "" {
		// A stale cookie still gets cleared below.
		if err := h.facade.Authenticator().Logout(token); err != nil && !errors.Is(err, services.ErrMalformedToken) {
			apierrors.RespondServiceError(c, err)
			return
		}
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.facade.Execute(c.Request.Context(), facade.Request{
		Operation:    facade.OpRead,
		EntityType:   models.EntityUser,
		EntityID:     &principal.UserID,
		SessionToken: middleware.Token(c),
		CallerIP:     c.ClientIP(),
		RequestID:    middleware.GetRequestID(c),
	})
	if err != nil {
		apierrors.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       dto.From(result.Data),
		"roles":      principal.Roles,
		"expires_at": principal.ExpiresAt,
	})
}
