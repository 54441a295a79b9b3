package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// SessionManager owns the authenticated operator session.
type SessionManager interface {
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	Logout(ctx context.Context) error
	Current() (models.StoredSession, bool)
}

type sessionResponse struct {
	User      models.User `json:"user"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// AuthHandler exposes login, logout and the current session.
type AuthHandler struct {
	sessions SessionManager
	logger   *zap.Logger
}

// NewAuthHandler constructs the auth HTTP adapter.
func NewAuthHandler(sessions SessionManager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, logger: logger}
}

// Login opens the operator session.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		renderError(c, h.logger, bindError(err))
		return
	}
	if _, err := h.sessions.Login(c.Request.Context(), creds); err != nil {
		renderError(c, h.logger, err)
		return
	}
	h.Session(c)
}

// Logout closes the operator session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		renderError(c, h.logger, apperror.NewInternal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Session returns the authenticated operator.
func (h *AuthHandler) Session(c *gin.Context) {
	current, ok := h.sessions.Current()
	if !ok {
		renderError(c, h.logger, apperror.NewUnauthorized("not logged in"))
		return
	}
	resp := sessionResponse{User: current.User}
	if !current.ExpiresAt.IsZero() {
		resp.ExpiresAt = &current.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// RequireSession rejects requests made while no operator is logged in.
func RequireSession(sessions SessionManager, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if _, ok := sessions.Current(); !ok {
			renderError(c, logger, apperror.NewUnauthorized("not logged in"))
			return
		}
		c.Next()
	}
}
