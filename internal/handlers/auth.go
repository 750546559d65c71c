package handlers

import (
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *services.UserService
	log   *logger.Logger
}

func NewAuthHandler(users *services.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// Register handles POST /users.
func (h *AuthHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		RespondError(c, h.log, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":    user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"created_at": user.CreatedAt,
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var in services.LoginInput
	if err := bindJSON(c, &in); err != nil {
		RespondError(c, h.log, err)
		return
	}

	user, err := h.users.Login(c.Request.Context(), in)
	if err != nil {
		if services.IsKind(err, services.KindValidation) {
			h.log.LogSecurity("LOGIN_FAILED", c.ClientIP())
		}
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"session_token": *user.SessionToken,
	})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.users.Logout(c.Request.Context(), user); err != nil {
		RespondError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Successfully logged out")
}
