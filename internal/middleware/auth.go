package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"eventboard/internal/logger"
	"eventboard/internal/models"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// TokenResolver maps a session token to its user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired rejects requests LoadUser could not attach a user to.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error_message": services.MsgUnauthorized})
			return
		}
		c.Next()
	}
}

// LoadUser resolves the request token and sets the user on the context.
// Missing or invalid tokens leave the request anonymous.
func LoadUser(resolver TokenResolver, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c.Request)
		if token != "" {
			user, err := resolver.ResolveToken(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
			case services.IsKind(err, services.KindUnauthenticated):
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("Unknown or revoked token from %s", c.ClientIP()))
			default:
				log.Error("AUTH", fmt.Sprintf("Token lookup failed: %v", err))
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser attached, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// TokenFromRequest reads X-Authorization, falling back to Authorization,
// and strips an optional Bearer prefix.
func TokenFromRequest(r *http.Request) string {
	raw := r.Header.Get("X-Authorization")
	if strings.TrimSpace(raw) == "" {
		raw = r.Header.Get("Authorization")
	}
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}
