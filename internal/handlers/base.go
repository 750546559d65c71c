package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"eventboard/internal/logger"
	"eventboard/internal/services"
	"eventboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondError writes the error envelope. Service rule violations keep their
// message; anything else is logged and reported as a generic 500.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	if e, ok := services.AsError(err); ok {
		c.AbortWithStatusJSON(statusFor(e.Kind), gin.H{"error_message": e.Message})
		return
	}

	log.Error("API", fmt.Sprintf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error_message": "Internal server error"})
}

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the body into obj. Unknown fields are rejected by the
// decoder (see router.Setup).
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "json: unknown field") {
		return services.Validation(services.MsgExtraFields)
	}
	if errors.Is(err, io.EOF) {
		return services.Validation("Request body is required")
	}
	return services.Validation("Request body must be a valid JSON object")
}

func pathID(c *gin.Context, msg string) (uint, error) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		return 0, services.Validation(msg)
	}
	return id, nil
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
