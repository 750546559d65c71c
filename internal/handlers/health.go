package handlers

import (
	"fmt"
	"net/http"

	"eventboard/internal/db"
	"eventboard/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	conn *gorm.DB
	log  *logger.Logger
}

func NewHealthHandler(conn *gorm.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{conn: conn, log: log}
}

func (h *HealthHandler) Check(c *gin.Context) {
	if err := db.Ping(h.conn); err != nil {
		h.log.Error("HEALTH", fmt.Sprintf("Database ping failed: %v", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
