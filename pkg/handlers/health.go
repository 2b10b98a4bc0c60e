package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// HealthCheck reports liveness and the number of projects held in memory.
func (h *Handlers) HealthCheck(c *gin.Context) {
	live := h.Manager.Len()
	log.Debugf("HealthCheck: %d live projects", live)
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  "Video Studio API is running",
		"projects": live,
	})
}
