package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pasarlink/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler handles health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db      Pinger
	appName string
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, appName, version string) *SystemHandler {
	return &SystemHandler{db: db, appName: appName, version: version}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"app":     h.appName,
		"version": h.version,
	})
}

// Ready handles GET /ready, checking downstream dependencies
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeInternal, "Database unreachable"))
			return
		}
	}
	h.Success(c, gin.H{"status": "ready"})
}
