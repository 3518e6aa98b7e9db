package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	provider string
	model    string
}

// NewHealthHandler creates a new HealthHandler reporting the configured gateway.
func NewHealthHandler(provider, model string) *HealthHandler {
	return &HealthHandler{provider: provider, model: model}
}

// Liveness handles GET /healthz
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	body := gin.H{"status": "ok", "provider": h.provider}
	if h.model != "" {
		body["model"] = h.model
	}
	c.JSON(http.StatusOK, body)
}
