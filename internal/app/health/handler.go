package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onchan/internal/utils"
)

type Handler struct {
	checker *utils.HealthChecker
}

func NewHandler(checker *utils.HealthChecker) *Handler {
	return &Handler{checker: checker}
}

// @Summary Health check
// @Description Report status of the database and cache dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} utils.HealthStatus
// @Router /api/health [get]
func (h *Handler) Check(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
