package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tokenintel/internal/intel"
)

// IntelService is the read surface the monitor exposes to the bot layer.
type IntelService interface {
	WhaleReport() string
	DailySummaryText() string
	RecentAlertsText(n int) string
	Diagnostics() intel.Diagnostics
}

// Intel serves the text and diagnostics endpoints.
type Intel struct {
	svc IntelService
}

// NewIntel binds the handlers to a service.
func NewIntel(svc IntelService) *Intel {
	return &Intel{svc: svc}
}

// Whales returns the ranked whale report.
func (h *Intel) Whales(c *gin.Context) {
	c.String(http.StatusOK, h.svc.WhaleReport())
}

// Daily returns the current day's rollup text.
func (h *Intel) Daily(c *gin.Context) {
	c.String(http.StatusOK, h.svc.DailySummaryText())
}

// Alerts returns the last n alert lines, default 10, capped at 100.
func (h *Intel) Alerts(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
		return
	}
	if n > 100 {
		n = 100
	}
	c.String(http.StatusOK, h.svc.RecentAlertsText(n))
}

// Diagnostics returns the machine-readable pipeline snapshot.
func (h *Intel) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Diagnostics())
}
