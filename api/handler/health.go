package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scorecard/models"
)

// StatsProvider reports the rendered tier's browser state.
type StatsProvider interface {
	Stats() models.BrowserStats
}

// Health returns a handler for GET /api/v1/health.
//
// The browser launches on first use, so a disconnected browser with no
// renders yet is still healthy. A browser that crashed, or that has
// rendered and is now gone, reports "degraded".
func Health(sp StatsProvider, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sp.Stats()

		status := "healthy"
		if stats.Lost || (!stats.Connected && stats.Renders > 0) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Browser: stats,
			Version: version,
		})
	}
}
