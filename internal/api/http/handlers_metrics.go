package http

import (
	"net/http"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
)

// MetricsHandlers serves the Prometheus exposition and a JSON summary
type MetricsHandlers struct {
	metrics *monitoring.Metrics
}

// NewMetricsHandlers creates metrics handlers
func NewMetricsHandlers(metrics *monitoring.Metrics) *MetricsHandlers {
	return &MetricsHandlers{metrics: metrics}
}

// Prometheus handles GET /metrics
func (m *MetricsHandlers) Prometheus() gin.HandlerFunc {
	return gin.WrapH(m.metrics.Handler())
}

// Stats handles GET /stats
func (m *MetricsHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": m.metrics.Snapshot()})
}
