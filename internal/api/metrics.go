package api

import (
	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/metrics"
)

// MetricsHandler Prometheus 指标处理器
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
