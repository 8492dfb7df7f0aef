package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupHealthRoutes registers the liveness, readiness and metrics endpoints.
// A nil registry leaves /metrics unregistered.
func SetupHealthRoutes(router *gin.Engine, readiness ReadinessChecker, registry *prometheus.Registry) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "gamo keyword api is running"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ready, checkedAt, err := readiness.Status()
		body := gin.H{"checked_at": checkedAt}
		if !ready {
			body["status"] = "unavailable"
			if err != nil {
				body["error"] = err.Error()
			}
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	})

	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
}
