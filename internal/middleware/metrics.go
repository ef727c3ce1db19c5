package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storewave/storewave/pkg/metrics"
)

// Metrics observes per-request latency, labelled by method, route template and
// status. The route template keeps cardinality bounded; the raw URL path is
// only used for requests that matched no route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		metrics.APILatency.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
