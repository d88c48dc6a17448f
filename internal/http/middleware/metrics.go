package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pickleball-backend/internal/observability"
)

// Metrics records request counts, latency and upload sizes by route template. Scrapes of
// /metrics itself are not counted.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		route := c.FullPath()
		if c.Request.Method == http.MethodPost {
			m.ObserveUpload(route, c.Request.ContentLength)
		}

		c.Next()

		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
