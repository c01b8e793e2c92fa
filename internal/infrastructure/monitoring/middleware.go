package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for operator request metrics
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures one controller cycle
type Timer struct {
	start      time.Time
	metrics    *Metrics
	controller string
	role       string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, controller, role string) *Timer {
	return &Timer{
		start:      time.Now(),
		metrics:    metrics,
		controller: controller,
		role:       role,
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.metrics.RecordCycle(t.controller, t.role, d)
	return d
}
