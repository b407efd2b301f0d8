// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

// RequestLogger logs every request through logrus and feeds the request
// metrics. Routes are labelled by template to bound cardinality.
func RequestLogger(log logrus.FieldLogger, metrics *services.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, route, status, duration)

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
		}
		if user, ok := utils.GetUserFromContext(c); ok {
			fields["user_id"] = user.ID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := log.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditMutations writes an audit entry for every state-changing request.
func AuditMutations(audit *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead ||
			c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		c.Next()

		user, _ := utils.GetUserFromContext(c)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		audit.Record(c.Request.Context(), services.AuditEntry{
			User:         user,
			Action:       c.Request.Method + " " + route,
			ResourceType: extractResourceType(route),
			ResourceID:   extractResourceID(c),
			Outcome:      http.StatusText(c.Writer.Status()),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		})
	}
}

func extractResourceType(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(c *gin.Context) string {
	for _, name := range []string{"id", "hash"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}
