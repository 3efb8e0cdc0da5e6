package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// Identity trusts the verified (userId, role) pair stamped onto the request
// by the upstream auth collaborator. Requests without it are rejected before
// any handler runs.
func Identity(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetHeader(headerUserID)
		if userIDStr == "" {
			log.Warn("Middleware: X-User-ID header is missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Status: "Fail", Message: "User identification missing"})
			return
		}
		userID, err := strconv.Atoi(userIDStr)
		if err != nil || userID <= 0 {
			log.Errorf("Middleware: Invalid X-User-ID header value: %s", userIDStr)
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Status: "Fail", Message: "Invalid user identification data"})
			return
		}

		role := c.GetHeader(headerUserRole)
		if role == "" {
			role = "customer"
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// RequireRoles gates a route group to the listed roles.
func RequireRoles(log *logrus.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		log.Warnf("Middleware: User %d with role '%s' denied (requires one of %v)", c.GetInt(ctxUserID), role, roles)
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Status: "Fail", Message: "Not authorized for this operation"})
	}
}

func requesterID(c *gin.Context) int {
	return c.GetInt(ctxUserID)
}

func requesterRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"remote_ip": c.ClientIP(),
		})
		entry.Info("Incoming request")

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		completedEntry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  latency.Milliseconds(),
		})

		if statusCode >= 500 {
			completedEntry.Error("Request completed with server error")
		} else if statusCode >= 400 {
			completedEntry.Warn("Request completed with client error")
		} else {
			completedEntry.Info("Request completed successfully")
		}
	}
}
