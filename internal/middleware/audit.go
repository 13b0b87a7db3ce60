package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

const auditResourceKey = "audit_resource_id"

// AuditRecorder accepts audit entries. Implementations must not block on persistence.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// SetAuditResource names the affected record when the route has no :id, e.g. on create.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceKey, id)
}

// Audit records an entry after each successful request on the route.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.GetString(auditResourceKey)
		}

		entry := Actor(c).AuditEntry(action, resource, resourceID)
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})
		recorder.Record(c.Request.Context(), entry)
	}
}
