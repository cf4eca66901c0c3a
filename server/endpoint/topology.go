package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TopologyProvider returns the current flow's tracked stage/queue/plugin
// topology as an opaque JSON-marshalable value (bootstrap.Summary.Snapshot).
type TopologyProvider func() any

// Topology returns a handler that reports the running flow's stages,
// queues, and plugin bindings, so a supervisor can inspect what a
// STREAMING-mode process is actually running without parsing its logs.
func Topology(provider TopologyProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if provider == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, provider())
	}
}
