package version

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/types"
)

// Get reports the service name and build version
func Get(deps *types.Dependencies) gin.HandlerFunc {
	v := "dev"
	if deps != nil && deps.Version != "" {
		v = deps.Version
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "eafkit",
			"version":     v,
			"go":          runtime.Version(),
			"description": "Search API over an index of annotation documents",
			"status":      "running",
		})
	}
}
