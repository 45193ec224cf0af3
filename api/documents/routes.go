package documents

import (
	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/types"
)

// RegisterRoutes registers document routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", List(deps))
	router.GET("/:uuid", Get(deps))
	router.GET("/:uuid/rows", Rows(deps))
}
