package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/types"
)

// Get reports liveness together with the state of the corpus index. The
// endpoint answers 200 even when the index is unhealthy; the body tells.
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"status":    types.StatusOK,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  databaseStatus(deps),
		}
		if deps != nil && deps.Corpus != nil {
			response["corpus"] = corpusStatus(c, deps)
		}
		c.JSON(http.StatusOK, response)
	}
}

func databaseStatus(deps *types.Dependencies) gin.H {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured"}
	}
	if err := deps.DB.HealthCheck(); err != nil {
		return gin.H{"status": "unhealthy", "error": err.Error()}
	}
	return gin.H{"status": "healthy"}
}

func corpusStatus(c *gin.Context, deps *types.Dependencies) gin.H {
	docs, err := deps.Corpus.ListDocuments(c.Request.Context())
	if err != nil {
		return gin.H{"status": "unavailable"}
	}
	var annotations int
	for _, d := range docs {
		annotations += d.AnnotationCount
	}
	return gin.H{"status": "ready", "documents": len(docs), "annotations": annotations}
}
