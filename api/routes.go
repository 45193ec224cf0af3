package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/documents"
	"github.com/killallgit/eafkit/api/health"
	"github.com/killallgit/eafkit/api/middleware"
	"github.com/killallgit/eafkit/api/search"
	"github.com/killallgit/eafkit/api/types"
	"github.com/killallgit/eafkit/api/version"
	"github.com/killallgit/eafkit/internal/services/corpus"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// RegisterRoutes registers all API routes. limiter may be nil.
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, limiter *middleware.Limiter) error {
	if deps == nil {
		return apperrors.New(apperrors.ErrCodeInternal, "api dependencies are nil")
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// Corpus routes need the index
	if deps.Corpus == nil && deps.DB != nil && deps.DB.DB != nil {
		deps.Corpus = corpus.NewService(corpus.NewRepository(deps.DB.DB))
	}
	if deps.Corpus == nil {
		return nil
	}

	v1 := engine.Group("/api/v1")
	v1.Use(limiter.Handler())
	if deps.Cache != nil {
		v1.Use(middleware.ResponseCache(middleware.CacheConfig{Cache: deps.Cache, TTL: deps.CacheTTL}))
	}

	documents.RegisterRoutes(v1.Group("/documents"), deps)
	search.RegisterRoutes(v1.Group("/search"), deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
