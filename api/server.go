package api

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/middleware"
	"github.com/killallgit/eafkit/api/types"
	"github.com/killallgit/eafkit/internal/database"
	"github.com/killallgit/eafkit/internal/logging"
	"github.com/killallgit/eafkit/internal/services/cache"
	"github.com/killallgit/eafkit/pkg/config"
)

// Server represents the HTTP server
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	limiter    *middleware.Limiter

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server from the server and security settings
func NewServer(cfg *config.Config) *Server {
	// Create Gin engine with recovery middleware only
	engine := gin.New()
	engine.Use(gin.Recovery())

	address := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &Server{
		engine:       engine,
		cfg:          cfg,
		limiter:      middleware.NewLimiter(cfg.Server.RateLimit),
		dependencies: &types.Dependencies{},
		httpServer: &http.Server{
			Addr:           address,
			Handler:        engine,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.ReadTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}

	return server
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *database.DB) {
	s.dependencies.DB = db
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	s.setupMiddleware()
	return s.setupRoutes()
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	s.engine.Use(logging.RequestLogger())

	if s.cfg.Security.EnableCORS {
		s.engine.Use(middleware.CORS(s.cfg.Security.CORSOrigins...))
	}

	s.engine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
}

// setupRoutes delegates to the main route registration
func (s *Server) setupRoutes() error {
	if s.dependencies.Cache == nil && s.cfg.Server.CacheTTL > 0 {
		s.dependencies.Cache = cache.NewMemoryCache(s.cfg.Server.CacheSize)
		s.dependencies.CacheTTL = s.cfg.Server.CacheTTL
	}
	return RegisterRoutes(s.engine, s.dependencies, s.limiter)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()

	return s.httpServer.Shutdown(ctx)
}
