package types

import (
	"time"

	"github.com/killallgit/eafkit/internal/database"
	"github.com/killallgit/eafkit/internal/services/cache"
	"github.com/killallgit/eafkit/internal/services/corpus"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB     *database.DB
	Corpus corpus.Service

	// Cache holds GET responses of the v1 routes for CacheTTL when set
	Cache    cache.Cache
	CacheTTL time.Duration

	// Version is reported by the version endpoint
	Version string
}
