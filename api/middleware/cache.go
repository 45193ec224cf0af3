// Package middleware holds the gin middleware of the corpus API.
package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/internal/logging"
	"github.com/killallgit/eafkit/internal/services/cache"
)

// CacheConfig configures ResponseCache
type CacheConfig struct {
	Cache cache.Cache
	TTL   time.Duration
}

// cachedResponse is what ResponseCache stores per key
type cachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	CachedAt    time.Time `json:"cached_at"`
}

// responseWriter captures the body written by the handler
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves repeated GET requests from cfg.Cache for cfg.TTL.
// Only 200 responses are stored. Requests with Cache-Control no-cache,
// no-store or max-age=0 bypass the cache. Responses carry X-Cache.
func ResponseCache(cfg CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		if bypass(c.Request) {
			c.Header("X-Cache", "BYPASS")
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cacheKey(c.Request.URL)
		if data, ok := cfg.Cache.Get(ctx, key); ok {
			var resp cachedResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				c.Header("X-Cache", "HIT")
				c.Header("Age", strconv.Itoa(int(time.Since(resp.CachedAt).Seconds())))
				c.Data(resp.Status, resp.ContentType, resp.Body)
				c.Abort()
				return
			}
			_ = cfg.Cache.Delete(ctx, key)
		}

		c.Header("X-Cache", "MISS")
		w := &responseWriter{ResponseWriter: c.Writer, body: new(bytes.Buffer)}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK || w.body.Len() == 0 {
			return
		}
		data, err := json.Marshal(cachedResponse{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			CachedAt:    time.Now(),
		})
		if err == nil {
			err = cfg.Cache.Set(ctx, key, data, cfg.TTL)
		}
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to cache response")
		}
	}
}

func bypass(req *http.Request) bool {
	for _, directive := range strings.Split(strings.ToLower(req.Header.Get("Cache-Control")), ",") {
		switch strings.TrimSpace(directive) {
		case "no-cache", "no-store", "max-age=0":
			return true
		}
	}
	return req.Header.Get("Pragma") == "no-cache"
}

// cacheKey is the path plus the query with its parameters sorted
func cacheKey(u *url.URL) string {
	if u.RawQuery == "" {
		return "http:" + u.Path
	}
	return "http:" + u.Path + "?" + u.Query().Encode()
}
