package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/killallgit/eafkit/api/types"
)

const (
	sweepInterval = 5 * time.Minute
	idleAfter     = 10 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// Limiter hands every client IP its own token bucket. A nil *Limiter lets
// all requests through.
type Limiter struct {
	clients  sync.Map
	interval time.Duration
	burst    int

	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewLimiter allows perMinute requests per client with a burst of a tenth of
// that. perMinute <= 0 returns nil.
func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		return nil
	}
	return NewLimiterEvery(time.Minute/time.Duration(perMinute), max(perMinute/10, 1))
}

// NewLimiterEvery allows one request per interval with the given burst.
func NewLimiterEvery(interval time.Duration, burst int) *Limiter {
	return &Limiter{interval: interval, burst: burst, stop: make(chan struct{})}
}

// Handler rejects clients over their budget with 429 and a Retry-After hint.
// The first call starts the idle-client sweeper.
func (l *Limiter) Handler() gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	l.startOnce.Do(func() { go l.sweepLoop() })

	return func(c *gin.Context) {
		cl := l.client(c.ClientIP())
		cl.lastSeen.Store(time.Now().UnixNano())

		if !cl.limiter.Allow() {
			c.Header("Retry-After", strconv.Itoa(int(l.interval.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Rate limit exceeded. Please slow down your requests.",
			})
			return
		}
		c.Next()
	}
}

// Stop ends the sweeper. It is safe to call more than once and on nil.
func (l *Limiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
}

// Clients reports how many client buckets are held
func (l *Limiter) Clients() int {
	n := 0
	l.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (l *Limiter) client(ip string) *client {
	if v, ok := l.clients.Load(ip); ok {
		return v.(*client)
	}
	v, _ := l.clients.LoadOrStore(ip, &client{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst)})
	return v.(*client)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.sweep(now, idleAfter)
		case <-l.stop:
			return
		}
	}
}

// sweep drops clients not seen for longer than idle
func (l *Limiter) sweep(now time.Time, idle time.Duration) {
	cutoff := now.Add(-idle).UnixNano()
	l.clients.Range(func(key, value any) bool {
		if value.(*client).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
		}
		return true
	})
}
