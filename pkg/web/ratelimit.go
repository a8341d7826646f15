package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ClientRateLimiter allows each client `requests` requests per fixed window. A client's window opens on its
// first request and its bucket is replaced when the window ends. The bucket refills one token per window,
// so it can never hand out more than `requests` tokens before it is replaced.
type ClientRateLimiter struct {
	requests int
	window   time.Duration

	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastSweep time.Time
	now       func() time.Time
}

type clientWindow struct {
	limiter *rate.Limiter
	start   time.Time
}

// NewClientRateLimiter returns nil when requests or window is not positive, which disables limiting.
func NewClientRateLimiter(requests int, window time.Duration) *ClientRateLimiter {
	if requests <= 0 || window <= 0 {
		return nil
	}

	return &ClientRateLimiter{
		requests: requests,
		window:   window,
		clients:  make(map[string]*clientWindow),
		now:      time.Now,
	}
}

// Allow reports whether client may make a request now, and how long until its window resets.
func (l *ClientRateLimiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.clients[client]
	if !ok || now.Sub(entry.start) >= l.window {
		entry = &clientWindow{
			limiter: rate.NewLimiter(rate.Every(l.window), l.requests),
			start:   now,
		}
		l.clients[client] = entry
	}

	return entry.limiter.AllowN(now, 1), entry.start.Add(l.window).Sub(now)
}

// sweep forgets clients whose window has ended.
func (l *ClientRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for client, entry := range l.clients {
		if now.Sub(entry.start) >= l.window {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

func retryAfter(reset time.Duration) string {
	seconds := int(math.Ceil(reset.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// Middleware rejects requests over the limit with 429 before they reach a handler.
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		allowed, reset := l.Allow(clientIP)
		if !allowed {
			log.Warn().Str("client_ip", clientIP).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
			c.Header("Retry-After", retryAfter(reset))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}
