// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter tracks one token bucket per client. Authenticated requests
// are keyed by user id so one applicant's tabs share a budget; anonymous
// requests fall back to the client IP.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	rate    rate.Limit
	burst   int
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(r rate.Limit, burst int) *clientLimiter {
	cl := &clientLimiter{
		clients: make(map[string]*clientEntry),
		rate:    r,
		burst:   burst,
	}

	go cl.evictIdle()

	return cl
}

// evictIdle drops buckets not seen for a few minutes so the map stays
// bounded by the active client set.
func (cl *clientLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cl.mu.Lock()
		for key, entry := range cl.clients {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(cl.clients, key)
			}
		}
		cl.mu.Unlock()
	}
}

func (cl *clientLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, ok := cl.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(cl.rate, cl.burst)}
		cl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (cl *clientLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := c.Get("user_id"); ok {
			if id, ok := userID.(string); ok && id != "" {
				key = id
			}
		}

		if !cl.get(key).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

var (
	generalLimiter = newClientLimiter(rate.Every(time.Second), 10)
	authLimiter    = newClientLimiter(rate.Every(time.Minute), 5)
	uploadLimiter  = newClientLimiter(rate.Every(time.Minute), 10)
	paymentLimiter = newClientLimiter(rate.Every(10*time.Second), 3)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.middleware()
}

// AuthRateLimit keeps credential guessing slow.
func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.middleware()
}

// PaymentRateLimit bounds how fast one applicant can hit the payment
// gateway; the transaction lock already serializes concurrent attempts, this
// caps sequential ones.
func PaymentRateLimit() gin.HandlerFunc {
	return paymentLimiter.middleware()
}
