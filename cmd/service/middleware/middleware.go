package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/app/response"
	"github.com/chronicle-ai/chronicle/pkg/errors"
)

const (
	API_KEY_HEADER = "X-Api-Key"
)

// ApiKey rejects requests missing the configured key. An empty
// configured key disables the check entirely, which is the local
// development default.
func ApiKey(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := appCore.Cfg().Security.ApiKey
		if expected == "" {
			c.Next()
			return
		}

		got := c.Request.Header.Get(API_KEY_HEADER)
		if got == "" {
			if auth := c.Request.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				got = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if got != expected {
			response.APIError(c, errors.New("middleware.ApiKey", "unauthorized", nil).Code(http.StatusUnauthorized))
			return
		}
		c.Next()
	}
}

var ipLimiters = cmap.New[*rate.Limiter]()

// IPRateLimit throttles each client IP independently. Limiters live for
// the process lifetime; the key space is bounded by the set of client
// addresses.
func IPRateLimit(appCore *core.Core) gin.HandlerFunc {
	cfg := appCore.Cfg().RateLimit
	perMinute := cfg.PerMinute
	if perMinute == 0 {
		perMinute = 60
	}
	if perMinute < 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perMinute
	}
	perSecond := float64(perMinute) / 60

	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter, ok := ipLimiters.Get(key)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			ipLimiters.SetIfAbsent(key, limiter)
			limiter, _ = ipLimiters.Get(key)
		}

		if !limiter.Allow() {
			response.APIError(c, errors.New("middleware.IPRateLimit", "too many requests", nil).Code(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}

// Timing records per-route latency and error counts.
func Timing(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := appCore.Metrics().ApiResponseTimer(c.FullPath())
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, c.FullPath(), status)
		}
	}
}

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+API_KEY_HEADER)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
