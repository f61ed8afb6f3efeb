package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/clock"
	"salonbook/internal/pkg/response"
)

// RateLimit allows Limit requests per client IP per Window. The bucket
// refills continuously, so a client that waits Window/Limit gets one more
// request.
type RateLimit struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
	// SkipSuccessful counts only responses with status >= 400.
	SkipSuccessful bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	cfg   RateLimit
	clock clock.Clock

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// RateLimiter keys on gin's ClientIP, so forwarded headers only count when
// the engine trusts the proxy that sent them. A zero Limit or Window
// disables the limiter.
func RateLimiter(cfg RateLimit, clk clock.Clock) gin.HandlerFunc {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests, please try again later."
	}

	l := &ipLimiter{
		cfg:       cfg,
		clock:     clk,
		visitors:  make(map[string]*visitor),
		lastSweep: clk.Now(),
	}
	return l.handle
}

func (l *ipLimiter) handle(c *gin.Context) {
	now := l.clock.Now()
	ip := c.ClientIP()
	lim := l.limiter(ip, now)

	if l.cfg.SkipSuccessful {
		if lim.TokensAt(now) < 1 {
			l.reject(c, ip, lim, now)
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			lim.AllowN(l.clock.Now(), 1)
		}
		return
	}

	if !lim.AllowN(now, 1) {
		l.reject(c, ip, lim, now)
		return
	}
	c.Header("RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
	c.Header("RateLimit-Remaining", strconv.Itoa(int(lim.TokensAt(now))))
	c.Next()
}

func (l *ipLimiter) limiter(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// a visitor idle for a whole window has a full bucket again
	if now.Sub(l.lastSweep) >= l.cfg.Window {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.cfg.Window {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		every := rate.Every(l.cfg.Window / time.Duration(l.cfg.Limit))
		v = &visitor{limiter: rate.NewLimiter(every, l.cfg.Limit)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *ipLimiter) reject(c *gin.Context, ip string, lim *rate.Limiter, now time.Time) {
	missing := 1 - lim.TokensAt(now)
	wait := time.Duration(missing * float64(l.cfg.Window) / float64(l.cfg.Limit))
	retryAfter := session.Seconds(wait)
	if retryAfter < 1 {
		retryAfter = 1
	}

	log.Warn().
		Str("limiter", l.cfg.Name).
		Str("ip", ip).
		Str("path", c.FullPath()).
		Int("retry_after", retryAfter).
		Msg("rate limit exceeded")

	c.Header("RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
	c.Header("RateLimit-Remaining", "0")
	response.TooManyRequests(c, l.cfg.Message, retryAfter)
	c.Abort()
}
