package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS разрешает запросы фронтенда с других портов
func CORS() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Session-ID"},
		ExposeHeaders:    []string{"X-Session-ID", "Content-Disposition"},
		AllowCredentials: true,
	}
	return cors.New(config)
}

// RequestLogger логирует каждый запрос со статусом и длительностью
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		slog.Info("HTTP запрос",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

// MaxBodySize ограничивает размер тела запроса
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RateLimiter ограничивает частоту запросов по скользящему окну
type RateLimiter struct {
	requests  map[string][]time.Time
	mu        sync.Mutex
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter создает лимитер: limit запросов на window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// IsAllowed проверяет, укладывается ли клиент в лимит
func (rl *RateLimiter) IsAllowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// sweepLocked не чаще раза в окно удаляет ключи, все запросы которых
// устарели: клиентских IP много, и карта не должна расти бесконечно
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, requests := range rl.requests {
		alive := false
		for _, t := range requests {
			if now.Sub(t) < rl.window {
				alive = true
				break
			}
		}
		if !alive {
			delete(rl.requests, key)
		}
	}
}

// RateLimit применяет лимитер к изменяющим запросам по IP клиента.
// Чтение (GET) не ограничивается: фронтенд опрашивает состояние часто.
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if !rl.IsAllowed(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}
