package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	constants "memorludo/internal/constants"
	util "memorludo/internal/util"
)

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'none';")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func (app *App) getLimiter(key string) *rate.Limiter {
	app.LimiterMutex.RLock()
	limWithTime, ok := app.LimiterMap[key]
	app.LimiterMutex.RUnlock()
	if ok {
		app.LimiterMutex.Lock()
		if limWithTime, ok = app.LimiterMap[key]; ok {
			limWithTime.LastAccess = time.Now()
			app.LimiterMutex.Unlock()
			return limWithTime.Limiter
		}
		app.LimiterMutex.Unlock()
	}

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if limWithTime, ok = app.LimiterMap[key]; ok {
		limWithTime.LastAccess = time.Now()
		return limWithTime.Limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.RateLimitBurst)
	limWithTime = &RateLimiterWithTime{
		Limiter:    lim,
		LastAccess: time.Now(),
	}
	app.LimiterMap[key] = limWithTime
	return lim
}

func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !app.getLimiter(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}
