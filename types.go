package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	auth "memorludo/internal/auth"
	game "memorludo/internal/game"
	store "memorludo/internal/store"
	upload "memorludo/internal/upload"
)

type App struct {
	Store       store.Directory
	Coordinator *game.Coordinator
	Locks       *game.LockTable
	Auth        *auth.Service
	Tokens      *auth.TokenManager
	Uploads     *upload.Store

	IsProduction   bool
	StartTime      time.Time
	StaticCacheAge time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	GameTTL        time.Duration
	LockTTL        time.Duration

	LimiterMap   map[string]*RateLimiterWithTime
	LimiterMutex sync.RWMutex
}

type RateLimiterWithTime struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}
