package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	ginGzip "github.com/gin-contrib/gzip"

	"github.com/gin-gonic/gin"

	auth "memorludo/internal/auth"
	constants "memorludo/internal/constants"
	game "memorludo/internal/game"
	store "memorludo/internal/store"
	upload "memorludo/internal/upload"
	util "memorludo/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Memorludo in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	dir, err := openDirectory()
	if err != nil {
		util.LogFatal("Failed to open game directory: %v", err)
	}
	defer dir.Close()

	uploadDir := util.GetEnvString("UPLOAD_DIR", "uploads")
	uploads, err := upload.NewStore(uploadDir, constants.RouteUploads, constants.MaxUploadBytes)
	if err != nil {
		util.LogFatal("Failed to prepare upload directory: %v", err)
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		if isProduction {
			util.LogFatal("SESSION_SECRET must be set in production")
		}
		util.LogWarn("SESSION_SECRET not set, using an insecure development secret")
		secret = "memorludo-dev-secret"
	}
	tokens := auth.NewTokenManager(secret, util.GetEnvDuration("SESSION_TTL", 24*time.Hour))

	locks := game.NewLockTable()
	app := &App{
		Store:          dir,
		Coordinator:    game.NewCoordinator(dir, locks),
		Locks:          locks,
		Auth:           auth.NewService(dir, tokens),
		Tokens:         tokens,
		Uploads:        uploads,
		IsProduction:   isProduction,
		StartTime:      time.Now(),
		StaticCacheAge: util.GetEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		GameTTL:        util.GetEnvDuration("GAME_TTL", 24*time.Hour),
		LockTTL:        util.GetEnvDuration("LOCK_TTL", 1*time.Hour),
		LimiterMap:     make(map[string]*RateLimiterWithTime),
	}

	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".webp"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		app.applyCacheHeaders(c, isProduction)
	})

	router.Static(constants.RouteUploads, uploadDir)
	if util.DirExists("static") {
		router.Static("/static", "./static")
		router.NoRoute(func(c *gin.Context) {
			c.File("./static/index.html")
		})
	}

	app.registerRoutes(router)

	app.startCleanupRoutines()

	app.startServer(router)
}

func (app *App) registerRoutes(router *gin.Engine) {
	router.POST(constants.RouteUpload, app.rateLimitMiddleware(), auth.OptionalAuth(app.Tokens), app.uploadHandler)

	games := router.Group(constants.RouteAPIGames)
	games.POST("", app.rateLimitMiddleware(), auth.OptionalAuth(app.Tokens), app.createGameHandler)
	games.GET(constants.RouteGame, app.getGameHandler)
	games.POST(constants.RouteFlip, app.rateLimitMiddleware(), app.flipCardHandler)
	games.POST(constants.RouteReset, app.rateLimitMiddleware(), app.resetGameHandler)
	games.DELETE(constants.RouteGame, auth.RequireAuth(app.Tokens), app.deleteGameHandler)

	user := router.Group(constants.RouteAPIUser, auth.RequireAuth(app.Tokens))
	user.GET(constants.RouteUserGames, app.listUserGamesHandler)

	authGroup := router.Group(constants.RouteAPIAuth)
	authGroup.POST(constants.RouteRegister, app.rateLimitMiddleware(), app.registerHandler)
	authGroup.POST(constants.RouteLogin, app.rateLimitMiddleware(), app.loginHandler)
	authGroup.POST(constants.RouteLogout, auth.RequireAuth(app.Tokens), app.logoutHandler)
	authGroup.GET(constants.RouteProfile, auth.RequireAuth(app.Tokens), app.profileHandler)
	authGroup.PUT(constants.RouteProfile, auth.RequireAuth(app.Tokens), app.updateProfileHandler)

	router.GET(constants.RouteHealthz, app.healthzHandler)
}

func openDirectory() (store.Directory, error) {
	if os.Getenv("MEMORY_STORE") == "1" {
		util.LogInfo("Using in-memory game directory")
		return store.NewMemoryDirectory(), nil
	}
	return store.Open(util.GetEnvString("DATABASE_PATH", "data/memorludo.db"))
}

func (app *App) startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

func (app *App) applyCacheHeaders(c *gin.Context, production bool) {
	cacheable := strings.HasPrefix(c.Request.URL.Path, constants.RouteUploads+"/") ||
		strings.HasPrefix(c.Request.URL.Path, "/static/")
	if production && cacheable {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
	} else {
		cachecontrol.New(cachecontrol.Config{
			NoStore:        true,
			NoCache:        true,
			MustRevalidate: true,
		})(c)
	}
}

func (app *App) startCleanupRoutines() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cutoff := time.Now().UTC().Add(-app.GameTTL)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := app.Store.DeleteStaleAnonymous(ctx, cutoff); err != nil {
				util.LogWarn("Stale game cleanup failed: %v", err)
			}
			cancel()
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			app.Locks.Cleanup(app.LockTTL)
			app.cleanupStaleRateLimiters()
		}
	}()

	util.LogInfo("Started cleanup routines for games, locks and rate limiters")
}

func (app *App) cleanupStaleRateLimiters() {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.RateLimiterTTL)
	removedCount := 0

	for key, limWithTime := range app.LimiterMap {
		if limWithTime.LastAccess.Before(cutoffTime) {
			delete(app.LimiterMap, key)
			removedCount++
		}
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
}
