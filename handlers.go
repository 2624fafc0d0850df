package main

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	auth "memorludo/internal/auth"
	constants "memorludo/internal/constants"
	game "memorludo/internal/game"
	models "memorludo/internal/models"
	store "memorludo/internal/store"
	upload "memorludo/internal/upload"
	util "memorludo/internal/util"
)

type createGameRequest struct {
	Images []string `json:"images"`
}

func (app *App) createGameHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    constants.ErrorCodeInvalidInput,
			"message": "No images provided for the game",
		})
		return
	}

	userID, _ := auth.UserIDFromContext(ctx)
	g, err := game.NewGame(req.Images, userID)
	if err != nil {
		app.respondGameError(c, err)
		return
	}
	if err := app.Store.SaveGame(ctx, g); err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"gameId":  g.ID,
		"cards":   g.Cards,
	})
}

func (app *App) uploadHandler(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    constants.ErrorCodeInvalidInput,
			"message": "No files were uploaded.",
		})
		return
	}

	urls, err := app.Uploads.SaveAll(form.File["images"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, upload.ErrTooLarge) || errors.Is(err, upload.ErrBadType) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"success": false,
			"code":    constants.ErrorCodeInvalidInput,
			"message": "Error uploading file: " + err.Error(),
		})
		return
	}

	userID, _ := auth.UserIDFromContext(ctx)
	g, err := game.NewGame(urls, userID)
	if err != nil {
		app.respondGameError(c, err)
		return
	}
	if err := app.Store.SaveGame(ctx, g); err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"gameId":     g.ID,
		"message":    "Files uploaded successfully",
		"imageCount": len(urls),
	})
}

func (app *App) getGameHandler(c *gin.Context) {
	g, err := app.Store.GetGame(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game": gin.H{
			"id":           g.ID,
			"cards":        g.Cards,
			"moves":        g.Moves,
			"isComplete":   g.IsComplete,
			"elapsedTime":  g.ElapsedSeconds(),
			"matchedPairs": g.MatchedPairs(),
			"totalPairs":   g.TotalPairs(),
		},
	})
}

func (app *App) flipCardHandler(c *gin.Context) {
	res, err := app.Coordinator.ResolveFlip(c.Request.Context(), c.Param("gameId"), c.Param("cardId"))
	if err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"card":         res.Card,
		"pendingCount": res.PendingCount,
		"isMatch":      res.IsMatch,
		"isComplete":   res.IsComplete,
		"moves":        res.Moves,
		"matchedPairs": res.MatchedPairs,
		"totalPairs":   res.TotalPairs,
	})
}

func (app *App) resetGameHandler(c *gin.Context) {
	g, err := app.Coordinator.Reset(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"gameId":  g.ID,
		"message": "Game reset successfully",
		"cards":   g.Cards,
	})
}

func (app *App) listUserGamesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	summaries, err := app.Store.ListByOwner(ctx, userID, 20)
	if err != nil {
		app.respondGameError(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.GameSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   summaries,
	})
}

func (app *App) deleteGameHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	if err := app.Store.DeleteGame(ctx, c.Param("gameId"), userID); err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Game deleted successfully",
	})
}

func (app *App) healthzHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"active_locks":    app.Locks.Size(),
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// respondGameError maps the game and store error taxonomy onto HTTP codes
// with stable machine-readable error codes.
func (app *App) respondGameError(c *gin.Context, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		status, code = http.StatusBadRequest, constants.ErrorCodeInvalidInput
	case errors.Is(err, game.ErrCardNotFound):
		status, code = http.StatusNotFound, constants.ErrorCodeCardNotFound
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, constants.ErrorCodeGameNotFound
	case errors.Is(err, game.ErrAlreadyMatched):
		status, code = http.StatusConflict, constants.ErrorCodeAlreadyMatched
	case errors.Is(err, game.ErrRoundInProgress):
		status, code = http.StatusConflict, constants.ErrorCodeRoundInProgress
	case errors.Is(err, store.ErrConflict):
		status, code = http.StatusConflict, constants.ErrorCodeConflict
	default:
		util.LogWarn("Request failed: %v", err)
		status, code = http.StatusInternalServerError, constants.ErrorCodePersistence
	}
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": err.Error(),
	})
}
