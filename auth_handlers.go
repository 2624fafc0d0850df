package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	auth "memorludo/internal/auth"
	constants "memorludo/internal/constants"
	store "memorludo/internal/store"
)

var validate = validator.New()

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

func (app *App) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, token, err := app.Auth.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"code":    constants.ErrorCodeEmailTaken,
				"message": "An account with this email already exists",
			})
			return
		}
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (app *App) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, token, err := app.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    constants.ErrorCodeBadCredentials,
				"message": "Invalid email or password",
			})
			return
		}
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// Session tokens are stateless, so logout is an acknowledgement that the
// client should drop its token.
func (app *App) logoutHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (app *App) profileHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	user, err := app.Auth.Profile(ctx, userID)
	if err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (app *App) updateProfileHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := app.Auth.UpdateProfile(ctx, userID, req.DisplayName)
	if err != nil {
		app.respondGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"code":    constants.ErrorCodeInvalidInput,
		"message": message,
	})
}
