package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	constants "memorludo/internal/constants"
	util "memorludo/internal/util"
)

// RequireAuth rejects requests without a valid bearer token and injects the
// user id into the request context.
func RequireAuth(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := verifyRequest(tokens, c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    constants.ErrorCodeUnauthorized,
				"message": "authentication required",
			})
			return
		}
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// OptionalAuth injects the user id when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := verifyRequest(tokens, c); ok {
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

func verifyRequest(tokens *TokenManager, c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	raw, ok := extractBearerToken(header)
	if !ok {
		util.LogWarn("Malformed Authorization header on %s", c.Request.URL.Path)
		return "", false
	}
	userID, err := tokens.Verify(raw)
	if err != nil {
		util.LogWarn("Token rejected on %s: %v", c.Request.URL.Path, err)
		return "", false
	}
	return userID, true
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
