package session

import (
	"net/http"
	"strings"

	telemetry_capture "tentspace/internal/features/telemetry/capture"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie the auth provider's browser SDK stores
// the access token in.
const SessionCookieName = "sb-access-token"

const userContextKey = "user"

// OptionalSessionMiddleware identifies the visitor when a valid token is
// present and never rejects the request. The user is stored in the gin
// context and, for error reports, in the request context.
func OptionalSessionMiddleware(sessionService *SessionService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !sessionService.IsEnabled() {
			ctx.Next()
			return
		}

		token := extractToken(ctx)
		if token == "" {
			ctx.Next()
			return
		}

		user, err := sessionService.GetUserFromToken(token)
		if err != nil {
			ctx.Next()
			return
		}

		ctx.Set(userContextKey, user)
		ctx.Request = ctx.Request.WithContext(
			telemetry_capture.WithUser(ctx.Request.Context(), user.ToUserContext()),
		)
		ctx.Next()
	}
}

// RequireSession rejects requests that OptionalSessionMiddleware could not
// identify.
func RequireSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := GetUserFromContext(ctx); !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

func GetUserFromContext(ctx *gin.Context) (*SessionUser, bool) {
	userInterface, exists := ctx.Get(userContextKey)
	if !exists {
		return nil, false
	}

	user, ok := userInterface.(*SessionUser)

	return user, ok
}

func extractToken(ctx *gin.Context) string {
	if token, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	if cookie, err := ctx.Cookie(SessionCookieName); err == nil {
		return cookie
	}

	return ""
}
