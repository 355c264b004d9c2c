package telemetry_capture

import (
	"context"
	"strconv"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/gin-gonic/gin"
)

type contextKey int

const (
	requestInfoKey contextKey = iota
	userKey
)

// RequestInfo is the request-scoped part of a capture: where the visitor
// was and what their browser told us about itself.
type RequestInfo struct {
	URL            string
	UserAgent      string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int
	ClientIP       string
	StartedAt      time.Time
}

func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

func RequestInfoFromContext(ctx context.Context) *RequestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey).(*RequestInfo)
	return info
}

// WithUser attaches the signed-in visitor to ctx so captures made while
// serving the request carry a user context.
func WithUser(ctx context.Context, user *telemetry_core.UserContext) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) *telemetry_core.UserContext {
	if ctx == nil {
		return nil
	}
	user, _ := ctx.Value(userKey).(*telemetry_core.UserContext)
	return user
}

// RequestMiddleware stores a RequestInfo on the request context. It must run
// before any middleware that may capture errors for the request.
func RequestMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		scheme := "http"
		if ctx.Request.TLS != nil || ctx.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}

		info := &RequestInfo{
			URL:            scheme + "://" + ctx.Request.Host + ctx.Request.URL.RequestURI(),
			UserAgent:      ctx.Request.UserAgent(),
			AcceptLanguage: ctx.GetHeader("Accept-Language"),
			ViewportWidth:  headerInt(ctx, "Sec-CH-Viewport-Width", "Viewport-Width"),
			ViewportHeight: headerInt(ctx, "Sec-CH-Viewport-Height"),
			ClientIP:       ctx.ClientIP(),
			StartedAt:      time.Now(),
		}

		ctx.Request = ctx.Request.WithContext(WithRequestInfo(ctx.Request.Context(), info))
		ctx.Next()
	}
}

func headerInt(ctx *gin.Context, names ...string) int {
	for _, name := range names {
		if value, err := strconv.Atoi(ctx.GetHeader(name)); err == nil && value > 0 {
			return value
		}
	}
	return 0
}
