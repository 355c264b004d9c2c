package telemetry_breadcrumbs

import (
	"net/http"
	"strings"

	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/gin-gonic/gin"
)

// Recorder is anything that accepts breadcrumbs.
type Recorder interface {
	Add(entry telemetry_core.Breadcrumb)
}

// NavigationMiddleware records one navigation breadcrumb per page request.
// Requests whose path has one of skipPrefixes are not recorded.
func NavigationMiddleware(recorder Recorder, skipPrefixes ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		path := ctx.Request.URL.Path
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		level := telemetry_core.BreadcrumbLevelInfo
		if ctx.Writer.Status() >= http.StatusBadRequest {
			level = telemetry_core.BreadcrumbLevelWarning
		}

		data := map[string]any{
			"to":     ctx.Request.URL.String(),
			"method": ctx.Request.Method,
			"status": ctx.Writer.Status(),
		}
		if from := ctx.GetHeader("Referer"); from != "" {
			data["from"] = from
		}

		recorder.Add(telemetry_core.Breadcrumb{
			Category: telemetry_core.BreadcrumbCategoryNavigation,
			Message:  "Navigated to " + path,
			Level:    level,
			Data:     data,
		})
	}
}
