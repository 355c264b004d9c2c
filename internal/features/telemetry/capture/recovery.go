package telemetry_capture

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware replaces gin's Recovery: a panicking handler is
// reported through hook like any uncaught error and answered with a
// generic 500.
func RecoveryMiddleware(hook *Hook) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			value := recover()
			if value == nil {
				return
			}

			// net/http uses this panic to abort a response on purpose.
			if err, ok := value.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(value)
			}

			hook.handlePanic(ctx.Request.Context(), value, callers(1))

			if ctx.Writer.Written() {
				ctx.Abort()
				return
			}
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}()

		ctx.Next()
	}
}
