package telemetry_boundary

import (
	"reflect"
	"runtime"
	"strings"

	telemetry_capture "tentspace/internal/features/telemetry/capture"

	"github.com/gin-gonic/gin"
)

const boundaryHandlerKey = "telemetry_boundary.handler"

// Middleware mounts a fresh Boundary around the rest of the handler chain
// for every request. The chain after the middleware is the component stack.
func Middleware(options Options) gin.HandlerFunc {
	var handlerName string

	handler := func(ctx *gin.Context) {
		ctx.Set(boundaryHandlerKey, handlerName)
		boundary := New(options, ComponentStack(ctx))

		original := ctx.Writer
		buffer := newBufferedResponse()
		buffer.status = original.Status()
		ctx.Writer = &ginBufferedWriter{ResponseWriter: original, buffer: buffer}

		ok := boundary.run(ctx.Request.Context(), ctx.Next)
		ctx.Writer = original

		if ok {
			buffer.writeTo(original)
			return
		}

		ctx.Abort()
		boundary.renderFallback(original, ctx.Request)
	}

	// Same lookup gin uses for HandlerNames, so the name matches whatever
	// the compiler called the closure.
	handlerName = runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()

	return handler
}

// ComponentStack renders the handlers supervised by the boundary in ctx,
// innermost first, as "at <pkg.Func>" lines. The innermost line carries the
// matched route.
func ComponentStack(ctx *gin.Context) string {
	names := ctx.HandlerNames()

	start := 0
	if boundaryName := ctx.GetString(boundaryHandlerKey); boundaryName != "" {
		for i, name := range names {
			if name == boundaryName {
				start = i + 1
			}
		}
	}

	supervised := names[start:]
	if len(supervised) == 0 {
		return ""
	}

	lines := make([]string, 0, len(supervised))
	for i := len(supervised) - 1; i >= 0; i-- {
		line := "at " + telemetry_capture.ShortFunctionName(supervised[i])
		if i == len(supervised)-1 && ctx.FullPath() != "" {
			line += " (" + ctx.FullPath() + ")"
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
