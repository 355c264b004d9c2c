package telemetry_capture

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

const (
	classifierPanic    = "panic"
	classifierLogError = "LogError"
	maxStackFrames     = 32
)

// telemetryPackagePrefix matches the reporting machinery itself, whose frames
// are never the interesting part of a stack.
var telemetryPackagePrefix = func() string {
	pkg := reflect.TypeOf((*Hook)(nil)).Elem().PkgPath()
	return pkg[:strings.LastIndex(pkg, "/")+1]
}()

// classify returns the message and primary classifier of a panic value or
// error.
func classify(value any) (message string, classifier string) {
	if err, ok := value.(error); ok {
		return err.Error(), fmt.Sprintf("%T", err)
	}

	return fmt.Sprint(value), classifierPanic
}

// callers captures the stack above the caller of the function that invokes
// callers, skipping skip additional frames.
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

// formatStack renders frames the way a goroutine dump does: the function on
// one line, its file and line indented below.
func formatStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// firstMeaningfulFrame is the first frame outside the Go runtime and the
// telemetry packages, as pkg.Func. Frames from test files always count.
func firstMeaningfulFrame(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if isMeaningfulFrame(frame) {
			return ShortFunctionName(frame.Function)
		}
		if !more {
			return ""
		}
	}
}

func isMeaningfulFrame(frame runtime.Frame) bool {
	fn := frame.Function
	switch {
	case fn == "":
		return false
	case strings.HasPrefix(fn, "runtime."):
		return false
	case strings.HasPrefix(fn, telemetryPackagePrefix):
		return strings.HasSuffix(frame.File, "_test.go")
	default:
		return true
	}
}

// ShortFunctionName drops the import path: "a/b/pkg.Func" becomes "pkg.Func".
func ShortFunctionName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

// FirstComponentFrame is the first non-empty line of a component stack.
func FirstComponentFrame(componentStack string) string {
	for _, line := range strings.Split(componentStack, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return strings.TrimPrefix(line, "at ")
		}
	}
	return ""
}

func buildFingerprint(classifier, frame string) []string {
	if frame == "" {
		return []string{classifier}
	}
	return []string{classifier, frame}
}
