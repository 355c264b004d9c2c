package telemetry_boundary

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bufferedResponse holds a render's output until the render has finished, so
// a crashed render can be replaced by the fallback view as a whole.
type bufferedResponse struct {
	header      http.Header
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: http.Header{}, status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if status > 0 && !b.wroteHeader {
		b.status = status
	}
}

func (b *bufferedResponse) Write(data []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(data)
}

func (b *bufferedResponse) writeTo(w http.ResponseWriter) {
	dst := w.Header()
	for key, values := range b.header {
		dst[key] = values
	}

	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}

// ginBufferedWriter lets gin handlers write into a bufferedResponse. Streaming
// is not supported inside a boundary: Flush is a no-op.
type ginBufferedWriter struct {
	gin.ResponseWriter
	buffer *bufferedResponse
}

func (w *ginBufferedWriter) Header() http.Header {
	return w.buffer.Header()
}

func (w *ginBufferedWriter) WriteHeader(status int) {
	w.buffer.WriteHeader(status)
}

func (w *ginBufferedWriter) WriteHeaderNow() {
	w.buffer.wroteHeader = true
}

func (w *ginBufferedWriter) Write(data []byte) (int, error) {
	return w.buffer.Write(data)
}

func (w *ginBufferedWriter) WriteString(s string) (int, error) {
	return w.buffer.Write([]byte(s))
}

func (w *ginBufferedWriter) Status() int {
	return w.buffer.status
}

func (w *ginBufferedWriter) Size() int {
	if !w.buffer.wroteHeader {
		return -1
	}
	return w.buffer.body.Len()
}

func (w *ginBufferedWriter) Written() bool {
	return w.buffer.wroteHeader
}

func (w *ginBufferedWriter) Flush() {}
