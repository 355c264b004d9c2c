package telemetry_capture

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	telemetry_breadcrumbs "tentspace/internal/features/telemetry/breadcrumbs"
	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	records []*telemetry_core.ErrorRecord
	sent    chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(chan struct{}, 64)}
}

func (s *recordingSender) Send(record *telemetry_core.ErrorRecord) {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	s.sent <- struct{}{}
}

func (s *recordingSender) Records() []*telemetry_core.ErrorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*telemetry_core.ErrorRecord(nil), s.records...)
}

func (s *recordingSender) waitForRecord(t *testing.T) {
	t.Helper()
	select {
	case <-s.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a record")
	}
}

type panickingSource struct{}

func (panickingSource) Recent(int) []telemetry_core.Breadcrumb {
	panic("breadcrumbs unavailable")
}

func newTestHook(sampleRate float64, sender *recordingSender, buffer *telemetry_breadcrumbs.Buffer) *Hook {
	hook := NewHook(Options{
		SampleRate:  sampleRate,
		Release:     "v1.4.2",
		Environment: "production",
		Breadcrumbs: buffer,
		Sender:      sender,
	})
	hook.Activate()
	return hook
}

func triggerPanic(hook *Hook) {
	defer hook.Recover(context.Background())
	panic(errors.New("cannot read properties of undefined"))
}

func Test_Recover_WithSampleRateZero_ForwardsNothing(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(0.0, sender, nil)

	for range 50 {
		triggerPanic(hook)
		hook.CaptureError(context.Background(), errors.New("boom"))
	}

	assert.Empty(t, sender.Records())
}

func Test_Recover_WithSampleRateOne_ForwardsEveryCapture(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	for range 20 {
		triggerPanic(hook)
	}

	assert.Len(t, sender.Records(), 20)
}

func Test_Sampling_UsesRandomSourcePerEvent(t *testing.T) {
	sender := newRecordingSender()
	draws := []float64{0.1, 0.9, 0.49, 0.5}
	hook := NewHook(Options{
		SampleRate: 0.5,
		Sender:     sender,
		Random: func() float64 {
			next := draws[0]
			draws = draws[1:]
			return next
		},
	})
	hook.Activate()

	for range 4 {
		hook.CaptureError(context.Background(), errors.New("boom"))
	}

	assert.Len(t, sender.Records(), 2)
}

func Test_Recover_DuplicateBurst_ProducesRecordsWithIdenticalFingerprint(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	for range 5 {
		triggerPanic(hook)
	}

	records := sender.Records()
	require.Len(t, records, 5)
	for _, record := range records {
		assert.Equal(t, records[0].Fingerprint, record.Fingerprint)
		assert.Equal(t, telemetry_core.RecordTypeError, record.Type)
		assert.Equal(t, hook.SessionID(), record.SessionID)
	}
	assert.Equal(t, []string{"*errors.errorString", "capture.triggerPanic"}, records[0].Fingerprint)
	assert.Equal(t, "cannot read properties of undefined", records[0].Message)
	assert.Contains(t, records[0].Stack, "triggerPanic")
}

func Test_Recover_WithNonErrorPanicValue_ClassifiesAsPanic(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	func() {
		defer hook.Recover(context.Background())
		panic("index out of range")
	}()

	records := sender.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "panic", records[0].Fingerprint[0])
	assert.Equal(t, "index out of range", records[0].Message)
}

func Test_Recover_WhenInactive_RecoversWithoutCapturing(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)
	hook.Deactivate()

	assert.NotPanics(t, func() { triggerPanic(hook) })
	assert.Empty(t, sender.Records())
}

func Test_Capture_RecordBreadcrumbs_AreTheMostRecentTenOldestFirst(t *testing.T) {
	sender := newRecordingSender()
	buffer := telemetry_breadcrumbs.NewBuffer(50)
	hook := newTestHook(1.0, sender, buffer)

	for i := range 25 {
		buffer.Add(telemetry_core.Breadcrumb{
			Category: telemetry_core.BreadcrumbCategoryUser,
			Message:  "click " + string(rune('A'+i)),
		})
	}

	hook.CaptureError(context.Background(), errors.New("boom"))

	records := sender.Records()
	require.Len(t, records, 1)

	all := buffer.GetAll()
	assert.Len(t, records[0].Breadcrumbs, telemetry_core.MaxRecordBreadcrumbs)
	assert.Equal(t, all[len(all)-telemetry_core.MaxRecordBreadcrumbs:], records[0].Breadcrumbs)
}

func Test_GoErr_WhenBackgroundWorkFails_ReportsUnhandledRejection(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	hook.GoErr(context.Background(), func() error {
		return &fs.PathError{Op: "open", Path: "/tmp/missing", Err: fs.ErrNotExist}
	})
	sender.waitForRecord(t)

	records := sender.Records()
	require.Len(t, records, 1)
	assert.Equal(t, telemetry_core.RecordTypeUnhandledRejection, records[0].Type)
	assert.Equal(t, "*fs.PathError", records[0].Fingerprint[0])
	require.Len(t, records[0].Fingerprint, 2)
	assert.True(t, strings.HasPrefix(records[0].Fingerprint[1], "capture.Test_GoErr_"))
}

func Test_Go_WhenGoroutinePanics_ReportsErrorAndKeepsProcessAlive(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	hook.Go(context.Background(), func() {
		var m map[string]int
		m["visits"]++
	})
	sender.waitForRecord(t)

	records := sender.Records()
	require.Len(t, records, 1)
	assert.Equal(t, telemetry_core.RecordTypeError, records[0].Type)
	assert.Contains(t, records[0].Message, "nil map")
}

func Test_LogError_WithOptions_UsesManualClassificationAndOverrides(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, telemetry_breadcrumbs.NewBuffer(10))

	hook.LogError(context.Background(), "checkout total mismatch", LogOptions{
		Severity: telemetry_core.SeverityWarning,
		Tags:     map[string]string{"feature": "checkout"},
		Extra:    map[string]any{"cartId": "c_42"},
		User:     &telemetry_core.UserContext{ID: "u_1", Email: "user@example.com"},
	})

	records := sender.Records()
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, "checkout total mismatch", record.Message)
	assert.Equal(t, telemetry_core.SeverityWarning, record.Severity)
	assert.Equal(t, "LogError", record.Fingerprint[0])
	assert.Equal(t, "checkout", record.Tags["feature"])
	assert.Equal(t, "c_42", record.Extra["cartId"])
	assert.Equal(t, "u_1", record.User.ID)
	assert.Equal(t, "v1.4.2", record.Release)
	assert.Equal(t, "production", record.Environment)
	assert.NotNil(t, record.Device)
	assert.NotNil(t, record.Performance)
}

func Test_LogError_WithSampleRateZero_IsDropped(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(0.0, sender, nil)

	hook.LogError(context.Background(), "never sent", LogOptions{})

	assert.Empty(t, sender.Records())
}

func Test_BuildRecord_WhenBreadcrumbSourcePanics_OmitsOnlyThatContext(t *testing.T) {
	sender := newRecordingSender()
	hook := NewHook(Options{SampleRate: 1, Sender: sender, Breadcrumbs: panickingSource{}})
	hook.Activate()

	hook.CaptureError(context.Background(), errors.New("boom"))

	records := sender.Records()
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Breadcrumbs)
	assert.NotNil(t, records[0].Device)
}

func Test_BuildRecord_WithRequestContext_AttachesRequestDeviceAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	router := gin.New()
	router.Use(RequestMiddleware())
	router.Use(func(ctx *gin.Context) {
		user := &telemetry_core.UserContext{ID: "u_7", Username: "camper"}
		ctx.Request = ctx.Request.WithContext(WithUser(ctx.Request.Context(), user))
		ctx.Next()
	})
	router.GET("/blog/:slug", func(ctx *gin.Context) {
		hook.CaptureError(ctx.Request.Context(), errors.New("render failed"))
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/blog/winter-camping?ref=top", nil)
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.8")
	req.Header.Set("Sec-CH-Viewport-Width", "1440")
	req.Header.Set("Sec-CH-Viewport-Height", "900")
	router.ServeHTTP(httptest.NewRecorder(), req)

	records := sender.Records()
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, "http://example.com/blog/winter-camping?ref=top", record.URL)
	assert.Contains(t, record.UserAgent, "Chrome/120")
	require.NotNil(t, record.Device)
	require.NotNil(t, record.Device.Browser)
	assert.Equal(t, "Chrome", record.Device.Browser.Name)
	assert.Equal(t, "120.0.0.0", record.Device.Browser.Version)
	assert.Contains(t, record.Device.OS, "Mac OS X")
	assert.Equal(t, "ja-JP", record.Device.Language)
	assert.Equal(t, &telemetry_core.ScreenInfo{Width: 1440, Height: 900}, record.Device.Screen)
	require.NotNil(t, record.User)
	assert.Equal(t, "u_7", record.User.ID)
	assert.Equal(t, "192.0.2.1", record.User.IPAddress)
	require.NotNil(t, record.Performance.Timing)
}

func Test_NewHook_SessionID_IsStableAcrossCaptures(t *testing.T) {
	sender := newRecordingSender()
	hook := newTestHook(1.0, sender, nil)

	hook.CaptureError(context.Background(), errors.New("a"))
	hook.CaptureError(context.Background(), errors.New("b"))

	records := sender.Records()
	require.Len(t, records, 2)
	assert.Equal(t, records[0].SessionID, records[1].SessionID)
	assert.NotEqual(t, hook.SessionID(), NewHook(Options{}).SessionID())
}
