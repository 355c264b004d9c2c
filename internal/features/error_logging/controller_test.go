package error_logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
	env_utils "tentspace/internal/util/env"
	"tentspace/internal/util/logger"
	rate_limit "tentspace/internal/util/rate_limit"
	test_utils "tentspace/internal/util/testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestSettings(mode env_utils.EnvMode, awsConfigured bool) Settings {
	return Settings{
		EnvMode:         mode,
		LogGroupPrefix:  "/tentspace/frontend",
		LogStreamPrefix: "errors",
		IsAWSConfigured: awsConfigured,
	}
}

func newTestService(settings Settings, client *FakeLogStoreClient) *ErrorLoggingService {
	var store *LogStore
	if client != nil {
		store = NewLogStore(client, settings.EnvMode.IsProduction(), nil, logger.GetLogger())
	}

	service := NewErrorLoggingService(
		settings,
		store,
		rate_limit.NewRateLimiter(nil, "test:"),
		logger.GetLogger(),
	)
	service.now = func() time.Time { return fixedNow }
	return service
}

func createRouter(service *ErrorLoggingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	controller := &ErrorLoggingController{service, logger.GetLogger()}
	controller.RegisterRoutes(router.Group("/api"))

	return router
}

func decodeEntry(t *testing.T, event FakeLogEvent) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(event.Message), &entry))
	return entry
}

func Test_LogError_WithPIIInMessage_StoresScrubbedMessage(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	var response IngestErrorResponseDTO
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/error-logging", "", map[string]any{
		"message":     "failed for user@example.com at 03-1234-5678",
		"stack":       "Error: mail to admin@tentspace.jp failed\n    at submit (form.js:10:5)",
		"type":        "error",
		"severity":    "error",
		"url":         "https://tentspace.jp/contact",
		"fingerprint": []string{"Error", "submit (form.js:10:5)"},
		"sessionId":   "1741944413000-abc123",
	}, http.StatusOK, &response)

	assert.True(t, response.Success)
	assert.Equal(t, "production", response.Environment)
	assert.Equal(t, "/tentspace/frontend/production", response.LogGroup)
	assert.Equal(t, "Error::submit (form.js:10:5)", response.Fingerprint)
	assert.True(t, strings.HasPrefix(response.EventID, fmt.Sprintf("%d-", fixedNow.UnixMilli())))

	events := client.EventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "/tentspace/frontend/production", events[0].LogGroupName)
	assert.Equal(t, "errors-2025-03-14", events[0].LogStreamName)

	entry := decodeEntry(t, events[0])
	assert.Equal(t, "failed for [EMAIL] at [PHONE]", entry.Error.Message)
	assert.Equal(t, "failed for [EMAIL] at [PHONE]", entry.SummaryMessage)
	assert.NotContains(t, entry.Error.Stack, "admin@tentspace.jp")
	assert.Equal(t, response.EventID, entry.EventID)
	assert.Equal(t, "Error::submit (form.js:10:5)", entry.SummaryFingerprint)
	assert.Equal(t, "https://tentspace.jp/contact", entry.SummaryURL)
	assert.Equal(t, "1741944413000-abc123", entry.SummarySessionID)
	assert.NotContains(t, events[0].Message, "user@example.com")
}

func Test_LogError_InProductionWithoutCredentials_ReturnsGenericServerError(t *testing.T) {
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, false), nil))

	resp := test_utils.MakePostRequest(t, router, "/api/error-logging", "", map[string]any{
		"message": "boom",
		"stack":   "Error: boom\n    at render (app.js:1:1)",
	}, http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"Error logging is not configured"}`, string(resp.Body))
}

func Test_LogError_InDevelopmentWithoutCredentials_SucceedsWithoutForwarding(t *testing.T) {
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeDevelopment, false), nil))

	var response DevelopmentModeResponseDTO
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/error-logging", "",
		map[string]any{"message": "boom"}, http.StatusOK, &response)

	assert.Equal(t, DevelopmentModeResponseDTO{Success: true, Mode: "development", CloudWatch: false}, response)
}

func Test_LogError_WithMalformedJSON_ReturnsBadRequest(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	resp := test_utils.MakePostRequest(t, router, "/api/error-logging", "", `{"message": `, http.StatusBadRequest)

	assert.JSONEq(t, `{"error":"Invalid request format"}`, string(resp.Body))
	assert.Empty(t, client.EventsSnapshot())
}

func Test_LogError_WhenWriteFails_ReturnsGenericErrorWithoutInternals(t *testing.T) {
	client := NewFakeLogStoreClient()
	client.PutLogEventsErr = errors.New("AccessDeniedException: user arn:aws:iam::123456789012:user/relay is not authorized")
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	resp := test_utils.MakePostRequest(t, router, "/api/error-logging", "",
		map[string]any{"message": "boom"}, http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"Failed to log error"}`, string(resp.Body))
	assert.NotContains(t, string(resp.Body), "arn:aws")
}

func Test_LogError_WhenStreamCreationFails_ReturnsGenericError(t *testing.T) {
	client := NewFakeLogStoreClient()
	client.CreateLogStreamErr = errors.New("ThrottlingException: rate exceeded")
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	resp := test_utils.MakePostRequest(t, router, "/api/error-logging", "",
		map[string]any{"message": "boom"}, http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"Failed to log error"}`, string(resp.Body))
}

func Test_LogError_DuplicateBurst_EachReportIsStoredIndependently(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	eventIDs := map[string]bool{}
	for range 5 {
		var response IngestErrorResponseDTO
		test_utils.MakePostRequestAndUnmarshal(t, router, "/api/error-logging", "", map[string]any{
			"message":     "Cannot read properties of undefined (reading 'title')",
			"type":        "error",
			"fingerprint": []string{"TypeError", "BlogPost (post.js:42:13)"},
		}, http.StatusOK, &response)

		assert.Equal(t, "TypeError::BlogPost (post.js:42:13)", response.Fingerprint)
		eventIDs[response.EventID] = true
	}

	assert.Len(t, eventIDs, 5)
	assert.Len(t, client.EventsSnapshot(), 5)
	// One attempt before the group existed, one retry, then the in-process record.
	assert.Equal(t, 2, client.CreateLogStreamCalls)
	assert.Equal(t, 1, client.CreateLogGroupCalls)
}

func Test_LogError_WhenRememberedStreamIsDeleted_RecreatesItAndStores(t *testing.T) {
	tests := []struct {
		name        string
		deleteGroup bool
	}{
		{"stream deleted", false},
		{"group deleted", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewFakeLogStoreClient()
			router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))
			body := map[string]any{"message": "boom", "type": "error"}

			test_utils.MakePostRequest(t, router, "/api/error-logging", "", body, http.StatusOK)

			clear(client.Streams)
			if tt.deleteGroup {
				clear(client.Groups)
			}

			for range 3 {
				test_utils.MakePostRequest(t, router, "/api/error-logging", "", body, http.StatusOK)
			}

			assert.Len(t, client.EventsSnapshot(), 4)
			assert.Len(t, client.Streams, 1)
			assert.Len(t, client.Groups, 1)
		})
	}
}

func Test_LogError_WithoutFingerprint_GroupsUnderUnknown(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeDevelopment, true), client))

	var response IngestErrorResponseDTO
	test_utils.MakePostRequestAndUnmarshal(t, router, "/api/error-logging", "",
		map[string]any{"message": "boom"}, http.StatusOK, &response)

	assert.Equal(t, telemetry_core.UnknownFingerprint, response.Fingerprint)
	assert.Equal(t, "development", response.Environment)
}

func Test_LogError_WithManyBreadcrumbs_StoresLastTenOldestFirst(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	crumbs := make([]map[string]any, 0, 15)
	for i := range 15 {
		crumbs = append(crumbs, map[string]any{
			"timestamp": fixedNow.Add(time.Duration(i) * time.Second).UnixMilli(),
			"category":  "user",
			"message":   fmt.Sprintf("click %d", i),
			"level":     "info",
		})
	}

	test_utils.MakePostRequest(t, router, "/api/error-logging", "", map[string]any{
		"message":     "boom",
		"timestamp":   "2025-03-14T09:20:00.000Z",
		"breadcrumbs": crumbs,
	}, http.StatusOK)

	events := client.EventsSnapshot()
	require.Len(t, events, 1)
	entry := decodeEntry(t, events[0])

	require.Len(t, entry.Breadcrumbs, 10)
	assert.Equal(t, "click 5", entry.Breadcrumbs[0].Message)
	assert.Equal(t, "click 14", entry.Breadcrumbs[9].Message)
	assert.Equal(t, fixedNow.Add(5*time.Second).UnixMilli(), entry.Breadcrumbs[0].Timestamp.UnixMilli())
	assert.Equal(t, time.Date(2025, 3, 14, 9, 20, 0, 0, time.UTC), entry.Timestamp)
}

func Test_LogError_WithRateLimitConfigured_RejectsBurstBeyondCapacity(t *testing.T) {
	client := NewFakeLogStoreClient()
	settings := newTestSettings(env_utils.EnvModeProduction, true)
	settings.RateLimitPerSecond = 1
	router := createRouter(newTestService(settings, client))

	for range RateLimitBurstMultiplier {
		test_utils.MakePostRequest(t, router, "/api/error-logging", "", map[string]any{"message": "boom"}, http.StatusOK)
	}

	resp := test_utils.MakePostRequest(t, router, "/api/error-logging", "",
		map[string]any{"message": "boom"}, http.StatusTooManyRequests)

	assert.Equal(t, "1", resp.Headers.Get("Retry-After"))
	assert.Len(t, client.EventsSnapshot(), RateLimitBurstMultiplier)
}

func Test_GetStatus_ReturnsDestinationWithoutSideEffects(t *testing.T) {
	client := NewFakeLogStoreClient()
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeProduction, true), client))

	var response StatusResponseDTO
	test_utils.MakeGetRequestAndUnmarshal(t, router, "/api/error-logging", "", http.StatusOK, &response)

	assert.Equal(t, StatusResponseDTO{
		Status:          "ok",
		LogGroupName:    "/tentspace/frontend/production",
		LogStreamName:   "errors-2025-03-14",
		LogStreamPrefix: "errors",
		Environment:     "production",
		AWSConfigured:   true,
	}, response)
	assert.Zero(t, client.CreateLogGroupCalls)
	assert.Zero(t, client.CreateLogStreamCalls)
}

func Test_GetStatus_WithoutCredentials_ReportsNotConfigured(t *testing.T) {
	router := createRouter(newTestService(newTestSettings(env_utils.EnvModeDevelopment, false), nil))

	var response StatusResponseDTO
	test_utils.MakeGetRequestAndUnmarshal(t, router, "/api/error-logging", "", http.StatusOK, &response)

	assert.False(t, response.AWSConfigured)
	assert.Equal(t, "/tentspace/frontend/development", response.LogGroupName)
}
