package test_utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RequestOptions struct {
	Method string
	URL    string
	// Body is sent as-is when it is a string or []byte, otherwise as JSON.
	Body           any
	AuthToken      string
	Headers        map[string]string
	RemoteAddr     string
	ExpectedStatus int
}

type TestResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func MakeGetRequest(
	t *testing.T,
	router http.Handler,
	url, authToken string,
	expectedStatus int,
) *TestResponse {
	return MakeRequest(t, router, RequestOptions{
		Method:         http.MethodGet,
		URL:            url,
		AuthToken:      authToken,
		ExpectedStatus: expectedStatus,
	})
}

func MakeGetRequestAndUnmarshal(
	t *testing.T,
	router http.Handler,
	url, authToken string,
	expectedStatus int,
	responseStruct any,
) *TestResponse {
	resp := MakeGetRequest(t, router, url, authToken, expectedStatus)
	require.NoError(t, json.Unmarshal(resp.Body, responseStruct), "failed to unmarshal: %s", resp.Body)
	return resp
}

func MakePostRequest(
	t *testing.T,
	router http.Handler,
	url, authToken string,
	body any,
	expectedStatus int,
) *TestResponse {
	return MakeRequest(t, router, RequestOptions{
		Method:         http.MethodPost,
		URL:            url,
		Body:           body,
		AuthToken:      authToken,
		ExpectedStatus: expectedStatus,
	})
}

func MakePostRequestAndUnmarshal(
	t *testing.T,
	router http.Handler,
	url, authToken string,
	body any,
	expectedStatus int,
	responseStruct any,
) *TestResponse {
	resp := MakePostRequest(t, router, url, authToken, body, expectedStatus)
	require.NoError(t, json.Unmarshal(resp.Body, responseStruct), "failed to unmarshal: %s", resp.Body)
	return resp
}

func MakeRequest(t *testing.T, router http.Handler, options RequestOptions) *TestResponse {
	t.Helper()

	var body io.Reader
	switch b := options.Body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	case []byte:
		body = bytes.NewBuffer(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err, "failed to marshal request body")
		body = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(options.Method, options.URL, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if options.AuthToken != "" {
		req.Header.Set("Authorization", options.AuthToken)
	}
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}
	if options.RemoteAddr != "" {
		req.RemoteAddr = options.RemoteAddr
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if options.ExpectedStatus != 0 {
		assert.Equal(t, options.ExpectedStatus, w.Code, "unexpected status, body: %s", w.Body.String())
	}

	return &TestResponse{
		StatusCode: w.Code,
		Body:       w.Body.Bytes(),
		Headers:    w.Header(),
	}
}
