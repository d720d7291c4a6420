// Package testutil holds helpers shared by handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorResponse is the body every failed request carries.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(t testing.TB, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return NewRequest(t, method, path)
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err, "encode request body")
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRawJSONRequest sends body verbatim, for malformed-payload cases.
func NewRawJSONRequest(t testing.TB, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func NewRequest(t testing.TB, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest serves req and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the response body into a T.
func UnmarshalResponse[T any](t testing.TB, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	out := new(T)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), "decode response: %s", rr.Body.String())
	return out
}

func UnmarshalErrorResponse(t testing.TB, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	return *UnmarshalResponse[ErrorResponse](t, rr)
}

func AssertStatus(t testing.TB, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rr.Code, "status for body %s", rr.Body.String())
}

func AssertStatusOK(t testing.TB, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the error code in the body.
func AssertStatusAndError(t testing.TB, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	AssertStatus(t, rr, wantStatus)
	assert.Equal(t, wantCode, UnmarshalErrorResponse(t, rr).Error)
}

// AssertJSONContains checks one top-level field of a JSON object body.
// Numbers decode as float64.
func AssertJSONContains(t testing.TB, rr *httptest.ResponseRecorder, key string, want any) {
	t.Helper()
	fields := *UnmarshalResponse[map[string]any](t, rr)
	got, ok := fields[key]
	require.True(t, ok, "field %q missing from %s", key, rr.Body.String())
	assert.Equal(t, want, got, "field %q", key)
}
