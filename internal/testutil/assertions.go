package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Do serves one request against h and returns the recorder.
func Do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// AssertResponse checks the status code and body of a recorded response.
func AssertResponse(t *testing.T, rec *httptest.ResponseRecorder, status int, body string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, "status code")
	assert.Equal(t, body, rec.Body.String(), "body")
}

// AssertHTTPResponse checks a response returned by a client or a test
// helper such as fiber's App.Test.
func AssertHTTPResponse(t *testing.T, resp *http.Response, status int, body string) {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, status, resp.StatusCode, "status code")
	assert.Equal(t, body, string(data), "body")
}
