package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// Envelope is the response wrapper with the payload left undecoded
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// Request describes one call made with Do
type Request struct {
	Method  string
	Path    string
	Body    any // marshalled as JSON; a string is sent as is
	Token   string
	Headers map[string]string
}

// Do serves req on h and returns the recorded response
func Do(t *testing.T, h http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := req.Body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b), "encode request body")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := httptest.NewRequest(method, req.Path, &body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		r.Header.Set("Authorization", "Bearer "+req.Token)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// Decode parses the envelope and, when dst is not nil, its data
func Decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "response is not an envelope: %s", rec.Body.String())
	if dst != nil {
		require.True(t, env.Success, "expected success, got %s", rec.Body.String())
		require.NoError(t, json.Unmarshal(env.Data, dst), "decode data")
	}
	return env
}

// RequireStatus fails the test with the response body when the status differs
func RequireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, "unexpected status, body: %s", rec.Body.String())
}

// AssertError checks the status and the error code of a failed response
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, rec.Code, "unexpected status, body: %s", rec.Body.String())
	env := Decode(t, rec, nil)
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, code, env.Error.Code)
	}
}
