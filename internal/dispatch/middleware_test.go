package dispatch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHandler returns a handler that counts its invocations and
// records the request values it saw.
func countingHandler(calls *atomic.Int32, seen *sync.Map) handlerFunc {
	return func(req *Request) (*Response, error) {
		calls.Add(1)
		if v, ok := req.Get("user"); ok {
			seen.Store("user", v)
		}
		resp := NewResponse(http.StatusOK)
		resp.Body = []byte("handled")
		return resp, nil
	}
}

func testRequest() *Request {
	return newRequest(httptest.NewRequest(http.MethodPost, "/mcp", nil), Route{Name: "test"})
}

func TestRunMiddleware_Direct(t *testing.T) {
	var calls atomic.Int32
	resp, outcome, err := runMiddleware(nil, testRequest(), countingHandler(&calls, &sync.Map{}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDirect, outcome)
	assert.Equal(t, "handled", string(resp.Body))
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunMiddleware_ImplicitContinuation(t *testing.T) {
	var calls atomic.Int32
	seen := &sync.Map{}
	mw := func(req *Request, _ Next) (*Response, error) {
		req.Set("user", "ada")
		return nil, nil
	}

	resp, outcome, err := runMiddleware(mw, testRequest(), countingHandler(&calls, seen))
	require.NoError(t, err)
	assert.Equal(t, OutcomeImplicit, outcome)
	assert.Equal(t, "handled", string(resp.Body))
	assert.EqualValues(t, 1, calls.Load())
	user, _ := seen.Load("user")
	assert.Equal(t, "ada", user)
}

func TestRunMiddleware_ContinuedWithoutReturning(t *testing.T) {
	var calls atomic.Int32
	mw := func(_ *Request, next Next) (*Response, error) {
		_, _ = next()
		_, _ = next()
		return nil, nil
	}

	resp, outcome, err := runMiddleware(mw, testRequest(), countingHandler(&calls, &sync.Map{}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinued, outcome)
	assert.Equal(t, "handled", string(resp.Body))
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunMiddleware_ExplicitResponse(t *testing.T) {
	var calls atomic.Int32
	mw := func(_ *Request, _ Next) (*Response, error) {
		resp := NewResponse(http.StatusUnauthorized)
		resp.Body = []byte("denied")
		return resp, nil
	}

	resp, outcome, err := runMiddleware(mw, testRequest(), countingHandler(&calls, &sync.Map{}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeExplicit, outcome)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, 0, calls.Load())
}

func TestRunMiddleware_WrapsNext(t *testing.T) {
	var calls atomic.Int32
	resp, outcome, err := runMiddleware(Timing, testRequest(), countingHandler(&calls, &sync.Map{}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeExplicit, outcome)
	assert.Contains(t, resp.Header.Get("Server-Timing"), "mcp;dur=")
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunMiddleware_Error(t *testing.T) {
	var calls atomic.Int32
	mw := func(_ *Request, _ Next) (*Response, error) {
		return nil, errors.New("boom")
	}

	_, _, err := runMiddleware(mw, testRequest(), countingHandler(&calls, &sync.Map{}))
	assert.EqualError(t, err, "boom")
	assert.EqualValues(t, 0, calls.Load())
}

func TestRequestID(t *testing.T) {
	req := testRequest()
	req.HTTP.Header.Set(RequestIDHeader, "abc-123")
	resp, err := RequestID(req, nil)
	require.NoError(t, err)
	assert.Nil(t, resp)
	id, ok := req.Get(RequestIDKey)
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)

	req = testRequest()
	_, err = RequestID(req, nil)
	require.NoError(t, err)
	id, _ = req.Get(RequestIDKey)
	assert.Len(t, id, 36)
}

func TestMiddlewareSet(t *testing.T) {
	s := DefaultMiddleware()
	assert.Equal(t, []string{"request-id", "timing"}, s.Names())
	assert.True(t, s.Has("timing"))
	assert.False(t, s.Has("auth"))

	s.Register("auth", func(*Request, Next) (*Response, error) { return nil, nil })
	assert.True(t, s.Has("auth"))

	var empty *MiddlewareSet
	assert.False(t, empty.Has("timing"))
}
