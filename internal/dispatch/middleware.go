package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// Request is the inbound request as seen by middleware. Values set on it
// are visible to capability actions and templates through the context.
type Request struct {
	HTTP  *http.Request
	Route Route

	mu     sync.RWMutex
	values map[string]interface{}
}

func newRequest(r *http.Request, route Route) *Request {
	return &Request{HTTP: r, Route: route, values: make(map[string]interface{})}
}

// Set stores a request-scoped value.
func (r *Request) Set(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns a request-scoped value.
func (r *Request) Get(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Context returns the HTTP request context carrying a snapshot of the
// request values.
func (r *Request) Context() context.Context {
	r.mu.RLock()
	values := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	r.mu.RUnlock()
	return capability.WithValues(r.HTTP.Context(), values)
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse creates an empty response with status code.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

func (r *Response) write(w http.ResponseWriter) {
	for k, values := range r.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(r.Body)
}

// Next runs the rest of the chain. It runs the handler at most once and
// returns the same result to every caller.
type Next func() (*Response, error)

// Middleware wraps the protocol handler. It may return a response of its
// own, return the result of next, or return (nil, nil) without calling
// next, in which case the handler runs after it.
type Middleware func(req *Request, next Next) (*Response, error)

// Outcome records how a middleware call completed.
type Outcome int

const (
	// OutcomeDirect means no middleware was configured.
	OutcomeDirect Outcome = iota
	// OutcomeExplicit means the middleware returned a response.
	OutcomeExplicit
	// OutcomeContinued means the middleware called next but returned no
	// response, so next's result is used.
	OutcomeContinued
	// OutcomeImplicit means the middleware neither returned a response nor
	// called next, so the handler ran afterwards.
	OutcomeImplicit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExplicit:
		return "explicit"
	case OutcomeContinued:
		return "continued"
	case OutcomeImplicit:
		return "implicit"
	default:
		return "direct"
	}
}

// handlerFunc is the terminal step of a chain.
type handlerFunc func(req *Request) (*Response, error)

// continuation runs the terminal handler once.
type continuation struct {
	once    sync.Once
	started atomic.Bool
	run     handlerFunc
	req     *Request
	resp    *Response
	err     error
}

func (c *continuation) next() (*Response, error) {
	c.started.Store(true)
	c.once.Do(func() {
		c.resp, c.err = c.run(c.req)
	})
	return c.resp, c.err
}

// runMiddleware invokes mw around handler and reports which outcome
// produced the response. A middleware error is returned as is.
func runMiddleware(mw Middleware, req *Request, handler handlerFunc) (*Response, Outcome, error) {
	if mw == nil {
		resp, err := handler(req)
		return resp, OutcomeDirect, err
	}

	c := &continuation{run: handler, req: req}
	resp, err := mw(req, c.next)
	switch {
	case err != nil:
		return nil, OutcomeExplicit, err
	case resp != nil:
		return resp, OutcomeExplicit, nil
	case c.started.Load():
		// Waits for a next call still running in another goroutine.
		resp, err := c.next()
		return resp, OutcomeContinued, err
	default:
		resp, err := handler(req)
		return resp, OutcomeImplicit, err
	}
}

// MiddlewareSet maps middleware names used in handler files to functions.
type MiddlewareSet struct {
	mu sync.RWMutex
	m  map[string]Middleware
}

// NewMiddlewareSet creates an empty set.
func NewMiddlewareSet() *MiddlewareSet {
	return &MiddlewareSet{m: make(map[string]Middleware)}
}

// DefaultMiddleware returns a set holding the built-in middleware:
// "request-id" and "timing".
func DefaultMiddleware() *MiddlewareSet {
	s := NewMiddlewareSet()
	s.Register("request-id", RequestID)
	s.Register("timing", Timing)
	return s
}

// Register adds or replaces a middleware.
func (s *MiddlewareSet) Register(name string, mw Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = mw
}

// Get looks up a middleware.
func (s *MiddlewareSet) Get(name string) (Middleware, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	mw, ok := s.m[name]
	return mw, ok
}

// Has implements registry.MiddlewareLookup.
func (s *MiddlewareSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the sorted middleware names.
func (s *MiddlewareSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.m))
	for name := range s.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequestIDHeader carries the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the request value holding the request ID.
const RequestIDKey = "requestId"

// RequestID stores the caller's X-Request-ID, or a new UUID, as the
// "requestId" request value. It leaves running the handler to the chain.
func RequestID(req *Request, _ Next) (*Response, error) {
	id := req.HTTP.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	req.Set(RequestIDKey, id)
	logging.Debug("Dispatch", "Request %s on route %s", logging.TruncateID(id), req.Route.Name)
	return nil, nil
}

// Timing runs the handler and reports its duration in a Server-Timing
// header.
func Timing(req *Request, next Next) (*Response, error) {
	start := time.Now()
	resp, err := next()
	if err != nil || resp == nil {
		return resp, err
	}
	elapsed := time.Since(start)
	resp.Header.Set("Server-Timing", fmt.Sprintf("mcp;dur=%.3f", float64(elapsed)/float64(time.Millisecond)))
	logging.Debug("Dispatch", "Handled %s %s in %s", req.HTTP.Method, req.HTTP.URL.Path, elapsed)
	return resp, nil
}
