package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcpkit/internal/metrics"
	"github.com/giantswarm/mcpkit/internal/registry"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

const tracerName = "github.com/giantswarm/mcpkit/internal/dispatch"

// Options configures a Dispatcher.
type Options struct {
	Config
	// Middleware resolves the middleware named by handler overrides.
	Middleware *MiddlewareSet
	// Tracer defaults to the global OpenTelemetry tracer provider.
	Tracer trace.Tracer
}

// endpoint is the prepared MCP server of one route.
type endpoint struct {
	route      Route
	mcp        *server.MCPServer
	transport  http.Handler
	middleware Middleware
}

// Dispatcher serves the registry over MCP. Every route's server is built
// once in New since the registry never changes.
type Dispatcher struct {
	config    Config
	registry  *registry.Registry
	resolver  *Resolver
	tracer    trace.Tracer
	base      *endpoint
	endpoints map[string]*endpoint
}

// New prepares one MCP server for the base route and one per named
// handler.
func New(r *registry.Registry, opts Options) (*Dispatcher, error) {
	d := &Dispatcher{
		config:    opts.Config,
		registry:  r,
		resolver:  NewResolver(r, opts.Config),
		tracer:    opts.Tracer,
		endpoints: make(map[string]*endpoint),
	}
	if d.config.Route == "" {
		d.config.Route = "/mcp"
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer(tracerName)
	}

	base, err := d.resolver.Resolve("")
	if err != nil {
		return nil, err
	}
	if d.base, err = d.endpoint(base, opts.Middleware); err != nil {
		return nil, err
	}

	for _, h := range r.Handlers() {
		if h.Route == d.config.Route {
			return nil, fmt.Errorf("handler %s: route %s is the base route", h.Name, h.Route)
		}
		rt, err := d.resolver.Resolve(h.Name)
		if err != nil {
			return nil, err
		}
		ep, err := d.endpoint(rt, opts.Middleware)
		if err != nil {
			return nil, err
		}
		d.endpoints[h.Name] = ep
	}

	return d, nil
}

func (d *Dispatcher) endpoint(rt Route, middleware *MiddlewareSet) (*endpoint, error) {
	ep := &endpoint{route: rt}
	if rt.Middleware != "" {
		mw, ok := middleware.Get(rt.Middleware)
		if !ok {
			return nil, fmt.Errorf("route %s: unknown middleware %q", rt.Name, rt.Middleware)
		}
		ep.middleware = mw
	}

	s, err := d.newServer(rt)
	if err != nil {
		return nil, err
	}
	ep.mcp = s
	ep.transport = server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithDisableStreaming(true),
	)
	return ep, nil
}

// newServer registers the route's capabilities on a fresh MCP server.
func (d *Dispatcher) newServer(rt Route) (*server.MCPServer, error) {
	s := server.NewMCPServer(rt.Name, rt.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	for _, def := range rt.Tools {
		st, err := def.ServerTool(d.instrument(rt, def))
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rt.Name, err)
		}
		s.AddTools(st)
	}
	for _, def := range rt.Resources {
		if def.IsTemplate() {
			s.AddResourceTemplate(def.MCPResourceTemplate(), server.ResourceTemplateHandlerFunc(def.ResourceHandler()))
			continue
		}
		s.AddResource(def.MCPResource(), def.ResourceHandler())
	}
	for _, def := range rt.Prompts {
		s.AddPrompts(def.ServerPrompt())
	}

	logging.Debug("Dispatch", "Prepared route %s (%s): %d tools, %d resources, %d prompts",
		rt.Name, rt.Source, len(rt.Tools), len(rt.Resources), len(rt.Prompts))
	return s, nil
}

// Resolve returns the route served for handlerName.
func (d *Dispatcher) Resolve(handlerName string) (Route, error) {
	ep, err := d.lookup(handlerName)
	if err != nil {
		return Route{}, err
	}
	return ep.route, nil
}

func (d *Dispatcher) lookup(handlerName string) (*endpoint, error) {
	if handlerName == "" {
		return d.base, nil
	}
	ep, ok := d.endpoints[handlerName]
	if !ok {
		return nil, &HandlerNotFoundError{Name: handlerName}
	}
	return ep, nil
}

// MCPServer returns the MCP server of a route, e.g. to serve it over
// stdio.
func (d *Dispatcher) MCPServer(handlerName string) (*server.MCPServer, error) {
	ep, err := d.lookup(handlerName)
	if err != nil {
		return nil, err
	}
	return ep.mcp, nil
}

// ServeStdio serves the base route on in and out until ctx is done.
// Middleware does not apply since there is no HTTP request.
func (d *Dispatcher) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("Dispatch", "Serving %s over stdio", d.base.route.Name)
	return server.NewStdioServer(d.base.mcp).Listen(ctx, in, out)
}

// Mount registers the endpoint on mux: the base route, the base route
// followed by a handler name, and the custom route of every named handler.
func (d *Dispatcher) Mount(mux *http.ServeMux) {
	base := strings.TrimSuffix(d.config.Route, "/")
	mux.Handle(base, d.Handler(""))
	mux.Handle(base+"/{handler}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.serve(w, r, r.PathValue("handler"))
	}))
	for _, h := range d.registry.Handlers() {
		if h.Route == "" {
			continue
		}
		mux.Handle(h.Route, d.Handler(h.Name))
		logging.Info("Dispatch", "Mounted handler %s on %s", h.Name, h.Route)
	}
	logging.Info("Dispatch", "Mounted MCP endpoint on %s and %s/{handler}", base, base)
}

// Handler serves one fixed handler name, empty for the base route.
func (d *Dispatcher) Handler(handlerName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.serve(w, r, handlerName)
	})
}

func (d *Dispatcher) serve(w http.ResponseWriter, r *http.Request, handlerName string) {
	start := time.Now()
	label := handlerName
	if label == "" {
		label = "default"
	}
	status := http.StatusOK
	defer func() {
		metrics.RequestCount.WithLabelValues(label, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	ep, err := d.lookup(handlerName)
	if err != nil {
		status = http.StatusNotFound
		logging.Debug("Dispatch", "Rejecting request for %s: %v", r.URL.Path, err)
		writeJSONRPCError(w, status, mcp.INVALID_REQUEST, err.Error())
		return
	}

	if acceptsHTML(r) {
		status = http.StatusFound
		http.Redirect(w, r, ep.route.BrowserRedirect, status)
		return
	}

	req := newRequest(r, ep.route)
	if ep.middleware == nil {
		ep.transport.ServeHTTP(w, r.WithContext(req.Context()))
		return
	}

	resp, outcome, err := runMiddleware(ep.middleware, req, func(req *Request) (*Response, error) {
		rec := newRecorder()
		ep.transport.ServeHTTP(rec, req.HTTP.WithContext(req.Context()))
		return rec.response(), nil
	})
	metrics.MiddlewareOutcomes.WithLabelValues(ep.route.Middleware, outcome.String()).Inc()
	if err != nil {
		status = http.StatusInternalServerError
		logging.Error("Dispatch", err, "Middleware %s failed", ep.route.Middleware)
		writeJSONRPCError(w, status, mcp.INTERNAL_ERROR, "middleware failed")
		return
	}
	if resp.StatusCode != 0 {
		status = resp.StatusCode
	}
	resp.write(w)
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSONRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := mcp.NewJSONRPCError(mcp.NewRequestId(nil), code, message, nil)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("Dispatch", "Failed to write error response: %v", err)
	}
}

// recorder buffers a transport response so middleware can inspect it.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(p)
}

// Flush is a no-op; the body is sent once the chain completes.
func (r *recorder) Flush() {}

func (r *recorder) response() *Response {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{StatusCode: status, Header: r.header, Body: r.body.Bytes()}
}
