// Package dispatch serves a compiled registry over the Model Context
// Protocol.
//
// # Routing
//
// Every request is resolved to a Route in three steps, first match wins:
//
//  1. The request names a handler (/mcp/{handler} or the handler's custom
//     route). Its tools, resources and prompts are used exactly as listed;
//     a list the handler leaves unset is empty. An unknown name yields a
//     HandlerNotFoundError, answered with HTTP 404 and a JSON-RPC error.
//  2. A default handler override (the index file) exists. Its settings
//     apply, and each capability list it leaves unset falls back to the
//     whole registry.
//  3. Otherwise the whole registry is served under the configured name,
//     version and browser redirect.
//
// The registry never changes after boot, so New builds one mcp-go server
// per route up front and serves it through a stateless streamable HTTP
// transport. Requests accepting text/html are redirected to the route's
// browser redirect instead.
//
// # Middleware
//
// A handler override may name a Middleware from a MiddlewareSet. The
// middleware receives the Request and a Next function and completes in
// one of three ways:
//
//   - it returns a Response, which is sent as is (OutcomeExplicit);
//   - it calls next and returns nothing, so next's result is sent
//     (OutcomeContinued);
//   - it neither returns a Response nor calls next, so the handler runs
//     after it (OutcomeImplicit).
//
// The handler runs at most once per request. Values stored with
// Request.Set are visible to capability actions through
// capability.Value and to templates through the "request" function.
//
// Tool invocations are traced with OpenTelemetry and counted in the
// mcpkit_tool_invocations_total metric.
package dispatch
