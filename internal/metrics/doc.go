// Package metrics holds the Prometheus collectors of mcpkit. Collectors
// register with the default registry and are served by the HTTP server on
// the configured metrics path.
package metrics
