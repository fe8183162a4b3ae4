// Package config loads the mcpkit configuration file.
//
// Configuration lives in mcpkit.yaml, found either at an explicit path or
// in a configuration directory (the working directory by default). Values
// in the file are decoded over GetDefaultConfig, so a missing file or a
// partial one is valid.
//
// # Configuration Structure
//
//	mcp:
//	  enabled: true                 # Mount the MCP endpoint (default: true)
//	  route: /mcp                   # Base route (default: /mcp)
//	  browserRedirect: /            # Redirect for browsers (default: /)
//	  name: MCP Server              # Server name (default: MCP Server)
//	  version: 1.0.0                # Server version (default: 1.0.0)
//	  dir: mcp                      # Definition directory per overlay (default: mcp)
//	  overlays:                     # Lowest to highest precedence (default: [.])
//	    - ../shared
//	    - .
//	  manifest: .mcpkit/manifest.yaml
//	server:
//	  host: localhost
//	  port: 8090
//	  transport: streamable-http    # or stdio
//	  metricsPath: /metrics
//	cache:
//	  backend: memory               # memory, redis, sqlite or none
//	  sweepSchedule: "@every 1m"
//	  redis:
//	    addr: localhost:6379
//	  sqlite:
//	    dsn: .mcpkit/cache.db
//
// # Errors
//
// Validate reports configuration mistakes as ValidationErrors. Problems in
// definition files are reported by the registry as a
// ConfigurationErrorCollection, one ConfigurationError per file, with the
// overlay as Source and the capability kind as Category.
package config
