// Package capability defines the capability kinds served by mcpkit and
// turns definition files into bound, protocol-ready definitions.
//
// # Definition Files
//
// Definitions are YAML or JSON-with-comments documents. A tool binds its
// invocation function either to a Go action registered in an ActionSet or
// to a text/template (with the sprig function map) rendered over the call
// arguments:
//
//	# mcp/tools/greet.yaml
//	description: Greet someone
//	inputSchema:
//	  type: object
//	  properties:
//	    name: {type: string}
//	  required: [name]
//	template: "Hello {{ .name | title }}!"
//	cache: 10m
//
// Resources are bound to a local file, a text template or an action;
// prompts are lists of templated messages. Handler override files reference
// capabilities by name and are resolved by the registry.
//
// # Loading
//
// Each kind has its own loader (LoadTool, LoadResource, LoadPrompt,
// LoadHandler). A loader decodes the file, rejects unknown fields and
// malformed shapes, and binds the invocation function. Failures are
// returned as *LoadError carrying the file path.
//
// Names and titles are not derived at load time. The registry calls
// Finalize once on every admitted definition, which fills a missing name
// (kebab case) and title from the source filename.
//
// # Results
//
// TextResult, JSONResult, ErrorResult and ImageResult build tool results.
// ToolHandler converts returned errors and panics into error results.
package capability
