// Package overlay lists definition files from an ordered stack of root
// directories.
//
// Each overlay contributes files below <root>/<dir>, where dir defaults to
// "mcp". Tools, resources and prompts live in their own sub-directories,
// handler overrides sit directly in <dir> and the sentinel default handler
// is <dir>/index.{yaml,yml,json}:
//
//	base/mcp/tools/echo.yaml
//	base/mcp/prompts/greeting.yaml
//	app/mcp/tools/echo.yaml      (overrides base)
//	app/mcp/admin.yaml           (named handler override)
//	app/mcp/index.yaml           (default handler override)
//
// The scanner only lists paths. Merging them is the job of the resolver
// package, loading them the job of the registry package.
package overlay
