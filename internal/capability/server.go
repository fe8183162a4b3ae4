package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yosida95/uritemplate/v3"

	"github.com/giantswarm/mcpkit/internal/cache"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// MCPTool converts the definition into its protocol form. The input
// schema is passed through unchanged.
func (d *ToolDefinition) MCPTool() (mcp.Tool, error) {
	schema := emptyObjectSchema
	if d.InputSchema != nil {
		raw, err := json.Marshal(d.InputSchema)
		if err != nil {
			return mcp.Tool{}, fmt.Errorf("failed to encode input schema of tool %s: %w", d.Name, err)
		}
		schema = raw
	}

	tool := mcp.NewToolWithRawSchema(d.Name, describe(d.Description, d.Title), schema)
	tool.Annotations.Title = d.Title
	if a := d.Annotations; a != nil {
		if a.Title != "" {
			tool.Annotations.Title = a.Title
		}
		if a.ReadOnlyHint != nil {
			tool.Annotations.ReadOnlyHint = a.ReadOnlyHint
		}
		if a.DestructiveHint != nil {
			tool.Annotations.DestructiveHint = a.DestructiveHint
		}
		if a.IdempotentHint != nil {
			tool.Annotations.IdempotentHint = a.IdempotentHint
		}
		if a.OpenWorldHint != nil {
			tool.Annotations.OpenWorldHint = a.OpenWorldHint
		}
	}
	return tool, nil
}

// ToolHandler adapts fn to the mcp-go handler signature. Errors and panics
// become error results so a failing tool never breaks the session.
func ToolHandler(name string, fn ToolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Dispatch", fmt.Errorf("panic: %v", r), "Tool %s panicked\n%s", name, debug.Stack())
				result, err = ErrorResult("tool %s failed: internal error", name), nil
			}
		}()

		args, _ := req.Params.Arguments.(map[string]interface{})
		if args == nil {
			args = map[string]interface{}{}
		}

		res, callErr := fn(ctx, args)
		var panicErr *cache.PanicError
		if errors.As(callErr, &panicErr) {
			return ErrorResult("tool %s failed: internal error", name), nil
		}
		if callErr != nil {
			logging.Debug("Dispatch", "Tool %s returned error: %v", name, callErr)
			return ErrorResult("%v", callErr), nil
		}
		if res == nil {
			return TextResult(""), nil
		}
		return res, nil
	}
}

// ServerTool builds the registration of the tool with fn as handler. fn is
// usually d.Handler, possibly wrapped by the caller.
func (d *ToolDefinition) ServerTool(fn ToolFunc) (server.ServerTool, error) {
	tool, err := d.MCPTool()
	if err != nil {
		return server.ServerTool{}, err
	}
	return server.ServerTool{Tool: tool, Handler: ToolHandler(d.Name, fn)}, nil
}

// MCPResource converts a static resource definition.
func (d *ResourceDefinition) MCPResource() mcp.Resource {
	opts := []mcp.ResourceOption{mcp.WithResourceDescription(describe(d.Description, d.Title))}
	if d.MIMEType != "" {
		opts = append(opts, mcp.WithMIMEType(d.MIMEType))
	}
	return mcp.NewResource(d.URI, d.Name, opts...)
}

// MCPResourceTemplate converts a templated resource definition.
func (d *ResourceDefinition) MCPResourceTemplate() mcp.ResourceTemplate {
	opts := []mcp.ResourceTemplateOption{mcp.WithTemplateDescription(describe(d.Description, d.Title))}
	if d.MIMEType != "" {
		opts = append(opts, mcp.WithTemplateMIMEType(d.MIMEType))
	}
	return mcp.NewResourceTemplate(d.URITemplate, d.Name, opts...)
}

// ResourceHandler adapts the definition's read function. Template
// variables are taken from the request, or matched from the URI when the
// runtime did not supply them.
func (d *ResourceDefinition) ResourceHandler() server.ResourceHandlerFunc {
	var tmpl *uritemplate.Template
	if d.IsTemplate() {
		tmpl, _ = ParseURITemplate(d.URITemplate)
	}
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		args := make(map[string]interface{}, len(req.Params.Arguments))
		for k, v := range req.Params.Arguments {
			args[k] = unwrapTemplateValue(v)
		}
		if len(args) == 0 && tmpl != nil {
			args = MatchURITemplate(tmpl, req.Params.URI)
		}
		return d.Handler(ctx, req.Params.URI, args)
	}
}

// ParseURITemplate parses an RFC 6570 URI template.
func ParseURITemplate(s string) (*uritemplate.Template, error) {
	tmpl, err := uritemplate.New(s)
	if err != nil {
		return nil, fmt.Errorf("invalid uriTemplate %q: %w", s, err)
	}
	return tmpl, nil
}

// MatchURITemplate extracts the variables of uri. It returns an empty map
// when uri does not match.
func MatchURITemplate(tmpl *uritemplate.Template, uri string) map[string]interface{} {
	args := make(map[string]interface{})
	values := tmpl.Match(uri)
	for _, name := range tmpl.Varnames() {
		if v := values.Get(name); v.Valid() {
			args[name] = v.String()
		}
	}
	return args
}

// unwrapTemplateValue flattens single-element string lists, which is how
// the runtime reports matched template variables.
func unwrapTemplateValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case []string:
		if len(vv) == 1 {
			return vv[0]
		}
	case []interface{}:
		if len(vv) == 1 {
			return vv[0]
		}
	}
	return v
}

// MCPPrompt converts the definition into its protocol form.
func (d *PromptDefinition) MCPPrompt() mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(describe(d.Description, d.Title))}
	for _, a := range d.Arguments {
		argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(a.Description)}
		if a.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(a.Name, argOpts...))
	}
	return mcp.NewPrompt(d.Name, opts...)
}

// ServerPrompt builds the registration of the prompt.
func (d *PromptDefinition) ServerPrompt() server.ServerPrompt {
	return server.ServerPrompt{
		Prompt: d.MCPPrompt(),
		Handler: func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return d.Handler(ctx, req.Params.Arguments)
		},
	}
}

func describe(description, title string) string {
	if description != "" {
		return description
	}
	return title
}
