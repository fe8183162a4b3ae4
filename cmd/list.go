package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcpkit/internal/app"
	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/dispatch"
	"github.com/giantswarm/mcpkit/internal/formatting"
	"github.com/giantswarm/mcpkit/internal/registry"
)

var (
	listOutputFormat string
	listQuiet        bool
	listFilter       string
	listDescription  string
	listOverlay      string
)

// listKinds are the accepted kind arguments for autocompletion.
var listKinds = []string{
	"tool", "tools",
	"resource", "resources",
	"prompt", "prompts",
	"handler", "handlers",
}

// FilterOptions contains filter criteria for listed definitions
type FilterOptions struct {
	// Pattern is a wildcard pattern to match against names (* and ? supported)
	Pattern string
	// Description is a case-insensitive substring to match against descriptions
	Description string
	// Overlay filters by overlay name (case-insensitive prefix match)
	Overlay string
}

// IsEmpty returns true if no filters are set
func (o FilterOptions) IsEmpty() bool {
	return o.Pattern == "" && o.Description == "" && o.Overlay == ""
}

// matchesWildcard checks if a name matches a wildcard pattern.
// Supports * (matches any sequence of characters) and ? (matches any single character).
func matchesWildcard(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	// path.Match uses the same wildcard syntax we want
	matched, err := path.Match(pattern, name)
	if err != nil {
		// Invalid pattern - return false
		return false
	}
	return matched
}

// matchesDescription checks if a description contains the given substring (case-insensitive)
func matchesDescription(description, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(filter))
}

// matchesOverlay checks if an overlay name starts with the filter (case-insensitive)
func matchesOverlay(overlay, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(overlay), strings.ToLower(filter))
}

// matchesFilter checks if an item matches every filter
func matchesFilter(item formatting.Item, opts FilterOptions) bool {
	return matchesWildcard(item.Name, opts.Pattern) &&
		matchesDescription(item.Description, opts.Description) &&
		matchesOverlay(item.Overlay, opts.Overlay)
}

// buildListing collects the compiled definitions of the requested kinds.
// An empty kinds set selects every kind.
func buildListing(r *registry.Registry, kinds map[capability.Kind]bool, opts FilterOptions) formatting.Listing {
	want := func(k capability.Kind) bool { return len(kinds) == 0 || kinds[k] }

	var items []formatting.Item
	if want(capability.KindTool) {
		for _, t := range r.Tools() {
			items = append(items, item(capability.KindTool, t.Name, t.Title, t.Description, "", t.Provenance))
		}
	}
	if want(capability.KindResource) {
		for _, res := range r.Resources() {
			detail := res.URI
			if res.IsTemplate() {
				detail = res.URITemplate
			}
			items = append(items, item(capability.KindResource, res.Name, res.Title, res.Description, detail, res.Provenance))
		}
	}
	if want(capability.KindPrompt) {
		for _, p := range r.Prompts() {
			items = append(items, item(capability.KindPrompt, p.Name, p.Title, p.Description, "", p.Provenance))
		}
	}
	if want(capability.KindHandler) {
		handlers := r.Handlers()
		if d := r.DefaultHandler(); d != nil {
			handlers = append([]*registry.HandlerOverride{d}, handlers...)
		}
		for _, h := range handlers {
			name := h.Name
			if h == r.DefaultHandler() {
				name = "(default)"
			}
			items = append(items, item(capability.KindHandler, name, "", handlerSummary(h), h.Route, h.Provenance))
		}
	}

	listing := formatting.Listing{}
	for _, it := range items {
		if opts.IsEmpty() || matchesFilter(it, opts) {
			listing.Items = append(listing.Items, it)
		}
	}
	for _, s := range r.Stats() {
		if !want(s.Kind) {
			continue
		}
		listing.Summary = append(listing.Summary, formatting.Count{
			Kind:       s.Kind.Plural(),
			Candidates: s.Candidates,
			Compiled:   s.Compiled,
			Overridden: s.Overridden,
		})
	}
	return listing
}

func item(kind capability.Kind, name, title, description, detail string, p capability.Provenance) formatting.Item {
	return formatting.Item{
		Kind:        kind.String(),
		Name:        name,
		Title:       title,
		Description: description,
		Detail:      detail,
		Overlay:     p.Overlay,
		Path:        p.Path,
	}
}

// handlerSummary describes what a handler override curates.
func handlerSummary(h *registry.HandlerOverride) string {
	var parts []string
	count := func(label string, n int, set bool) {
		if set {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	count("tools", len(h.Tools), h.Tools != nil)
	count("resources", len(h.Resources), h.Resources != nil)
	count("prompts", len(h.Prompts), h.Prompts != nil)
	if h.Middleware != "" {
		parts = append(parts, "middleware "+h.Middleware)
	}
	return strings.Join(parts, ", ")
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List compiled definitions",
	Long: `List the tools, resources, prompts and handlers that serve would expose,
with the overlay and file each one comes from.

Available kinds:
  tool(s)       - Tools
  resource(s)   - Resources and resource templates
  prompt(s)     - Prompts
  handler(s)    - Handler overrides, the default handler included

Without a kind every definition is listed.

Filtering:
  --filter <pattern>       - Filter by name pattern (wildcards * and ? supported)
  --description <text>     - Filter by description content (case-insensitive substring)
  --overlay <name>         - Filter by overlay name prefix

Examples:
  mcpkit list
  mcpkit list tools --filter "git*"
  mcpkit list resources --output yaml
  mcpkit list --overlay app -o json`,
	Args:                  cobra.MaximumNArgs(1),
	ValidArgs:             listKinds,
	ArgAliases:            []string{"kind"},
	DisableFlagsInUseLine: true,
	RunE:                  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Suppress non-essential output")
	listCmd.Flags().StringVar(&listFilter, "filter", "", "Filter by name pattern (wildcards * and ? supported)")
	listCmd.Flags().StringVar(&listDescription, "description", "", "Filter by description content (case-insensitive substring)")
	listCmd.Flags().StringVar(&listOverlay, "overlay", "", "Filter by overlay name prefix")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(listOutputFormat)
	if err != nil {
		return err
	}

	kinds := make(map[capability.Kind]bool)
	if len(args) == 1 {
		kind, err := capability.ParseKind(args[0])
		if err != nil {
			return fmt.Errorf("%w. Available kinds: tools, resources, prompts, handlers", err)
		}
		kinds[kind] = true
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := app.LoadRegistry(cfg, registry.Bindings{Middleware: dispatch.DefaultMiddleware()})
	if err != nil {
		printReport(cmd, err)
		return err
	}

	listing := buildListing(r, kinds, FilterOptions{
		Pattern:     listFilter,
		Description: listDescription,
		Overlay:     listOverlay,
	})

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  listQuiet,
		Output: cmd.OutOrStdout(),
	})
	return formatter.FormatListing(listing)
}
