package formatting

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	strs "github.com/giantswarm/mcpkit/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatListing renders the items and, unless quiet, the per-kind summary.
func (f *TableFormatter) FormatListing(l Listing) error {
	if len(l.Items) == 0 {
		f.printEmptyMessage("No definitions found")
	} else {
		t := f.createTable()
		t.AppendHeader(header("KIND", "NAME", "DETAIL", "OVERLAY", "PATH"))
		for _, item := range l.Items {
			detail := item.Detail
			if detail == "" {
				detail = item.Description
			}
			t.AppendRow(table.Row{
				item.Kind,
				text.FgHiWhite.Sprint(item.Name),
				strs.Truncate(detail, strs.DetailMaxLen),
				item.Overlay,
				item.Path,
			})
		}
		t.Render()
	}

	if f.options.Quiet || len(l.Summary) == 0 {
		return nil
	}

	t := f.createTable()
	t.AppendHeader(header("KIND", "CANDIDATES", "COMPILED", "OVERRIDDEN"))
	for _, c := range l.Summary {
		t.AppendRow(table.Row{c.Kind, c.Candidates, c.Compiled, c.Overridden})
	}
	t.Render()
	return nil
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case []interface{}:
		return f.formatArrayData(d)
	case string:
		fmt.Fprintln(f.options.writer(), d)
	default:
		fmt.Fprintf(f.options.writer(), "%v\n", d)
	}
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// Helper methods

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

func header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, n := range names {
		row[i] = text.FgHiCyan.Sprint(n)
	}
	return row
}

func (f *TableFormatter) printEmptyMessage(message string) {
	fmt.Fprintf(f.options.writer(), "%s\n", text.FgYellow.Sprint(message))
}

// formatObjectData formats object data as key-value pairs sorted by key
func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()
	t.AppendHeader(header("KEY", "VALUE"))

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{
			text.FgHiCyan.Sprint(key),
			strs.Truncate(fmt.Sprintf("%v", data[key]), strs.ValueMaxLen),
		})
	}

	t.Render()
	return nil
}

// formatArrayData formats array data as a numbered list
func (f *TableFormatter) formatArrayData(data []interface{}) error {
	w := f.options.writer()
	if len(data) == 0 {
		f.printEmptyMessage("No items found")
		return nil
	}

	for i, item := range data {
		fmt.Fprintf(w, "  %d. %v\n", i+1, item)
	}

	if !f.options.Quiet {
		fmt.Fprintf(w, "\n%s %s %s\n",
			text.FgHiBlue.Sprint("Total:"),
			text.FgHiWhite.Sprint(len(data)),
			text.FgHiBlue.Sprint("items"))
	}
	return nil
}
