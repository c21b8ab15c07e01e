// Package render turns structured data into printable lines: trees for
// nested documents, tables for tabular results and bullet lists.
package render

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"stagehand/pkg/jsonconf"
)

// Output formats understood by Format.
const (
	FormatTree = "tree"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted values for Format.
func Formats() []string {
	return []string{FormatTree, FormatJSON, FormatYAML}
}

// Tree renders nested maps and slices as a connected tree. Map keys are
// sorted; leaves are shown as "key: value".
func Tree(data interface{}) []string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	appendTree(l, normalize(data))
	return splitLines(l.Render())
}

func appendTree(l list.Writer, data interface{}) {
	switch v := data.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			appendNode(l, k, v[k])
		}
	case []interface{}:
		for i, child := range v {
			appendNode(l, fmt.Sprintf("[%d]", i), child)
		}
	default:
		l.AppendItem(Scalar(v))
	}
}

func appendNode(l list.Writer, label string, child interface{}) {
	switch c := child.(type) {
	case map[string]interface{}:
		if len(c) == 0 {
			l.AppendItem(label + ": {}")
			return
		}
	case []interface{}:
		if len(c) == 0 {
			l.AppendItem(label + ": []")
			return
		}
	default:
		l.AppendItem(label + ": " + Scalar(child))
		return
	}
	l.AppendItem(label)
	l.Indent()
	appendTree(l, child)
	l.UnIndent()
}

// List renders items as a bulleted list.
func List(items ...interface{}) []string {
	l := list.NewWriter()
	l.SetStyle(list.StyleBulletCircle)
	for _, item := range items {
		l.AppendItem(Scalar(item))
	}
	return splitLines(l.Render())
}

// Column describes one table column. A positive MaxWidth truncates cell
// values to that many runes.
type Column struct {
	Label    string
	Align    text.Align
	MaxWidth int
}

// Table renders rows under a header built from columns. An optional footer
// row is rendered below the data.
func Table(columns []Column, rows [][]interface{}, footer []interface{}) []string {
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t := table.NewWriter()
	t.SetStyle(style)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = text.FgHiCyan.Sprint(col.Label)
		configs[i] = table.ColumnConfig{Number: i + 1, Align: col.Align, AlignFooter: col.Align}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(row))
		for i, cell := range row {
			s := Scalar(cell)
			if i < len(columns) && columns[i].MaxWidth > 0 {
				s = Truncate(s, columns[i].MaxWidth)
			}
			cells[i] = s
		}
		t.AppendRow(cells)
	}
	if len(footer) > 0 {
		t.AppendFooter(table.Row(footer))
	}

	return splitLines(t.Render())
}

// Format renders data in one of the supported output formats.
func Format(data interface{}, format string) ([]string, error) {
	switch format {
	case "", FormatTree:
		return Tree(data), nil
	case FormatJSON:
		return splitLines(jsonconf.Dump(data)), nil
	case FormatYAML:
		out, err := yaml.Marshal(normalize(data))
		if err != nil {
			return nil, fmt.Errorf("failed to render yaml: %w", err)
		}
		return splitLines(string(out)), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
