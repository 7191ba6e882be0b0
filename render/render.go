// Package render formats aggregation rows as text.
package render

import (
	"fmt"

	"github.com/flanksource/graphene/types"
)

// Tabular is the data a renderer consumes.
type Tabular interface {
	// Labels names the key components of every row.
	Labels() []string
	Kind() types.Kind
	Rows() (types.Rows, error)
}

type Renderer interface {
	Render(t Tabular) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(t Tabular) (string, error)

func (f RendererFunc) Render(t Tabular) (string, error) {
	return f(t)
}

// Headers returns the labels followed by the value column header.
func Headers(t Tabular) []string {
	return append(append([]string{}, t.Labels()...), t.Kind().ValueLabel())
}

// FormatValue formats a row value for kind.
func FormatValue(kind types.Kind, row types.Row) string {
	if kind == types.KindPercentages {
		return fmt.Sprintf("%.2f%s", row.Value, kind.Unit())
	}
	return fmt.Sprintf("%d", row.Count)
}

// Get returns the renderer registered under name.
func Get(name string) (Renderer, error) {
	switch name {
	case "", "table":
		return Table{}, nil
	case "bars", "bar":
		return Bars{}, nil
	case "line", "graph":
		return Line{}, nil
	case "json":
		return JSON{}, nil
	case "yaml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (table, bars, line, json, yaml)", name)
	}
}
