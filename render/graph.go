package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const defaultBarWidth = 40

// Bars renders a horizontal bar per row, scaled to the largest value.
type Bars struct {
	Width int
	Char  string
}

func (r Bars) Render(t Tabular) (string, error) {
	rows, err := t.Rows()
	if err != nil || len(rows) == 0 {
		return "", err
	}

	width := r.Width
	if width <= 0 {
		width = defaultBarWidth
	}
	char := r.Char
	if char == "" {
		char = "#"
	}

	labels := make([]string, len(rows))
	labelWidth := 0
	peak := 0.0
	for i, row := range rows {
		labels[i] = row.Key.String()
		labelWidth = max(labelWidth, len(labels[i]))
		peak = math.Max(peak, row.Value)
	}

	var sb strings.Builder
	for i, row := range rows {
		n := 0
		if peak > 0 {
			n = int(math.Round(row.Value / peak * float64(width)))
		}
		fmt.Fprintf(&sb, "%-*s | %s %s\n", labelWidth, labels[i], strings.Repeat(char, n), FormatValue(t.Kind(), row))
	}
	return sb.String(), nil
}

// Line plots the row values, in order, as an ascii line graph.
type Line struct {
	Height  int
	Caption string
}

func (r Line) Render(t Tabular) (string, error) {
	rows, err := t.Rows()
	if err != nil || len(rows) == 0 {
		return "", err
	}

	opts := []asciigraph.Option{}
	if r.Height > 0 {
		opts = append(opts, asciigraph.Height(r.Height))
	}
	caption := r.Caption
	if caption == "" {
		caption = fmt.Sprintf("%s by %s", t.Kind().ValueLabel(), strings.Join(t.Labels(), ", "))
	}
	opts = append(opts, asciigraph.Caption(caption))

	return asciigraph.Plot(rows.Values(), opts...) + "\n", nil
}
