package render

import (
	"bytes"

	"github.com/rodaine/table"
	"github.com/samber/lo"
)

// Table renders one column per key component plus the value column.
type Table struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

func (r Table) Render(t Tabular) (string, error) {
	rows, err := t.Rows()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	headers := lo.Map(Headers(t), func(h string, _ int) any { return h })
	tbl := table.New(headers...).
		WithWriter(&buf).
		WithPrintHeaders(!r.NoHeaders).
		WithHeaderSeparatorRow('-')

	for _, row := range rows {
		vals := make([]any, 0, len(row.Key)+1)
		vals = append(vals, row.Key...)
		vals = append(vals, FormatValue(t.Kind(), row))
		tbl.AddRow(vals...)
	}

	tbl.Print()
	return buf.String(), nil
}
