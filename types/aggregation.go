package types

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Kind identifies the aggregation a result set performs.
type Kind string

const (
	KindSubtotals   Kind = "subtotals"
	KindPercentages Kind = "percentages"
)

// Unit is the suffix renderers append to a value of this kind.
func (k Kind) Unit() string {
	if k == KindPercentages {
		return "%"
	}
	return ""
}

// ValueLabel is the column header for the value column.
func (k Kind) ValueLabel() string {
	if k == KindPercentages {
		return "percentage"
	}
	return "count"
}

func (k Kind) Valid() bool {
	return k == KindSubtotals || k == KindPercentages
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSubtotals, "subtotal", "count":
		return KindSubtotals, nil
	case KindPercentages, "percentage", "percent":
		return KindPercentages, nil
	default:
		return "", fmt.Errorf("unknown aggregation kind %q (subtotals, percentages)", s)
	}
}

// Key is the tuple of attribute values identifying a group.
// Components are in attribute order.
type Key []any

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

// Row is a single aggregation result.
type Row struct {
	Key Key `json:"key"`

	// Count is the number of resources in the group.
	Count int `json:"count"`

	// Value is Count for subtotals and the share (0-100) of the
	// population for percentages.
	Value float64 `json:"value"`

	// Other marks the synthetic row holding groups collapsed below the
	// percentage threshold.
	Other bool `json:"other,omitempty"`
}

// Tuple returns (k_1, ..., k_n, value). The value is an int for
// subtotals and a float64 for percentages.
func (r Row) Tuple(kind Kind) []any {
	out := make([]any, 0, len(r.Key)+1)
	out = append(out, r.Key...)
	if kind == KindPercentages {
		return append(out, r.Value)
	}
	return append(out, r.Count)
}

func (r Row) String() string {
	return fmt.Sprintf("[%s, %v]", r.Key, r.Value)
}

// Rows are ordered by Value, descending.
type Rows []Row

// Values returns the value column.
func (rows Rows) Values() []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Value
	}
	return out
}

// Sum adds up the value column. Percentages sum to 100 up to rounding.
func (rows Rows) Sum() float64 {
	return floats.Sum(rows.Values())
}

// Total returns the number of resources accounted for by the rows.
func (rows Rows) Total() int {
	var total int
	for _, r := range rows {
		total += r.Count
	}
	return total
}

// Tuples converts every row with Row.Tuple.
func (rows Rows) Tuples(kind Kind) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Tuple(kind)
	}
	return out
}

// Sorted reports whether rows are in descending value order.
func (rows Rows) Sorted() bool {
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Value < rows[i].Value {
			return false
		}
	}
	return true
}
