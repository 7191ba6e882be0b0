// Package graphene computes subtotals and percentage shares over in-memory
// collections, grouped by one or more attributes of the resources.
//
//	logins := []Login{...}
//	rs, err := graphene.Percentages(logins, "browser_family")
//	rows, err := rs.Rows()
//	// [[Firefox, 50.4], [Chrome, 19.6], [Internet Explorer, 15], ...]
//
//	byDay, err := rs.Over("date")
//
// Attributes are accessor names (struct fields, methods or map keys),
// functions of the resource, or expressions built with extract.CEL,
// extract.JQ and extract.JSONPath. A types.Options value may be passed as
// the last argument.
package graphene

import (
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/types"
)

// Subtotals counts the resources sharing the same attribute values.
// Every row is (attributes..., count), ordered by count descending.
func Subtotals[T any](resources []T, args ...any) (*ResultSet[T], error) {
	return New(types.KindSubtotals, resources, args...)
}

// Percentages returns the share of the resources held by every distinct
// combination of attribute values. Every row is (attributes..., percentage),
// ordered by percentage descending.
//
// With Options.Threshold set, groups below the threshold are merged into
// a single row labelled Options.OtherLabel.
func Percentages[T any](resources []T, args ...any) (*ResultSet[T], error) {
	return New(types.KindPercentages, resources, args...)
}

// New builds a ResultSet of kind. Arguments are validated immediately;
// the resources are not visited until rows are read.
func New[T any](kind types.Kind, resources []T, args ...any) (*ResultSet[T], error) {
	resolved, err := extract.Resolve[T](args...)
	if err != nil {
		return nil, err
	}
	return newResultSet(kind, resources, resolved)
}
