package graphene

import (
	"cmp"
	"errors"
	"slices"

	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/types"
)

type group struct {
	key   types.Key
	count int
}

// groupBy counts resources per key. Groups are returned in order of first
// appearance. Nothing is returned unless every resource was grouped.
func groupBy[T any](resources []T, attrs []extract.Attribute[T]) ([]group, error) {
	var index groupIndex
	var groups []group

	for i, resource := range resources {
		key, err := extract.Key(attrs, i, resource)
		if err != nil {
			return nil, err
		}

		position, created, err := index.lookup(key)
		if err != nil {
			label := "key"
			var keyErr *keyError
			if errors.As(err, &keyErr) && keyErr.Component < len(attrs) {
				label = attrs[keyErr.Component].Label
			}
			return nil, api.ExtractorEvaluation(i, label, err)
		}
		if created {
			groups = append(groups, group{key: key})
		}
		groups[position].count++
	}

	return groups, nil
}

// sortRows orders rows by value, descending. Equal values keep their
// relative order, which is the order of first appearance.
func sortRows(rows types.Rows) {
	slices.SortStableFunc(rows, func(a, b types.Row) int {
		return cmp.Compare(b.Value, a.Value)
	})
}

func subtotalRows(groups []group) types.Rows {
	rows := make(types.Rows, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, types.Row{Key: g.key, Count: g.count, Value: float64(g.count)})
	}
	sortRows(rows)
	return rows
}

// percentageRows converts counts into shares of total. Groups below the
// threshold are merged into one row keyed by the other label, appended
// after the real groups so that it sorts last among equal values.
func percentageRows(groups []group, total int, width int, opts types.Options) types.Rows {
	rows := make(types.Rows, 0, len(groups))
	if total == 0 {
		return rows
	}

	other := types.Row{Other: true}
	for _, g := range groups {
		row := types.Row{
			Key:   g.key,
			Count: g.count,
			Value: share(g.count, total),
		}

		if opts.Threshold != nil && row.Value < *opts.Threshold {
			other.Count += row.Count
			continue
		}
		rows = append(rows, row)
	}

	if other.Count > 0 {
		other.Value = share(other.Count, total)
		other.Key = make(types.Key, width)
		for i := range other.Key {
			other.Key[i] = opts.Other()
		}
		rows = append(rows, other)
	}

	sortRows(rows)
	return rows
}

func share(count, total int) float64 {
	return 100 * float64(count) / float64(total)
}
