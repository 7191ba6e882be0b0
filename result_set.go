package graphene

import (
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/lazy"
	"github.com/flanksource/graphene/render"
	"github.com/flanksource/graphene/types"
)

// ResultSet is a lazily computed aggregation over a collection of resources.
//
// Creating a ResultSet only stores references: the resources are visited
// the first time rows are read, and the rows are cached for the lifetime of
// the ResultSet. A pass aborted by an extractor error caches nothing.
type ResultSet[T any] struct {
	kind      types.Kind
	resources []T
	resolved  extract.Resolved[T]
	rows      *lazy.Memo[types.Rows]

	mu  sync.Mutex
	err error
}

func newResultSet[T any](kind types.Kind, resources []T, resolved extract.Resolved[T]) (*ResultSet[T], error) {
	if err := resolved.Options.Validate(kind); err != nil {
		return nil, api.InvalidOptions(err)
	}
	return derive(kind, resources, resolved), nil
}

func derive[T any](kind types.Kind, resources []T, resolved extract.Resolved[T]) *ResultSet[T] {
	r := &ResultSet[T]{
		kind:      kind,
		resources: resources,
		resolved:  resolved,
	}
	r.rows = lazy.New(r.compute)
	return r
}

func (r *ResultSet[T]) compute() (types.Rows, error) {
	start := time.Now()

	groups, err := groupBy(r.resources, r.resolved.Attributes)
	observe(r.kind, start, err)
	if err != nil {
		return nil, err
	}

	var rows types.Rows
	switch r.kind {
	case types.KindPercentages:
		rows = percentageRows(groups, len(r.resources), len(r.resolved.Attributes), r.resolved.Options)
	default:
		rows = subtotalRows(groups)
	}

	log.V(3).Infof("%s by %v: %d groups over %d resources in %s",
		r.kind, r.Labels(), len(rows), len(r.resources), time.Since(start))
	return rows, nil
}

func (r *ResultSet[T]) Kind() types.Kind {
	return r.kind
}

// Labels names the key components, in order.
func (r *ResultSet[T]) Labels() []string {
	return extract.Labels(r.resolved.Attributes)
}

func (r *ResultSet[T]) Options() types.Options {
	return r.resolved.Options
}

func (r *ResultSet[T]) Resources() []T {
	return r.resources
}

func (r *ResultSet[T]) Attributes() []extract.Attribute[T] {
	return slices.Clone(r.resolved.Attributes)
}

// Computed reports whether the rows have been computed.
func (r *ResultSet[T]) Computed() bool {
	return r.rows.Done()
}

// Rows computes the aggregation on first use and returns the rows ordered
// by value, descending.
func (r *ResultSet[T]) Rows() (types.Rows, error) {
	rows, err := r.rows.Get()
	if err != nil {
		return nil, err
	}
	return slices.Clone(rows), nil
}

func (r *ResultSet[T]) Len() (int, error) {
	rows, err := r.rows.Get()
	return len(rows), err
}

// At returns the row at index i.
func (r *ResultSet[T]) At(i int) (types.Row, error) {
	rows, err := r.rows.Get()
	if err != nil {
		return types.Row{}, err
	}
	if i < 0 || i >= len(rows) {
		return types.Row{}, fmt.Errorf("index %d out of range [0:%d]", i, len(rows))
	}
	return rows[i], nil
}

// Slice returns rows[i:j], with both bounds clamped to the available rows.
func (r *ResultSet[T]) Slice(i, j int) (types.Rows, error) {
	rows, err := r.rows.Get()
	if err != nil {
		return nil, err
	}
	i = min(max(i, 0), len(rows))
	j = min(max(j, i), len(rows))
	return slices.Clone(rows[i:j]), nil
}

// Each calls fn for every row in order, stopping at the first error.
func (r *ResultSet[T]) Each(fn func(i int, row types.Row) error) error {
	rows, err := r.rows.Get()
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := fn(i, row); err != nil {
			return err
		}
	}
	return nil
}

// All iterates over the rows. An aggregation error ends the iteration
// without yielding and is reported by Err.
func (r *ResultSet[T]) All() iter.Seq2[int, types.Row] {
	return func(yield func(int, types.Row) bool) {
		rows, err := r.rows.Get()
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()

		for i, row := range rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

// Err returns the error of the last iteration started with All.
func (r *ResultSet[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Tuples returns every row as (k_1, ..., k_n, value).
func (r *ResultSet[T]) Tuples() ([][]any, error) {
	rows, err := r.rows.Get()
	if err != nil {
		return nil, err
	}
	return rows.Tuples(r.kind), nil
}

// MaxResult returns the value of the last row.
//
// Rows are sorted descending, so despite its name this is the smallest
// value of the result set. Empty result sets return 0.
func (r *ResultSet[T]) MaxResult() (float64, error) {
	rows, err := r.rows.Get()
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[len(rows)-1].Value, nil
}

// Render formats the rows with renderer.
func (r *ResultSet[T]) Render(renderer render.Renderer) (string, error) {
	return renderer.Render(r)
}

func (r *ResultSet[T]) String() string {
	out, err := r.Render(render.Table{})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}

// WithOptions returns a new ResultSet of the same kind over the same
// resources and attributes with opts. The receiver is left untouched.
func (r *ResultSet[T]) WithOptions(opts types.Options) (*ResultSet[T], error) {
	resolved := r.resolved
	resolved.Options = opts
	return newResultSet(r.kind, r.resources, resolved)
}

// As returns a new ResultSet of kind over the same resources, attributes
// and options.
func (r *ResultSet[T]) As(kind types.Kind) (*ResultSet[T], error) {
	return newResultSet(kind, r.resources, r.resolved)
}

// Over partitions the resources by arg and aggregates every partition
// independently with the same kind, attributes and options.
func (r *ResultSet[T]) Over(arg any) (*Over[T], error) {
	attr, err := r.resolved.Resolve(arg)
	if err != nil {
		return nil, err
	}
	return newOver(r, attr), nil
}
