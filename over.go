package graphene

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/extract"
	"github.com/flanksource/graphene/lazy"
	"github.com/flanksource/graphene/render"
	"github.com/flanksource/graphene/types"
)

// Partition is the subset of resources sharing one value of the over
// attribute, with its own aggregation.
type Partition[T any] struct {
	Key     any
	Size    int
	Results *ResultSet[T]
}

// Over is a ResultSet regrouped by one more attribute. Partitions are
// built on first access, in order of first appearance of their key.
// Percentages inside a partition are relative to the partition size.
type Over[T any] struct {
	base       *ResultSet[T]
	attribute  extract.Attribute[T]
	partitions *lazy.Memo[partitionSet[T]]
}

type partitionSet[T any] struct {
	list  []Partition[T]
	index groupIndex
}

func newOver[T any](base *ResultSet[T], attribute extract.Attribute[T]) *Over[T] {
	o := &Over[T]{base: base, attribute: attribute}
	o.partitions = lazy.New(o.partition)
	return o
}

func (o *Over[T]) partition() (partitionSet[T], error) {
	var p partitionSet[T]
	var members [][]T

	for i, resource := range o.base.resources {
		v, err := o.attribute.Eval(resource)
		if err != nil {
			return partitionSet[T]{}, api.ExtractorEvaluation(i, o.attribute.Label, err)
		}

		position, created, err := p.index.lookup([]any{v})
		if err != nil {
			return partitionSet[T]{}, api.ExtractorEvaluation(i, o.attribute.Label, err)
		}
		if created {
			p.list = append(p.list, Partition[T]{Key: v})
			members = append(members, nil)
		}
		members[position] = append(members[position], resource)
	}

	for i := range p.list {
		p.list[i].Size = len(members[i])
		p.list[i].Results = derive(o.base.kind, members[i], o.base.resolved)
	}

	log.V(3).Infof("%s over %s: %d partitions", o.base.kind, o.attribute.Label, len(p.list))
	return p, nil
}

// Label names the over attribute.
func (o *Over[T]) Label() string {
	return o.attribute.Label
}

func (o *Over[T]) Base() *ResultSet[T] {
	return o.base
}

func (o *Over[T]) Partitions() ([]Partition[T], error) {
	p, err := o.partitions.Get()
	if err != nil {
		return nil, err
	}
	out := make([]Partition[T], len(p.list))
	copy(out, p.list)
	return out, nil
}

func (o *Over[T]) Len() (int, error) {
	p, err := o.partitions.Get()
	return len(p.list), err
}

// Keys returns the partition keys in order of first appearance.
func (o *Over[T]) Keys() ([]any, error) {
	p, err := o.partitions.Get()
	if err != nil {
		return nil, err
	}
	keys := make([]any, len(p.list))
	for i, part := range p.list {
		keys[i] = part.Key
	}
	return keys, nil
}

// Get returns the aggregation of the partition for key.
func (o *Over[T]) Get(key any) (*ResultSet[T], bool, error) {
	p, err := o.partitions.Get()
	if err != nil {
		return nil, false, err
	}
	position, ok := p.index.find([]any{key})
	if !ok {
		return nil, false, nil
	}
	return p.list[position].Results, true, nil
}

// Each calls fn for every partition in order, stopping at the first error.
func (o *Over[T]) Each(fn func(key any, results *ResultSet[T]) error) error {
	p, err := o.partitions.Get()
	if err != nil {
		return err
	}
	for _, part := range p.list {
		if err := fn(part.Key, part.Results); err != nil {
			return err
		}
	}
	return nil
}

// Rows computes every partition and returns its rows by key. Keys must be
// comparable.
func (o *Over[T]) Rows() (map[any]types.Rows, error) {
	p, err := o.partitions.Get()
	if err != nil {
		return nil, err
	}

	out := make(map[any]types.Rows, len(p.list))
	for i, part := range p.list {
		if part.Key != nil && !reflect.ValueOf(part.Key).Comparable() {
			return nil, api.InvalidExtractor(i, part.Key, "%s value %T cannot be used as a map key, use Partitions", o.attribute.Label, part.Key)
		}

		rows, err := part.Results.Rows()
		if err != nil {
			return nil, err
		}
		out[part.Key] = rows
	}
	return out, nil
}

// Render renders every partition under a heading naming its key.
func (o *Over[T]) Render(renderer render.Renderer) (string, error) {
	p, err := o.partitions.Get()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, part := range p.list {
		if i > 0 {
			sb.WriteString("\n")
		}
		out, err := part.Results.Render(renderer)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%s=%v (%d)\n%s", o.attribute.Label, part.Key, part.Size, out)
	}
	return sb.String(), nil
}

func (o *Over[T]) String() string {
	out, err := o.Render(render.Table{})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}
