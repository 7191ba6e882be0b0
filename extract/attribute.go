// Package extract turns the arguments of an aggregation into attributes:
// functions applied to every resource to produce one component of its
// group key.
package extract

import (
	"fmt"

	"github.com/flanksource/graphene/api"
)

// Func derives one key component from a resource.
type Func[T any] func(T) (any, error)

// Attribute is a resolved extractor.
type Attribute[T any] struct {
	// Label names the attribute in column headers.
	Label string
	Fn    Func[T]
}

// Accessors is a registry of named accessors for T, consulted before any
// reflection when a string argument is resolved.
type Accessors[T any] map[string]Func[T]

// Getter lifts a plain getter into a Func.
func Getter[T any, V any](fn func(T) V) Func[T] {
	return func(t T) (any, error) {
		return fn(t), nil
	}
}

// Named wraps fn into an attribute with the given label.
func Named[T any, V any](label string, fn func(T) V) Attribute[T] {
	return Attribute[T]{Label: label, Fn: Getter(fn)}
}

// Eval applies the attribute to resource. Panics raised by caller supplied
// functions are returned as errors.
func (a Attribute[T]) Eval(resource T) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Fn(resource)
}

// Key evaluates every attribute on the resource at index.
func Key[T any](attrs []Attribute[T], index int, resource T) ([]any, error) {
	key := make([]any, len(attrs))
	for i, attr := range attrs {
		v, err := attr.Eval(resource)
		if err != nil {
			return nil, api.ExtractorEvaluation(index, attr.Label, err)
		}
		key[i] = v
	}
	return key, nil
}

// Labels returns the label of every attribute.
func Labels[T any](attrs []Attribute[T]) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Label
	}
	return out
}
