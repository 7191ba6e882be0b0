package graphene

import (
	"fmt"
	"math"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// canonicalKey stands in for key components that cannot be used as map keys.
type canonicalKey struct {
	Type  string
	Value string
}

// hashable returns a map key with the same equality as v: comparable
// values keep Go equality, everything else is compared by type and JSON
// encoding. NaN is equal to NaN, also inside structs and arrays, so that it
// forms one group.
func hashable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Comparable() {
		if containsNaN(rv) {
			return canonicalKey{Type: rv.Type().String(), Value: fmt.Sprintf("%#v", v)}, nil
		}
		return v, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%T cannot be used in a group key: %w", v, err)
	}
	return canonicalKey{Type: rv.Type().String(), Value: string(b)}, nil
}

// containsNaN reports whether a comparable value holds a NaN, directly or in
// a struct field, array element or interface. Pointers and channels compare
// by identity and are not followed.
func containsNaN(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return math.IsNaN(real(c)) || math.IsNaN(imag(c))
	case reflect.Interface:
		return !rv.IsNil() && containsNaN(rv.Elem())
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if containsNaN(rv.Index(i)) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if containsNaN(rv.Field(i)) {
				return true
			}
		}
	}
	return false
}

// keyError is returned by lookup when a key component cannot be hashed.
type keyError struct {
	// Component is the position of the failing component in the key.
	Component int
	Err       error
}

func (e *keyError) Error() string {
	return fmt.Sprintf("key component %d: %v", e.Component, e.Err)
}

func (e *keyError) Unwrap() error {
	return e.Err
}

// groupIndex assigns positions to keys in order of first appearance.
type groupIndex struct {
	root groupNode
	size int
}

type groupNode struct {
	children map[any]*groupNode
	position int
	leaf     bool
}

// lookup returns the position of key, adding it when unseen.
func (g *groupIndex) lookup(key []any) (position int, created bool, err error) {
	node := &g.root
	for i, component := range key {
		k, err := hashable(component)
		if err != nil {
			return 0, false, &keyError{Component: i, Err: err}
		}

		if node.children == nil {
			node.children = make(map[any]*groupNode)
		}
		child, ok := node.children[k]
		if !ok {
			child = &groupNode{}
			node.children[k] = child
		}
		node = child
	}

	if node.leaf {
		return node.position, false, nil
	}

	node.leaf = true
	node.position = g.size
	g.size++
	return node.position, true, nil
}

// find returns the position of key without adding it.
func (g *groupIndex) find(key []any) (int, bool) {
	node := &g.root
	for _, component := range key {
		k, err := hashable(component)
		if err != nil || node.children == nil {
			return 0, false
		}
		child, ok := node.children[k]
		if !ok {
			return 0, false
		}
		node = child
	}

	if !node.leaf {
		return 0, false
	}
	return node.position, true
}
