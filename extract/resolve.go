package extract

import (
	"fmt"
	"reflect"

	"github.com/flanksource/graphene/api"
	"github.com/flanksource/graphene/types"
)

// Resolved holds the outcome of resolving the arguments of an aggregation.
type Resolved[T any] struct {
	Attributes []Attribute[T]
	Options    types.Options
	Accessors  Accessors[T]
}

// Resolve turns aggregation arguments into attributes and options.
//
// Recognised arguments are accessor names (string), functions of T,
// Attribute[T], Func[T], Expression, Accessors[T] and, as the final
// argument only, types.Options. Anything else fails with
// api.ErrInvalidExtractor.
func Resolve[T any](args ...any) (Resolved[T], error) {
	var r Resolved[T]

	for i, arg := range args {
		switch v := arg.(type) {
		case Accessors[T]:
			r.Accessors = mergeAccessors[T](r.Accessors, v)
		case map[string]Func[T]:
			r.Accessors = mergeAccessors[T](r.Accessors, v)
		case types.Options:
			if i != len(args)-1 {
				return r, api.InvalidExtractor(i, arg, "options must be the last argument")
			}
			r.Options = v
		case *types.Options:
			if i != len(args)-1 {
				return r, api.InvalidExtractor(i, arg, "options must be the last argument")
			}
			if v != nil {
				r.Options = *v
			}
		}
	}

	for i, arg := range args {
		switch arg.(type) {
		case Accessors[T], map[string]Func[T], types.Options, *types.Options:
			continue
		}

		attr, err := r.resolve(i, arg, len(r.Attributes))
		if err != nil {
			return r, err
		}
		r.Attributes = append(r.Attributes, attr)
	}

	if len(r.Attributes) == 0 {
		return r, api.InvalidExtractor(len(args), nil, "at least one attribute is required")
	}

	return r, nil
}

// Resolve resolves one more argument with the same accessor registry.
func (r Resolved[T]) Resolve(arg any) (Attribute[T], error) {
	return r.resolve(0, arg, len(r.Attributes))
}

func (r Resolved[T]) resolve(index int, arg any, position int) (Attribute[T], error) {
	label := fmt.Sprintf("attr_%d", position+1)

	switch v := arg.(type) {
	case nil:
		return Attribute[T]{}, api.InvalidExtractor(index, arg, "nil is not an extractor")

	case string:
		if v == "" {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "accessor name is empty")
		}
		if fn, ok := r.Accessors[v]; ok && fn != nil {
			return Attribute[T]{Label: v, Fn: fn}, nil
		}
		fn, err := accessor[T](v)
		if err != nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "%s", err)
		}
		return Attribute[T]{Label: v, Fn: fn}, nil

	case Attribute[T]:
		if v.Fn == nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "attribute %q has no function", v.Label)
		}
		if v.Label == "" {
			v.Label = label
		}
		return v, nil

	case Func[T]:
		if v == nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "nil function")
		}
		return Attribute[T]{Label: label, Fn: v}, nil

	case func(T) (any, error):
		if v == nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "nil function")
		}
		return Attribute[T]{Label: label, Fn: v}, nil

	case func(T) any:
		if v == nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "nil function")
		}
		return Attribute[T]{Label: label, Fn: Getter(v)}, nil

	case Expression:
		fn, err := compileExpression[T](v)
		if err != nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "%s", err)
		}
		return Attribute[T]{Label: v.String(), Fn: fn}, nil

	case *Expression:
		if v == nil {
			return Attribute[T]{}, api.InvalidExtractor(index, arg, "nil expression")
		}
		return r.resolve(index, *v, position)
	}

	fn, err := reflectFunc[T](arg)
	if err != nil {
		return Attribute[T]{}, api.InvalidExtractor(index, arg, "%s", err)
	}
	return Attribute[T]{Label: label, Fn: fn}, nil
}

// reflectFunc adapts any func(P) V or func(P) (V, error) where P accepts T.
func reflectFunc[T any](arg any) (Func[T], error) {
	fv := reflect.ValueOf(arg)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is neither an accessor name nor a function", arg)
	}
	if fv.IsNil() {
		return nil, fmt.Errorf("nil function")
	}

	ft := fv.Type()
	if ft.NumIn() != 1 || ft.IsVariadic() {
		return nil, fmt.Errorf("%s must take exactly one argument", ft)
	}

	switch ft.NumOut() {
	case 1:
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("second result of %s must be an error", ft)
		}
	default:
		return nil, fmt.Errorf("%s must return a value or (value, error)", ft)
	}

	resourceType := reflect.TypeFor[T]()
	in := ft.In(0)
	dynamic := resourceType.Kind() == reflect.Interface
	if !resourceType.AssignableTo(in) && !dynamic {
		return nil, fmt.Errorf("%s cannot be applied to %s", ft, resourceType)
	}

	return func(resource T) (any, error) {
		rv := reflect.ValueOf(&resource).Elem()
		if dynamic {
			if rv.IsNil() {
				rv = reflect.Zero(in)
			} else {
				rv = rv.Elem()
			}
			if !rv.Type().AssignableTo(in) {
				return nil, fmt.Errorf("%s cannot be applied to %s", ft, rv.Type())
			}
		}

		out := fv.Call([]reflect.Value{rv})
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, nil
}

var errorType = reflect.TypeFor[error]()

func mergeAccessors[T any](dst, src map[string]Func[T]) Accessors[T] {
	if dst == nil {
		dst = make(Accessors[T], len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
