package extract

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/samber/lo"
)

type getter func(reflect.Value) (any, error)

// accessor resolves name against the static type T.
//
// Structs expose exported fields (by name or json tag) and zero argument
// methods, maps with string keys expose their entries. Interface types are
// resolved against the dynamic type of every resource.
func accessor[T any](name string) (Func[T], error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() == reflect.Interface {
		return dynamicAccessor[T](name), nil
	}

	get, err := getterFor(rt, name)
	if err != nil {
		return nil, err
	}

	return func(resource T) (any, error) {
		return get(reflect.ValueOf(&resource).Elem())
	}, nil
}

func dynamicAccessor[T any](name string) Func[T] {
	var getters sync.Map

	return func(resource T) (any, error) {
		v := reflect.ValueOf(&resource).Elem()
		if v.IsNil() {
			return nil, fmt.Errorf("cannot read %q of nil", name)
		}
		v = v.Elem()

		cached, ok := getters.Load(v.Type())
		if !ok {
			get, err := getterFor(v.Type(), name)
			if err != nil {
				return nil, err
			}
			cached, _ = getters.LoadOrStore(v.Type(), get)
		}

		return cached.(getter)(v)
	}
}

func candidates(name string) []string {
	pascal := lo.PascalCase(name)
	return lo.Uniq([]string{name, pascal, "Get" + pascal})
}

func getterFor(rt reflect.Type, name string) (getter, error) {
	base := rt
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	for _, candidate := range candidates(name) {
		if get, ok, err := methodGetter(rt, candidate); err != nil {
			return nil, err
		} else if ok {
			return get, nil
		}

		if base.Kind() == reflect.Struct {
			if f, ok := base.FieldByName(candidate); ok && f.IsExported() {
				return fieldGetter(rt, f), nil
			}
		}
	}

	switch base.Kind() {
	case reflect.Struct:
		if field, ok := fieldByTag(base, name); ok {
			return fieldGetter(rt, field), nil
		}

	case reflect.Map:
		if base.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%s has no accessor %q: map keys are not strings", rt, name)
		}
		key := reflect.ValueOf(name).Convert(base.Key())
		return func(v reflect.Value) (any, error) {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return nil, fmt.Errorf("cannot read %q of nil", name)
				}
				v = v.Elem()
			}
			entry := v.MapIndex(key)
			if !entry.IsValid() {
				return nil, nil
			}
			return entry.Interface(), nil
		}, nil
	}

	return nil, fmt.Errorf("%s has no accessor %q", rt, name)
}

func methodGetter(rt reflect.Type, name string) (getter, bool, error) {
	addressable := false
	method, ok := rt.MethodByName(name)
	if !ok && rt.Kind() != reflect.Pointer && rt.Kind() != reflect.Interface {
		method, ok = reflect.PointerTo(rt).MethodByName(name)
		addressable = ok
	}
	if !ok {
		return nil, false, nil
	}

	mt := method.Type
	if mt.NumIn() != 1 {
		return nil, false, fmt.Errorf("method %s.%s takes arguments", rt, name)
	}
	switch {
	case mt.NumOut() == 1:
	case mt.NumOut() == 2 && mt.Out(1).Implements(errorType):
	default:
		return nil, false, fmt.Errorf("method %s.%s must return a value or (value, error)", rt, name)
	}

	return func(v reflect.Value) (any, error) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, fmt.Errorf("cannot call %s on nil", name)
		}
		if addressable {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}

		out := v.MethodByName(name).Call(nil)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, true, nil
}

func fieldByTag(st reflect.Type, name string) (reflect.StructField, bool) {
	for _, f := range reflect.VisibleFields(st) {
		if !f.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func fieldGetter(rt reflect.Type, field reflect.StructField) getter {
	return func(v reflect.Value) (any, error) {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, fmt.Errorf("cannot read %s of nil %s", field.Name, rt)
			}
			v = v.Elem()
		}

		f, err := v.FieldByIndexErr(field.Index)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Name, err)
		}
		return f.Interface(), nil
	}
}
