package datafetcher

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
)

// convert turns a coerced argument value into a Go value of type t. Lists
// become slices, input objects become structs, enum names become their
// values and scalars are parsed into their representation. A mapping builds
// the domain value from the scalar representation with its creation
// strategy.
func (f *Fetcher) convert(v any, t reflect.Type, m *graph.Mapping) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	if rv := reflect.ValueOf(v); rv.Type() == t {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		inner, err := f.convert(v, t.Elem(), m)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			break
		}
		list, ok := v.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected a list for %s, got %T", t, v)
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, item := range list {
			ev, err := f.convert(item, t.Elem(), m)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}

	if m != nil && m.Strategy() != graph.StrategyNone {
		return f.create(v, t, m)
	}
	if e, ok := f.enumsOf[index.IDOf(t)]; ok {
		return enumValue(e, v, t)
	}
	if s, ok := f.scalars.ForType(t); ok {
		rep, err := s.Parse(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return fit(rep, t)
	}
	if in, ok := f.inputs[index.IDOf(t)]; ok {
		return f.inputObject(in, v, t)
	}
	return fit(v, t)
}

// create builds a domain value of type t from the representation of the
// mapping's target scalar.
func (f *Fetcher) create(v any, t reflect.Type, m *graph.Mapping) (reflect.Value, error) {
	s, ok := f.scalars.ByName(m.Target.Name())
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown scalar %s", m.Target.Name())
	}
	rep, err := s.Parse(v)
	if err != nil {
		return reflect.Value{}, err
	}

	var out []reflect.Value
	switch c := m.Create.(type) {
	case graph.Constructor:
		out, err = callCreator(c.Func, rep)
	case graph.StaticFactory:
		out, err = callCreator(c.Func, rep)
	case graph.Setter:
		p := reflect.New(t)
		setter := p.MethodByName(c.Method)
		if !setter.IsValid() {
			return reflect.Value{}, fmt.Errorf("%s has no method %s", t, c.Method)
		}
		out, err = callCreator(setter, rep)
		if err == nil {
			return p.Elem(), nil
		}
	default:
		return reflect.Value{}, fmt.Errorf("cannot create %s from %s", t, s.Name())
	}
	if err != nil {
		return reflect.Value{}, err
	}
	return assign(out[0].Interface(), t)
}

// callCreator calls fn with rep and reports a trailing error result.
func callCreator(fn reflect.Value, rep any) ([]reflect.Value, error) {
	arg, err := fit(rep, fn.Type().In(0))
	if err != nil {
		return nil, err
	}
	out := fn.Call([]reflect.Value{arg})
	if n := len(out); n > 0 {
		if e, ok := out[n-1].Interface().(error); ok && e != nil {
			return nil, e
		}
	}
	return out, nil
}

func enumValue(e *graph.Enum, v any, t reflect.Type) (reflect.Value, error) {
	name, ok := v.(string)
	if !ok {
		return reflect.Value{}, fmt.Errorf("enum %s expects a name, got %T", e.Name(), v)
	}
	for _, ev := range e.Values {
		if ev.Name == name {
			return fit(ev.Value, t)
		}
	}
	return reflect.Value{}, fmt.Errorf("value %q does not exist in enum %s", name, e.Name())
}

func (f *Fetcher) inputObject(in *graph.Input, v any, t reflect.Type) (reflect.Value, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return reflect.Value{}, fmt.Errorf("expected an object for %s, got %T", in.Name(), v)
	}
	out := reflect.New(t).Elem()
	for _, fld := range in.Fields {
		fv, present := obj[fld.Name]
		if !present {
			continue
		}
		dst := out.FieldByName(fld.Property)
		if !dst.IsValid() || !dst.CanSet() {
			return reflect.Value{}, fmt.Errorf("%s has no settable field %s", t, fld.Property)
		}
		cv, err := f.convert(fv, dst.Type(), fld.Mapping)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s.%s: %w", in.Name(), fld.Name, err)
		}
		dst.Set(cv)
	}
	return out, nil
}

// fit converts a scalar representation to t, including conversions between
// numeric kinds that do not overflow.
func fit(v any, t reflect.Type) (reflect.Value, error) {
	if b, ok := v.(*big.Int); ok && t != reflect.TypeOf(b) {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !b.IsInt64() {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", b, t)
			}
			v = b.Int64()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if !b.IsUint64() {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", b, t)
			}
			v = b.Uint64()
		}
	}

	rv, err := assign(v, t)
	if err == nil {
		return rv, nil
	}
	rv = reflect.ValueOf(v)
	if !rv.Type().ConvertibleTo(t) || numeric(rv.Kind()) != numeric(t.Kind()) {
		return reflect.Value{}, err
	}
	if t.Kind() == reflect.String && rv.Kind() != reflect.String {
		return reflect.Value{}, err
	}
	out := rv.Convert(t)
	if numeric(t.Kind()) && !reflect.DeepEqual(out.Convert(rv.Type()).Interface(), rv.Interface()) {
		return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
	}
	return out, nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
