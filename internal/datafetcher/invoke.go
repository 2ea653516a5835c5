package datafetcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/hanpama/graphbind/internal/graph"
)

// PanicError is a panic recovered from a resolver method.
type PanicError struct {
	Field string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("datafetcher: %s panicked: %v", e.Field, e.Value)
}

// Recovered returns the value the resolver panicked with.
func (e *PanicError) Recovered() any { return e.Value }

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// call invokes op on its resolver instance. For batched operations source is
// the slice of loader keys and the result is one value per key.
func (f *Fetcher) call(ctx context.Context, op *graph.Operation, source any, args map[string]any) (result any, err error) {
	inst, err := f.lookup.Instance(op.API)
	if err != nil {
		return nil, fmt.Errorf("datafetcher: %s: %w", op.LoaderName(), err)
	}
	method := methodOf(inst, op.Method)
	if !method.IsValid() {
		return nil, fmt.Errorf("datafetcher: %T has no method %s", inst, op.Method)
	}

	in := make([]reflect.Value, len(op.Params))
	for i, p := range op.Params {
		switch p.Kind {
		case graph.ParamContext:
			in[i] = reflect.ValueOf(ctx)
		case graph.ParamSource:
			in[i], err = f.sourceValue(op, source, p.Type)
		case graph.ParamArgument:
			in[i], err = f.convert(args[p.Argument.Name], p.Type, p.Argument.Mapping)
			if err != nil {
				err = fmt.Errorf("argument %s: %w", p.Argument.Name, err)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Field: op.LoaderName(), Value: r, Stack: debug.Stack()}
		}
	}()
	out := method.Call(in)

	if op.ReturnsError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			if inner := errors.Unwrap(e); inner != nil {
				e = inner
			}
			return nil, e
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	v := out[0].Interface()
	if !op.Batch {
		return respond(&op.Field, v), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("datafetcher: %s returned %T, not a slice", op.LoaderName(), v)
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = respond(&op.Field, rv.Index(i).Interface())
	}
	return list, nil
}

func (f *Fetcher) sourceValue(op *graph.Operation, source any, t reflect.Type) (reflect.Value, error) {
	if !op.Batch {
		return assign(source, t)
	}
	keys, ok := source.([]any)
	if !ok {
		return reflect.Value{}, fmt.Errorf("datafetcher: %s expects a list of sources, got %T", op.LoaderName(), source)
	}
	out := reflect.MakeSlice(t, len(keys), len(keys))
	for i, k := range keys {
		v, err := assign(k, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("source %d: %w", i, err)
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

// assign adapts a resolved Go value to t, taking or dropping one pointer
// level as needed.
func assign(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(t):
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		return rv.Elem(), nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

// methodOf finds method name on v. Pointer-receiver methods of a value are
// reached through an addressable copy.
func methodOf(v any, name string) reflect.Value {
	rv := reflect.ValueOf(v)
	if m := rv.MethodByName(name); m.IsValid() {
		return m
	}
	if rv.Kind() != reflect.Pointer && rv.IsValid() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return p.MethodByName(name)
	}
	return reflect.Value{}
}

// readProperty reads field from source: an accessor method, a struct field
// or a map entry.
func readProperty(ctx context.Context, field *graph.Field, source any) (any, error) {
	if isNil(source) {
		return nil, nil
	}
	if field.Accessor {
		m := methodOf(source, field.Property)
		if !m.IsValid() {
			return nil, fmt.Errorf("datafetcher: %T has no method %s", source, field.Property)
		}
		var in []reflect.Value
		if m.Type().NumIn() == 1 && m.Type().In(0) == contextType {
			in = []reflect.Value{reflect.ValueOf(ctx)}
		}
		out := m.Call(in)
		if n := len(out); n == 2 {
			if e, _ := out[1].Interface().(error); e != nil {
				return nil, e
			}
		}
		return out[0].Interface(), nil
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		fv := rv.FieldByName(field.Property)
		if !fv.IsValid() {
			return nil, fmt.Errorf("datafetcher: %s has no field %s", rv.Type(), field.Property)
		}
		return fv.Interface(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(field.Name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("datafetcher: cannot read %s from %T", field.Name, source)
}

// respond tags values of union and interface fields with their concrete
// type.
func respond(field *graph.Field, v any) any {
	switch field.GraphReference().Kind() {
	case graph.KindUnion, graph.KindInterface:
		return tag(v, field.Wrapper.Depth())
	}
	return v
}

func tag(v any, depth int) any {
	if isNil(v) {
		return nil
	}
	if depth == 0 {
		if _, ok := v.(graph.Tagged); ok {
			return v
		}
		return graph.Tag(v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = tag(rv.Index(i).Interface(), depth-1)
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
