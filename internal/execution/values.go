package execution

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/ohler55/ojg/alt"
	"github.com/ohler55/ojg/gen"
	"github.com/shopspring/decimal"

	executor "github.com/hanpama/graphbind/internal/executor"
)

// ToStructured converts an engine value into a gen.Node tree. The first
// matching rule wins: maps, then slices and arrays, then booleans, strings,
// floats, 64-bit integers, other integers, decimals and big integers.
// Anything else is decomposed once with alt.Decompose and converted again.
func ToStructured(v any) gen.Node {
	return toStructured(v, true)
}

func toStructured(v any, decompose bool) gen.Node {
	switch x := v.(type) {
	case nil:
		return nil
	case gen.Node:
		return x
	case decimal.Decimal:
		return gen.Big(x.String())
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return gen.Big(x.String())
	case *big.Int:
		if x == nil {
			return nil
		}
		return gen.Big(x.String())
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		obj := make(gen.Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[fmt.Sprint(iter.Key().Interface())] = toStructured(iter.Value().Interface(), decompose)
		}
		return obj
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		arr := make(gen.Array, rv.Len())
		for i := range arr {
			arr[i] = toStructured(rv.Index(i).Interface(), decompose)
		}
		return arr
	case reflect.Bool:
		return gen.Bool(rv.Bool())
	case reflect.String:
		return gen.String(rv.String())
	case reflect.Float32, reflect.Float64:
		return gen.Float(rv.Float())
	case reflect.Int64:
		return gen.Int(rv.Int())
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		if u := rv.Uint(); u > math.MaxInt64 {
			return gen.Big(new(big.Int).SetUint64(u).String())
		}
		return gen.Int(int64(rv.Uint()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return gen.Int(rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return gen.Int(int64(rv.Uint()))
	}

	// rv may have been dereferenced down to a decimal or big.Int
	switch x := rv.Interface().(type) {
	case decimal.Decimal:
		return gen.Big(x.String())
	case big.Int:
		return gen.Big(x.String())
	}

	if decompose {
		return toStructured(alt.Decompose(rv.Interface()), false)
	}
	return gen.String(fmt.Sprint(rv.Interface()))
}

// ErrorsToStructured renders execution errors as response error objects.
func ErrorsToStructured(errs []executor.GraphQLError) gen.Array {
	out := make(gen.Array, 0, len(errs))
	for _, e := range errs {
		obj := gen.Object{"message": gen.String(e.Message)}
		if len(e.Locations) > 0 {
			locs := make(gen.Array, len(e.Locations))
			for i, l := range e.Locations {
				locs[i] = gen.Object{"line": gen.Int(l.Line), "column": gen.Int(l.Column)}
			}
			obj["locations"] = locs
		}
		if len(e.Path) > 0 {
			path := make(gen.Array, len(e.Path))
			for i, p := range e.Path {
				path[i] = ToStructured(p)
			}
			obj["path"] = path
		}
		if len(e.Extensions) > 0 {
			obj["extensions"] = ToStructured(e.Extensions)
		}
		out = append(out, obj)
	}
	return out
}

// Response builds {"data": ..., "errors": [...]} from an engine result. The
// errors key is only present when there are errors.
func Response(res *executor.ExecutionResult) gen.Object {
	out := gen.Object{"data": ToStructured(res.Data)}
	if len(res.Errors) > 0 {
		out["errors"] = ErrorsToStructured(res.Errors)
	}
	return out
}
