// Package scalars is the registered scalar table: the built-in GraphQL
// scalars plus BigInteger, BigDecimal and DateTime, the Go types that map to
// each of them and how their values are serialized and parsed.
package scalars

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
)

type Scalar struct {
	Reference   *graph.Reference
	Description string
	// Representation is the Go type mapped domain values are created from.
	Representation index.TypeID
	// Serialize converts a resolved Go value to its output form.
	Serialize func(v any) (any, error)
	// Parse converts a coerced input value to the representation type.
	Parse func(v any) (any, error)
}

func (s *Scalar) Name() string { return s.Reference.Name() }

// Registry maps scalar names and Go types to scalars.
type Registry struct {
	order  []*Scalar
	byName map[string]*Scalar
	byType map[index.TypeID]*Scalar
}

func New() *Registry {
	return &Registry{byName: make(map[string]*Scalar), byType: make(map[index.TypeID]*Scalar)}
}

// Register adds s and binds the given Go types to it.
func (r *Registry) Register(s *Scalar, goTypes ...index.TypeID) *Registry {
	if _, ok := r.byName[s.Name()]; !ok {
		r.order = append(r.order, s)
	}
	r.byName[s.Name()] = s
	for _, id := range goTypes {
		r.byType[id] = s
	}
	return r
}

func (r *Registry) ByName(name string) (*Scalar, bool) {
	s, ok := r.byName[name]
	return s, ok
}

func (r *Registry) ByType(id index.TypeID) (*Scalar, bool) {
	s, ok := r.byType[id]
	return s, ok
}

// ForType finds the scalar for t, falling back to its underlying kind so that
// named types such as `type Email string` map to String.
func (r *Registry) ForType(t reflect.Type) (*Scalar, bool) {
	t = index.Elem(t)
	if s, ok := r.ByType(index.IDOf(t)); ok {
		return s, true
	}
	var name string
	switch t.Kind() {
	case reflect.String:
		name = "String"
	case reflect.Bool:
		name = "Boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		name = "Int"
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		name = "BigInteger"
	case reflect.Float32, reflect.Float64:
		name = "Float"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			name = "String"
		}
	}
	if name == "" {
		return nil, false
	}
	return r.ByName(name)
}

func (r *Registry) All() []*Scalar {
	out := make([]*Scalar, len(r.order))
	copy(out, r.order)
	return out
}

// Default returns a new registry holding the standard scalars.
func Default() *Registry {
	r := New()
	r.Register(&Scalar{
		Reference:      graph.NewReference("string", "String", graph.KindScalar),
		Description:    "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
		Representation: "string",
		Serialize:      serializeString,
		Parse:          parseString,
	}, "string", "[]uint8")
	r.Register(&Scalar{
		Reference:      graph.NewReference("string", "ID", graph.KindScalar),
		Description:    "The `ID` scalar type represents a unique identifier.",
		Representation: "string",
		Serialize:      serializeString,
		Parse:          parseString,
	})
	r.Register(&Scalar{
		Reference:      graph.NewReference("int", "Int", graph.KindScalar),
		Description:    "The `Int` scalar type represents non-fractional signed whole numeric values.",
		Representation: "int",
		Serialize:      serializeInt,
		Parse:          parseInt,
	}, "int", "int8", "int16", "int32", "uint8", "uint16")
	r.Register(&Scalar{
		Reference:      graph.NewReference("float64", "Float", graph.KindScalar),
		Description:    "The `Float` scalar type represents signed double-precision fractional values.",
		Representation: "float64",
		Serialize:      serializeFloat,
		Parse:          parseFloat,
	}, "float32", "float64")
	r.Register(&Scalar{
		Reference:      graph.NewReference("bool", "Boolean", graph.KindScalar),
		Description:    "The `Boolean` scalar type represents `true` or `false`.",
		Representation: "bool",
		Serialize:      serializeBool,
		Parse:          serializeBool,
	}, "bool")
	r.Register(&Scalar{
		Reference:      graph.NewReference("math/big.Int", "BigInteger", graph.KindScalar),
		Description:    "Arbitrary-precision signed integer.",
		Representation: "math/big.Int",
		Serialize:      serializeBigInteger,
		Parse:          parseBigInteger,
	}, "int64", "uint", "uint32", "uint64", "math/big.Int")
	r.Register(&Scalar{
		Reference:      graph.NewReference(index.ID[decimal.Decimal](), "BigDecimal", graph.KindScalar),
		Description:    "Arbitrary-precision signed decimal number.",
		Representation: index.ID[decimal.Decimal](),
		Serialize:      serializeBigDecimal,
		Parse:          parseBigDecimal,
	}, index.ID[decimal.Decimal]())
	r.Register(&Scalar{
		Reference:      graph.NewReference("time.Time", "DateTime", graph.KindScalar),
		Description:    "An RFC 3339 date-time string.",
		Representation: "time.Time",
		Serialize:      serializeDateTime,
		Parse:          parseDateTime,
	}, "time.Time")
	return r
}

func serializeString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return fmt.Sprint(v), nil
}

func parseString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return serializeString(v)
}

func serializeInt(v any) (any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent %v", v)
		}
		n = int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
		}
		n = int64(f)
	default:
		return nil, fmt.Errorf("Int cannot represent %T", v)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent %v", v)
	}
	return int32(n), nil
}

func parseInt(v any) (any, error) {
	n, err := serializeInt(v)
	if err != nil {
		return nil, err
	}
	return int(n.(int32)), nil
}

func serializeFloat(v any) (any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("Float cannot represent %T", v)
}

func parseFloat(v any) (any, error) { return serializeFloat(v) }

func serializeBool(v any) (any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("Boolean cannot represent %T", v)
}

func serializeBigInteger(v any) (any, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case big.Int:
		return &x, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() <= math.MaxInt64 {
			return int64(rv.Uint()), nil
		}
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("BigInteger cannot represent %T", v)
}

func parseBigInteger(v any) (any, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case string:
		n, ok := new(big.Int).SetString(x, 10)
		if !ok {
			return nil, fmt.Errorf("BigInteger cannot parse %q", x)
		}
		return n, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("BigInteger cannot represent non-integer value %v", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, fmt.Errorf("BigInteger cannot represent %T", v)
}

func serializeBigDecimal(v any) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		return *x, nil
	}
	return parseBigDecimal(v)
}

func parseBigDecimal(v any) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case *big.Int:
		return decimal.NewFromBigInt(x, 0), nil
	}
	return nil, fmt.Errorf("BigDecimal cannot represent %T", v)
}

func serializeDateTime(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case *time.Time:
		return x.Format(time.RFC3339Nano), nil
	case string:
		t, err := parseDateTime(x)
		if err != nil {
			return nil, err
		}
		return t.(time.Time).Format(time.RFC3339Nano), nil
	}
	return nil, fmt.Errorf("DateTime cannot represent %T", v)
}

func parseDateTime(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, fmt.Errorf("DateTime cannot parse %q: %w", x, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("DateTime cannot represent %T", v)
}
