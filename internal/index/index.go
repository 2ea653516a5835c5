// Package index holds the type metadata the graph builder reads: the types a
// service exposes, their fields and methods, and which concrete types
// implement which interfaces.
//
// The builder never touches reflect directly for structural questions. It asks
// an Index, which makes it possible to describe types by hand in tests.
package index

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TypeID identifies a Go type independent of pointer indirection. Named types
// use "<pkgpath>.<Name>", predeclared types use their bare name ("string").
type TypeID string

// IDOf returns the TypeID of t after stripping pointers.
func IDOf(t reflect.Type) TypeID {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return TypeID(t.String())
	}
	if t.PkgPath() == "" {
		return TypeID(t.Name())
	}
	return TypeID(t.PkgPath() + "." + t.Name())
}

// ID returns the TypeID of T.
func ID[T any]() TypeID {
	return IDOf(reflect.TypeOf((*T)(nil)).Elem())
}

// PkgPath returns the package part of the identifier, empty for predeclared types.
func (id TypeID) PkgPath() string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 && !strings.ContainsAny(s, "[]*") {
		return s[:i]
	}
	return ""
}

// Name returns the unqualified type name.
func (id TypeID) Name() string {
	s := string(id)
	if pkg := id.PkgPath(); pkg != "" {
		return s[len(pkg)+1:]
	}
	return s
}

// IsStdlib reports whether the type is predeclared or lives in the standard
// library, judged by the first element of its package path having no dot.
func (id TypeID) IsStdlib() bool {
	pkg := id.PkgPath()
	if pkg == "" {
		return true
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}

// Kind is the Go-level shape of an indexed type.
type Kind int

const (
	KindStruct Kind = iota + 1
	KindInterface
	KindBasic
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindBasic:
		return "basic"
	}
	return "unknown"
}

// Annotation keys recognized by the graph builder.
const (
	AnnAPI          = "api"
	AnnQuery        = "query"
	AnnMutation     = "mutation"
	AnnSource       = "source"
	AnnName         = "name"
	AnnDescription  = "description"
	AnnToScalar     = "toScalar"
	AnnIgnore       = "ignore"
	AnnNonNull      = "nonNull"
	AnnDefaultValue = "defaultValue"
	AnnArgs         = "args"
	AnnID           = "id"
	AnnUnion        = "union"
	AnnInterface    = "interface"
	AnnInput        = "input"
	AnnEnum         = "enum"
)

// Annotations is the metadata attached to a type, field, method or parameter.
// Flag annotations carry an empty or "true" value.
type Annotations map[string]string

func (a Annotations) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Annotations) Get(key string) string { return a[key] }

// With returns a copy of a extended by alternating key/value pairs.
func (a Annotations) With(kv ...string) Annotations {
	out := make(Annotations, len(a)+len(kv)/2)
	for k, v := range a {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

type TypeInfo struct {
	ID   TypeID
	Name string
	Kind Kind
	// Type is nil for metadata described by hand.
	Type reflect.Type

	// Supers are embedded types, walked as the supertype chain.
	Supers []TypeID
	// Interfaces are the indexed interfaces this type implements.
	Interfaces []TypeID

	Fields       []FieldInfo
	Methods      []MethodInfo
	Constructors []MethodInfo
	Factories    []MethodInfo
	EnumValues   []EnumValue
	Annotations  Annotations
}

// Method returns the instance method with the given name.
func (t *TypeInfo) Method(name string) (MethodInfo, bool) {
	for _, m := range t.Methods {
		if m.Name == name && !m.Static {
			return m, true
		}
	}
	return MethodInfo{}, false
}

// Constructor returns the registered single-argument constructor accepting param.
func (t *TypeInfo) Constructor(param TypeID) (MethodInfo, bool) {
	for _, c := range t.Constructors {
		if len(c.Params) == 1 && c.Params[0].ID == param {
			return c, true
		}
	}
	return MethodInfo{}, false
}

// Factory returns the registered static function called name accepting param.
func (t *TypeInfo) Factory(name string, param TypeID) (MethodInfo, bool) {
	for _, f := range t.Factories {
		if f.Name == name && len(f.Params) == 1 && f.Params[0].ID == param {
			return f, true
		}
	}
	return MethodInfo{}, false
}

type FieldInfo struct {
	Name        string
	Index       []int
	ID          TypeID
	Type        reflect.Type
	Annotations Annotations
}

type ParamInfo struct {
	Name        string
	ID          TypeID
	Type        reflect.Type
	Annotations Annotations
}

type MethodInfo struct {
	Name    string
	Params  []ParamInfo
	Result  TypeID
	Results []reflect.Type
	// ReturnsError is set when the last result is an error.
	ReturnsError bool
	Static       bool
	// Func is the callable for static functions and constructors.
	Func        reflect.Value
	Annotations Annotations
}

type EnumValue struct {
	Name        string
	Description string
	Value       any
}

// Index answers structural questions about registered types.
type Index interface {
	Lookup(id TypeID) (*TypeInfo, bool)
	// FindImplementors returns the known concrete types implementing id, in
	// registration order.
	FindImplementors(id TypeID) []TypeID
	AccessorMethods(id TypeID) []MethodInfo
	APIs() []TypeID
	Types() []TypeID
}

var nonAccessors = map[string]bool{
	"String":        true,
	"GoString":      true,
	"Error":         true,
	"MarshalJSON":   true,
	"MarshalText":   true,
	"UnmarshalJSON": true,
}

const contextID TypeID = "context.Context"

// IsAccessor reports whether m is getter-shaped: an instance method with no
// parameters other than an optional context.Context and one result, optionally
// followed by an error.
func IsAccessor(m MethodInfo) bool {
	if m.Static || m.Result == "" || nonAccessors[m.Name] || m.Annotations.Has(AnnIgnore) {
		return false
	}
	if strings.HasPrefix(m.Name, "Set") {
		return false
	}
	switch len(m.Params) {
	case 0:
		return true
	case 1:
		return m.Params[0].ID == contextID
	}
	return false
}

// AccessorName derives the graph field name of an accessor method.
func AccessorName(method string) string {
	if rest, ok := strings.CutPrefix(method, "Get"); ok && rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			method = rest
		}
	}
	return LowerFirst(method)
}

// LowerFirst lower-cases the leading run of capitals, so "ID" becomes "id"
// and "URLPath" becomes "urlPath".
func LowerFirst(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n == 0 {
		return s
	}
	if n > 1 && n < len(runes) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
