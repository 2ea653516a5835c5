package index

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Scanner builds a Memory index from Go values using reflection. Types that
// are reachable from registered APIs through parameters, results and struct
// fields are indexed automatically when Index is called.
//
// Struct fields are annotated with tags:
//
//	Name  string  `graphql:"heroName,nonnull" desc:"The hero name"`
//	Email Email   `scalar:"String"`
//	Notes string  `graphql:"-"`
type Scanner struct {
	mem   *Memory
	queue []reflect.Type
	errs  []error
}

func NewScanner() *Scanner {
	return &Scanner{mem: NewMemory()}
}

// API registers the method set of v as a resolver service. Methods named in
// ops become graph operations carrying the given annotations.
func (s *Scanner) API(v any, ops map[string]Annotations) *Scanner {
	info := s.describe(reflect.TypeOf(v))
	info.Annotations[AnnAPI] = "true"

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		i := slices.IndexFunc(info.Methods, func(m MethodInfo) bool { return m.Name == name })
		if i < 0 {
			s.errs = append(s.errs, fmt.Errorf("index: %s has no exported method %s", info.ID, name))
			continue
		}
		info.Methods[i].Annotations = ops[name].With()
		for _, p := range info.Methods[i].Params {
			s.enqueue(p.Type)
		}
		for _, r := range info.Methods[i].Results {
			s.enqueue(r)
		}
	}
	return s
}

// Type registers v's type with type-level annotations.
func (s *Scanner) Type(v any, ann Annotations) *Scanner {
	info := s.describe(reflect.TypeOf(v))
	for k, val := range ann {
		info.Annotations[k] = val
	}
	return s
}

// Interface registers the interface pointed to by v, e.g. (*Character)(nil).
func (s *Scanner) Interface(v any, ann Annotations) *Scanner {
	return s.Type(v, ann.With(AnnInterface, "true"))
}

// Union registers the marker interface pointed to by v as a union.
func (s *Scanner) Union(v any, ann Annotations) *Scanner {
	return s.Type(v, ann.With(AnnUnion, "true"))
}

// Input marks v's struct type as an input type.
func (s *Scanner) Input(v any, ann Annotations) *Scanner {
	return s.Type(v, ann.With(AnnInput, "true"))
}

// Enum registers v's type as an enum with the given values. Value names are
// their fmt.Sprint form.
func (s *Scanner) Enum(v any, values ...any) *Scanner {
	info := s.describe(reflect.TypeOf(v))
	info.Annotations[AnnEnum] = "true"
	for _, val := range values {
		if IDOf(reflect.TypeOf(val)) != info.ID {
			s.errs = append(s.errs, fmt.Errorf("index: enum value %v is not a %s", val, info.ID))
			continue
		}
		info.EnumValues = append(info.EnumValues, EnumValue{Name: fmt.Sprint(val), Value: val})
	}
	return s
}

// Extends records parent as a supertype of child. Embedded struct fields are
// recorded automatically; this is for interfaces embedding interfaces.
func (s *Scanner) Extends(child, parent any) *Scanner {
	c := s.describe(reflect.TypeOf(child))
	p := s.describe(reflect.TypeOf(parent))
	if !slices.Contains(c.Supers, p.ID) {
		c.Supers = append(c.Supers, p.ID)
	}
	return s
}

// Constructor registers fn, a func(A) T or func(A) (T, error), as a
// constructor of T.
func (s *Scanner) Constructor(fn any) *Scanner {
	m, owner, err := s.describeFunc("", fn)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	m.Name = "new" + owner.Name
	owner.Constructors = append(owner.Constructors, m)
	return s
}

// Factory registers fn as a static function of its result type under name,
// e.g. Factory("FromString", MoneyFromString).
func (s *Scanner) Factory(name string, fn any) *Scanner {
	m, owner, err := s.describeFunc(name, fn)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	owner.Factories = append(owner.Factories, m)
	return s
}

// Index resolves every type reachable from the registrations, computes
// interface implementation edges and returns the result.
func (s *Scanner) Index() (*Memory, error) {
	for len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		if _, ok := s.mem.Lookup(IDOf(t)); ok {
			continue
		}
		s.describe(t)
	}

	for _, iid := range s.mem.order {
		iface := s.mem.types[iid]
		if iface.Kind != KindInterface || iface.Type == nil {
			continue
		}
		for _, tid := range s.mem.order {
			t := s.mem.types[tid]
			if t.Kind == KindInterface || t.Type == nil {
				continue
			}
			if t.Type.Implements(iface.Type) || reflect.PointerTo(t.Type).Implements(iface.Type) {
				t.Interfaces = append(t.Interfaces, iid)
			}
		}
	}
	return s.mem, errors.Join(s.errs...)
}

func (s *Scanner) enqueue(t reflect.Type) {
	if t == nil {
		return
	}
	t = Elem(t)
	if t.Name() == "" || IDOf(t).IsStdlib() {
		return
	}
	s.queue = append(s.queue, t)
}

func (s *Scanner) describe(t reflect.Type) *TypeInfo {
	base := deref(t)
	id := IDOf(base)
	if info, ok := s.mem.Lookup(id); ok {
		return info
	}
	info := &TypeInfo{ID: id, Name: base.Name(), Type: base, Annotations: Annotations{}}
	s.mem.Add(info)

	switch base.Kind() {
	case reflect.Struct:
		info.Kind = KindStruct
		s.describeFields(info, base)
		info.Methods = describeMethods(reflect.PointerTo(base), true)
	case reflect.Interface:
		info.Kind = KindInterface
		info.Methods = describeMethods(base, false)
	default:
		info.Kind = KindBasic
		info.Methods = describeMethods(reflect.PointerTo(base), true)
	}
	if !id.IsStdlib() && info.Kind != KindBasic {
		for _, m := range info.Methods {
			if IsAccessor(m) && len(m.Results) > 0 {
				s.enqueue(m.Results[0])
			}
		}
	}
	return info
}

func (s *Scanner) describeFields(info *TypeInfo, base reflect.Type) {
	for i := 0; i < base.NumField(); i++ {
		f := base.Field(i)
		if f.Anonymous {
			et := deref(f.Type)
			if et.Kind() == reflect.Struct || et.Kind() == reflect.Interface {
				info.Supers = append(info.Supers, IDOf(et))
				s.enqueue(et)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		ann := parseTags(f.Tag)
		if ann.Has(AnnIgnore) {
			continue
		}
		info.Fields = append(info.Fields, FieldInfo{
			Name:        f.Name,
			Index:       f.Index,
			ID:          IDOf(Elem(f.Type)),
			Type:        f.Type,
			Annotations: ann,
		})
		s.enqueue(f.Type)
	}
}

func (s *Scanner) describeFunc(name string, fn any) (MethodInfo, *TypeInfo, error) {
	ft := reflect.TypeOf(fn)
	if ft == nil || ft.Kind() != reflect.Func {
		return MethodInfo{}, nil, fmt.Errorf("index: %T is not a function", fn)
	}
	m := MethodInfo{Name: name, Static: true, Func: reflect.ValueOf(fn), Annotations: Annotations{}}
	for i := 0; i < ft.NumIn(); i++ {
		m.Params = append(m.Params, ParamInfo{ID: IDOf(ft.In(i)), Type: ft.In(i), Annotations: Annotations{}})
	}
	fillResults(&m, ft)
	if len(m.Params) != 1 || m.Result == "" || len(m.Results) > 1 {
		return MethodInfo{}, nil, fmt.Errorf("index: %s must take one argument and return one value and an optional error", ft)
	}
	return m, s.describe(m.Results[0]), nil
}

func describeMethods(t reflect.Type, hasReceiver bool) []MethodInfo {
	var out []MethodInfo
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		ft := m.Type
		start := 0
		if hasReceiver {
			start = 1
		}
		info := MethodInfo{Name: m.Name, Annotations: Annotations{}}
		for j := start; j < ft.NumIn(); j++ {
			pt := ft.In(j)
			info.Params = append(info.Params, ParamInfo{ID: IDOf(Elem(pt)), Type: pt, Annotations: Annotations{}})
		}
		fillResults(&info, ft)
		out = append(out, info)
	}
	return out
}

func fillResults(m *MethodInfo, ft reflect.Type) {
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		m.ReturnsError = true
		n--
	}
	for i := 0; i < n; i++ {
		m.Results = append(m.Results, ft.Out(i))
	}
	if n > 0 {
		m.Result = IDOf(Elem(ft.Out(0)))
	}
}

func parseTags(tag reflect.StructTag) Annotations {
	ann := Annotations{}
	if v, ok := tag.Lookup("graphql"); ok {
		parts := strings.Split(v, ",")
		switch name := strings.TrimSpace(parts[0]); name {
		case "-":
			ann[AnnIgnore] = "true"
		case "":
		default:
			ann[AnnName] = name
		}
		for _, p := range parts[1:] {
			switch strings.TrimSpace(p) {
			case "nonnull":
				ann[AnnNonNull] = "true"
			case "id":
				ann[AnnID] = "true"
			}
		}
	}
	if v, ok := tag.Lookup("desc"); ok {
		ann[AnnDescription] = v
	}
	if v, ok := tag.Lookup("scalar"); ok {
		ann[AnnToScalar] = v
	}
	if v, ok := tag.Lookup("default"); ok {
		ann[AnnDefaultValue] = v
	}
	return ann
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Elem strips pointers, slices and arrays down to the element type. Byte
// slices are kept whole.
func Elem(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Ptr:
			t = t.Elem()
		case reflect.Slice, reflect.Array:
			if t.Elem().Kind() == reflect.Uint8 {
				return t
			}
			t = t.Elem()
		default:
			return t
		}
	}
}
