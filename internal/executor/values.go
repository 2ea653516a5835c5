package executor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// coerceVariableValues checks the provided variables against the operation's
// definitions and fills in defaults. Variables the operation does not define
// are dropped.
func coerceVariableValues(sch *schema.Schema, op *language.OperationDefinition, provided map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	for _, def := range op.VariableDefinitions {
		name, t := def.Variable, def.Type
		val, ok := lookupVariable(provided, name)
		if !ok {
			switch {
			case def.DefaultValue != nil:
				val = literal(def.DefaultValue)
			case t.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t)
			default:
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t)
		}
		cv, err := coerceValue(sch, val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t, err)
		}
		out[name] = cv
	}
	return out, nil
}

func lookupVariable(vars map[string]any, name string) (any, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	v, ok := vars[strings.TrimPrefix(name, "$")]
	return v, ok
}

// coerceArguments coerces the literal and variable arguments of one field
// node. Bad or missing required arguments are recorded at path and left out
// of the result; resolution still goes ahead. A bad argument does not fall
// back to its default.
func (s *executionState) coerceArguments(def *schema.Field, args language.ArgumentList, path Path) map[string]any {
	out := make(map[string]any)
	bad := make(map[string]bool)
	for _, arg := range args {
		var argDef *schema.InputValue
		for _, a := range def.Arguments {
			if a.Name == arg.Name {
				argDef = a
				break
			}
		}
		if argDef == nil {
			continue
		}
		cv, err := coerceValue(s.schema, valueFromAST(arg.Value, s.variables), argDef.Type)
		if err != nil {
			s.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			bad[arg.Name] = true
			continue
		}
		out[arg.Name] = cv
	}
	for _, argDef := range def.Arguments {
		if _, ok := out[argDef.Name]; ok || bad[argDef.Name] {
			continue
		}
		switch {
		case argDef.DefaultValue != nil:
			cv, err := coerceValue(s.schema, argDef.DefaultValue, argDef.Type)
			if err != nil {
				cv = argDef.DefaultValue
			}
			out[argDef.Name] = cv
		case argDef.Type.IsNonNull():
			s.addError(fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name), path)
		}
	}
	return out
}

// valueFromAST is literal with variables substituted. An unknown variable
// reads as null.
func valueFromAST(value *language.Value, vars map[string]any) any {
	if value != nil && value.Kind == language.Variable {
		v, _ := lookupVariable(vars, value.Raw)
		return v
	}
	return literal(value)
}

// literal converts a constant AST value. Integers that overflow int come
// back as float64 so coercion can reject them.
func literal(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		if iv, err := strconv.Atoi(value.Raw); err == nil {
			return iv
		}
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = literal(c.Value)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = literal(c.Value)
		}
		return out
	}
	return nil
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.NamedType != "" {
		ref = schema.NamedType(t.NamedType)
	} else {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

// coerceValue coerces an input value to typ. sch may be nil, in which case
// only the standard scalars are checked. Custom scalars pass through; the
// runtime parses them.
func coerceValue(sch *schema.Schema, value any, typ *schema.TypeRef) (any, error) {
	if typ.IsNonNull() {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(sch, value, typ.Unwrap())
	}
	if value == nil {
		return nil, nil
	}
	if typ.IsList() {
		return coerceList(sch, value, typ.Unwrap())
	}

	name := typ.GetNamedType()
	if coerce, ok := builtinCoercion[name]; ok {
		out, ok := coerce(value)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %v (%T) to %s", value, value, name)
		}
		return out, nil
	}
	if sch == nil {
		return value, nil
	}
	t := sch.Types[name]
	if t == nil {
		return value, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return coerceEnum(t, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, t, value)
	}
	return value, nil
}

// coerceList accepts a list or, per input coercion rules, a single item
// standing for a list of one.
func coerceList(sch *schema.Schema, value any, item *schema.TypeRef) (any, error) {
	list, ok := value.([]any)
	if !ok {
		v, err := coerceValue(sch, value, item)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	out := make([]any, len(list))
	for i, v := range list {
		cv, err := coerceValue(sch, v, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = cv
	}
	return out, nil
}

func coerceEnum(t *schema.Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, t.Name)
	}
	if len(t.EnumValues) == 0 {
		return name, nil
	}
	for _, ev := range t.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("value %q does not exist in enum %s", name, t.Name)
}

func coerceInputObject(sch *schema.Schema, t *schema.Type, value any) (any, error) {
	in, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", value, value, t.Name)
	}
	known := make(map[string]bool, len(t.InputFields))
	out := make(map[string]any, len(in))
	for _, f := range t.InputFields {
		known[f.Name] = true
		v, present := in[f.Name]
		if !present {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if f.Type.IsNonNull() {
				return nil, fmt.Errorf("required field '%s' of %s was not provided", f.Name, t.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		out[f.Name] = cv
	}
	for name := range in {
		if !known[name] {
			return nil, fmt.Errorf("field '%s' is not defined by %s", name, t.Name)
		}
	}
	return out, nil
}

// builtinCoercion holds the input rules of the standard scalars. Strings
// are never parsed into numbers.
var builtinCoercion = map[string]func(any) (any, bool){
	"Int": func(v any) (any, bool) {
		switch x := v.(type) {
		case int:
			return x, true
		case int32:
			return int(x), true
		case int64:
			return int(x), x >= math.MinInt32 && x <= math.MaxInt32
		case float64:
			return int(x), x == math.Trunc(x) && x >= math.MinInt32 && x <= math.MaxInt32
		}
		return nil, false
	},
	"Float": func(v any) (any, bool) {
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		case int:
			return float64(x), true
		case int32:
			return float64(x), true
		case int64:
			return float64(x), true
		}
		return nil, false
	},
	"String": func(v any) (any, bool) {
		s, ok := v.(string)
		return s, ok
	},
	"Boolean": func(v any) (any, bool) {
		b, ok := v.(bool)
		return b, ok
	},
	"ID": func(v any) (any, bool) {
		switch x := v.(type) {
		case string:
			return x, true
		case int:
			return strconv.Itoa(x), true
		case int32:
			return strconv.FormatInt(int64(x), 10), true
		case int64:
			return strconv.FormatInt(x, 10), true
		}
		return nil, false
	},
}
