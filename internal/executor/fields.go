package executor

import (
	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// fieldGroup is every field node answering under one response name.
type fieldGroup struct {
	name   string
	fields []*language.Field
}

// collectFields flattens fragments and groups fields by response name, in
// the order the names first appear. Fragments whose type condition does not
// apply to objectType and nodes excluded by @skip or @include are left out.
func (s *executionState) collectFields(objectType *schema.Type, set language.SelectionSet) []fieldGroup {
	var groups []fieldGroup
	index := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(language.SelectionSet)
	walk = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				if !s.included(sel.Directives) {
					continue
				}
				name := sel.Alias
				if name == "" {
					name = sel.Name
				}
				if i, ok := index[name]; ok {
					groups[i].fields = append(groups[i].fields, sel)
					continue
				}
				index[name] = len(groups)
				groups = append(groups, fieldGroup{name: name, fields: []*language.Field{sel}})

			case *language.InlineFragment:
				if s.included(sel.Directives) && s.applies(objectType, sel.TypeCondition) {
					walk(sel.SelectionSet)
				}

			case *language.FragmentSpread:
				if !s.included(sel.Directives) || visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				def := s.document.Fragments.ForName(sel.Name)
				if def == nil || !s.applies(objectType, def.TypeCondition) || !s.included(def.Directives) {
					continue
				}
				walk(def.SelectionSet)
			}
		}
	}
	walk(set)
	return groups
}

// applies reports whether a fragment type condition matches objectType. A
// condition naming an interface or union matches its possible types.
func (s *executionState) applies(objectType *schema.Type, condition string) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	return s.schema != nil && s.schema.IsPossibleType(condition, objectType.Name)
}

// included evaluates @skip(if:) and @include(if:). A directive whose if
// argument is missing or not a boolean is ignored.
func (s *executionState) included(directives language.DirectiveList) bool {
	if skip, ok := s.directiveIf(directives, "skip"); ok && skip {
		return false
	}
	if include, ok := s.directiveIf(directives, "include"); ok && !include {
		return false
	}
	return true
}

func (s *executionState) directiveIf(directives language.DirectiveList, name string) (bool, bool) {
	d := directives.ForName(name)
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	v, ok := valueFromAST(arg.Value, s.variables).(bool)
	return v, ok
}
