package executor

import (
	"context"
	"fmt"
	"slices"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// executionState is the mutable state of one operation. It is only touched
// by the goroutine running the operation; runtimes see copies of what they
// need through ResolveParams.
type executionState struct {
	ctx         context.Context
	runtime     Runtime
	schema      *schema.Schema
	handler     ExceptionHandler
	executionID string
	document    *language.QueryDocument
	operation   *language.OperationDefinition
	variables   map[string]any

	errors  []GraphQLError
	pending []pendingField
	// root response names nulled by a non-null failure below them; pending
	// fields under these are dropped
	nulled map[string]bool
}

// pendingField is an async field waiting for the next batch.
type pendingField struct {
	task   AsyncResolveTask
	path   Path
	typ    *schema.TypeRef
	fields []*language.Field
}

// deferred marks a response slot whose value arrives with a later batch.
type deferred struct{}

// run executes the root selection set, then drains async fields one depth
// per BatchResolveAsync call until no field is pending.
func (s *executionState) run(root *schema.Type, rootValue any) map[string]any {
	data := s.executeSelectionSet(root, s.operation.SelectionSet, rootValue, nil)
	for len(s.pending) > 0 {
		batch := s.takePending()
		if len(batch) == 0 {
			break
		}
		tasks := make([]AsyncResolveTask, len(batch))
		for i, p := range batch {
			tasks[i] = p.task
		}
		results := s.runtime.BatchResolveAsync(s.ctx, tasks)
		for i, p := range batch {
			res := AsyncResolveResult{Error: fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))}
			if i < len(results) {
				res = results[i]
			}
			s.completePending(data, p, res)
		}
	}
	return data
}

// takePending empties the queue, dropping fields under nulled roots.
func (s *executionState) takePending() []pendingField {
	batch := s.pending[:0:0]
	for _, p := range s.pending {
		if !s.nulled[p.path.root()] {
			batch = append(batch, p)
		}
	}
	s.pending = nil
	return batch
}

// executeSelectionSet resolves the sync fields of set against value and
// queues the async ones. A nil map means a non-null field came back null and
// the object itself must become null; the root object never does.
func (s *executionState) executeSelectionSet(objectType *schema.Type, set language.SelectionSet, value any, path Path) map[string]any {
	out := make(map[string]any)
	for _, group := range s.collectFields(objectType, set) {
		fieldPath := path.with(group.name)
		result := s.executeField(objectType, value, group.fields, fieldPath)

		name := group.fields[0].Name
		if name == "__typename" {
			out[group.name] = result
			continue
		}
		def := objectType.Field(name)
		if def == nil {
			continue
		}
		if isNullish(result) {
			if def.Type.IsNonNull() && len(path) > 0 {
				return nil
			}
			result = nil
		}
		out[group.name] = result
	}
	return out
}

// executeField resolves one response key. Async fields are queued and
// answered with a deferred placeholder.
func (s *executionState) executeField(objectType *schema.Type, value any, fields []*language.Field, path Path) any {
	field := fields[0]
	if field.Name == "__typename" {
		return objectType.Name
	}

	def := objectType.Field(field.Name)
	if def == nil {
		s.errors = append(s.errors, GraphQLError{
			Message:   fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name),
			Locations: LocationsOf(fields),
			Path:      path,
		})
		return nil
	}

	params := ResolveParams{
		ExecutionID: s.executionID,
		ObjectType:  objectType.Name,
		Field:       field.Name,
		Source:      value,
		Args:        s.coerceArguments(def, field.Arguments, path),
		Path:        path,
		Fields:      fields,
		ReturnType:  def.Type,
		Operation:   s.operation,
		Document:    s.document,
		Variables:   s.variables,
	}

	if def.Async {
		s.pending = append(s.pending, pendingField{
			task:   AsyncResolveTask{ResolveParams: params},
			path:   path,
			typ:    def.Type,
			fields: fields,
		})
		return deferred{}
	}

	resolved, err := s.runtime.ResolveSync(s.ctx, params)
	if err != nil {
		s.errors = append(s.errors, s.handler(s.ctx, params, err))
		resolved = nil
	}
	return s.completeValue(def.Type, fields, resolved, path)
}

// completePending writes the completed value of an async field into data. A
// null for a non-null field nulls the root field above it.
func (s *executionState) completePending(data map[string]any, p pendingField, res AsyncResolveResult) {
	if s.nulled[p.path.root()] {
		return
	}

	var completed any
	if res.Error != nil {
		s.errors = append(s.errors, s.handler(s.ctx, p.task.ResolveParams, res.Error))
	} else {
		completed = s.completeValue(p.typ, p.fields, res.Value, p.path)
	}

	if isNullish(completed) {
		if p.typ.IsNonNull() {
			root := p.path.root()
			data[root] = nil
			s.nulled[root] = true
			return
		}
		completed = nil
	}
	writeAt(data, p.path, completed)
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAt(path Path) bool {
	return slices.ContainsFunc(s.errors, func(e GraphQLError) bool {
		return slices.Equal(e.Path, path)
	})
}
