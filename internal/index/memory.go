package index

import "slices"

// Memory is an Index backed by a map, iterating in insertion order.
type Memory struct {
	order []TypeID
	types map[TypeID]*TypeInfo
}

func NewMemory() *Memory {
	return &Memory{types: make(map[TypeID]*TypeInfo)}
}

// Add registers t, replacing an earlier entry with the same ID in place.
func (m *Memory) Add(t *TypeInfo) *Memory {
	if t.Annotations == nil {
		t.Annotations = Annotations{}
	}
	if _, ok := m.types[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.types[t.ID] = t
	return m
}

func (m *Memory) Lookup(id TypeID) (*TypeInfo, bool) {
	t, ok := m.types[id]
	return t, ok
}

func (m *Memory) FindImplementors(id TypeID) []TypeID {
	var out []TypeID
	for _, tid := range m.order {
		t := m.types[tid]
		if t.Kind == KindInterface {
			continue
		}
		if slices.Contains(t.Interfaces, id) {
			out = append(out, tid)
		}
	}
	return out
}

func (m *Memory) AccessorMethods(id TypeID) []MethodInfo {
	t, ok := m.types[id]
	if !ok {
		return nil
	}
	var out []MethodInfo
	for _, method := range t.Methods {
		if IsAccessor(method) {
			out = append(out, method)
		}
	}
	return out
}

func (m *Memory) APIs() []TypeID {
	var out []TypeID
	for _, id := range m.order {
		if m.types[id].Annotations.Has(AnnAPI) {
			out = append(out, id)
		}
	}
	return out
}

func (m *Memory) Types() []TypeID {
	return slices.Clone(m.order)
}
