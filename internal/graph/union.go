package graph

import (
	"fmt"

	"github.com/hanpama/graphbind/internal/index"
)

// Union is a graph type standing for one of a fixed set of object types.
// Members keep insertion order and are unique by owner type. Once frozen the
// member set cannot change.
type Union struct {
	*Reference
	Description string

	members []*Reference
	seen    map[index.TypeID]bool
	frozen  bool
}

func NewUnion(ref *Reference, description string) *Union {
	return &Union{Reference: ref, Description: description, seen: make(map[index.TypeID]bool)}
}

// AddMember adds ref unless a member with the same owner exists. It reports
// whether the member set changed.
func (u *Union) AddMember(ref *Reference) bool {
	if u.frozen {
		panic(fmt.Sprintf("graph: union %s is frozen", u.Name()))
	}
	if u.seen[ref.OwnerID()] {
		return false
	}
	u.seen[ref.OwnerID()] = true
	u.members = append(u.members, ref)
	return true
}

func (u *Union) Freeze() { u.frozen = true }

func (u *Union) Members() []*Reference {
	out := make([]*Reference, len(u.members))
	copy(out, u.members)
	return out
}

// Member returns the member owned by id.
func (u *Union) Member(id index.TypeID) (*Reference, bool) {
	for _, m := range u.members {
		if m.OwnerID() == id {
			return m, true
		}
	}
	return nil, false
}
