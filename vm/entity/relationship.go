package entity

// Relationship is a named, ordered list of entity references. It never owns
// its members.
type Relationship struct {
	name    string
	kind    Kind
	members []Node
}

// Name returns the relationship name.
func (r *Relationship) Name() string { return r.name }

// Kind returns the relationship cardinality.
func (r *Relationship) Kind() Kind { return r.kind }

// Len returns the number of members.
func (r *Relationship) Len() int { return len(r.members) }

// At returns the i-th member.
func (r *Relationship) At(i int) Node { return r.members[i] }

// Members returns a copy of the member list.
func (r *Relationship) Members() []Node {
	out := make([]Node, len(r.members))
	copy(out, r.members)
	return out
}

// Contains reports whether n is a member.
func (r *Relationship) Contains(n Node) bool { return r.index(n) >= 0 }

// index returns the position of the first member that is n, or -1.
// Identity is the embedded Entity, so a domain object and its Base() match.
func (r *Relationship) index(n Node) int {
	if n == nil {
		return -1
	}
	b := n.Base()
	for i, m := range r.members {
		if m.Base() == b {
			return i
		}
	}
	return -1
}

func (r *Relationship) deleteAt(i int) {
	copy(r.members[i:], r.members[i+1:])
	r.members[len(r.members)-1] = nil
	r.members = r.members[:len(r.members)-1]
}
