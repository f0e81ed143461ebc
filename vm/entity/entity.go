package entity

import (
	"slices"

	"github.com/joshuapare/vmkit/vm/status"
)

// Node is anything that participates in relationships. Domain types embed an
// Entity and get Base for free.
type Node interface {
	Base() *Entity
}

// Step tells PairwiseForEach how to continue after visiting a pair.
type Step uint8

const (
	Continue    Step = iota // advance to the next pair
	RemoveLeft              // remove the left member, then compare its predecessor with the right one
	RemoveRight             // remove the right member, then compare left with its new neighbour
	Stop                    // end the iteration
)

// Entity is a uniquely identified, typed node of the object graph.
type Entity struct {
	id     string
	typ    Type
	marked bool
	self   Node

	outgoing map[string]*Relationship
	incoming map[string]*Relationship
	outOrder []string // declaration order, keeps cascades deterministic
	inOrder  []string
}

// New returns a standalone entity. An empty id is replaced by NewID().
func New(t Type, id string) *Entity {
	e := &Entity{}
	e.Init(e, t, id)
	return e
}

// Init prepares an embedded entity. self is the domain object that embeds e;
// it is what other entities see as a relationship member.
func (e *Entity) Init(self Node, t Type, id string) {
	if id == "" {
		id = NewID()
	}
	e.id = id
	e.typ = t
	e.self = self
	e.marked = false
	e.outgoing = make(map[string]*Relationship)
	e.incoming = make(map[string]*Relationship)
	e.outOrder = nil
	e.inOrder = nil
}

// Base implements Node.
func (e *Entity) Base() *Entity { return e }

// ID returns the repository key of e.
func (e *Entity) ID() string { return e.id }

// Type returns the entity type.
func (e *Entity) Type() Type { return e.typ }

// Marked reports whether e is tombstoned.
func (e *Entity) Marked() bool { return e.marked }

func (e *Entity) node() Node {
	if e.self != nil {
		return e.self
	}
	return e
}

func (e *Entity) lazyInit() {
	if e.outgoing == nil {
		e.outgoing = make(map[string]*Relationship)
	}
	if e.incoming == nil {
		e.incoming = make(map[string]*Relationship)
	}
}

// Declare creates an empty outgoing relationship. Redeclaring a name is a no-op.
func (e *Entity) Declare(name string, kind Kind) *Entity {
	e.lazyInit()
	if _, ok := e.outgoing[name]; ok {
		return e
	}
	e.outgoing[name] = &Relationship{name: name, kind: kind}
	e.outOrder = append(e.outOrder, name)
	return e
}

// Relationship returns the outgoing relationship called name, or nil.
func (e *Entity) Relationship(name string) *Relationship { return e.outgoing[name] }

// Incoming returns the incoming relationship called name, or nil.
func (e *Entity) Incoming(name string) *Relationship { return e.incoming[name] }

// Names returns the outgoing relationship names in declaration order.
func (e *Entity) Names() []string { return slices.Clone(e.outOrder) }

// IncomingNames returns the incoming relationship names in the order they
// were first mirrored.
func (e *Entity) IncomingNames() []string { return slices.Clone(e.inOrder) }

// Referenced reports whether any relationship anywhere lists e.
func (e *Entity) Referenced() bool {
	for _, r := range e.incoming {
		if len(r.members) > 0 {
			return true
		}
	}
	return false
}

// Referrers returns the entities holding e through incoming relationships
// other than the excluded names. A referrer appears once per reference.
func (e *Entity) Referrers(exclude ...string) []Node {
	var out []Node
	for _, name := range e.inOrder {
		if slices.Contains(exclude, name) {
			continue
		}
		out = append(out, e.incoming[name].members...)
	}
	return out
}

func (e *Entity) outgoingOrReport(name, origin string) *Relationship {
	r, ok := e.outgoing[name]
	if !ok {
		status.Report(status.UnknownRelationship, origin)
		return nil
	}
	return r
}

// Add appends target to the outgoing relationship name and mirrors e into
// target's incoming relationship of the same name and kind.
func (e *Entity) Add(name string, target Node) *Entity {
	const origin = "entity.add"
	r := e.outgoingOrReport(name, origin)
	if r == nil {
		return e
	}
	if target == nil || target.Base() == nil || target.Base().marked || e.marked {
		status.Report(status.InvalidTarget, origin)
		return e
	}
	if r.kind.single() && len(r.members) > 0 {
		status.Report(status.CardinalityViolation, origin)
		if Cardinality == Reject {
			return e
		}
	}

	r.members = append(r.members, target)

	t := target.Base()
	t.lazyInit()
	in, ok := t.incoming[name]
	if !ok {
		in = &Relationship{name: name, kind: r.kind}
		t.incoming[name] = in
		t.inOrder = append(t.inOrder, name)
	}
	in.members = append(in.members, e.node())
	return e
}

// Remove drops the first occurrence of target from the outgoing relationship
// name together with its mirrored back-reference. If target is left without
// any incoming reference it is marked, which cascades through its own
// outgoing relationships.
func (e *Entity) Remove(name string, target Node) *Entity {
	const origin = "entity.remove"
	r := e.outgoingOrReport(name, origin)
	if r == nil {
		return e
	}
	if target == nil || target.Base() == nil {
		status.Report(status.InvalidTarget, origin)
		return e
	}
	i := r.index(target)
	if i < 0 {
		status.Report(status.NotMember, origin)
		return e
	}
	e.removeAt(r, i)
	return e
}

// Clear removes every member of the outgoing relationship name, front to back.
func (e *Entity) Clear(name string) *Entity {
	r := e.outgoingOrReport(name, "entity.clear")
	if r == nil {
		return e
	}
	for len(r.members) > 0 {
		e.removeAt(r, 0)
	}
	return e
}

func (e *Entity) removeAt(r *Relationship, i int) {
	target := r.members[i]
	r.deleteAt(i)

	t := target.Base()
	if in := t.incoming[r.name]; in != nil {
		if j := in.index(e); j >= 0 {
			in.deleteAt(j)
		}
	}
	if !t.marked && !t.Referenced() {
		t.mark()
	}
}

// mark tombstones e and clears its outgoing relationships.
func (e *Entity) mark() {
	e.marked = true
	for _, name := range e.outOrder {
		r := e.outgoing[name]
		for len(r.members) > 0 {
			e.removeAt(r, 0)
		}
	}
}

// Find returns the first unmarked member of relationship name matching pred,
// or nil. A nil pred matches everything.
func (e *Entity) Find(name string, pred func(Node) bool) Node {
	r := e.outgoingOrReport(name, "entity.find")
	if r == nil {
		return nil
	}
	for _, m := range r.members {
		if m.Base().marked {
			continue
		}
		if pred == nil || pred(m) {
			return m
		}
	}
	return nil
}

// Front returns the first member of relationship name, or nil when empty.
func (e *Entity) Front(name string) Node {
	r := e.outgoingOrReport(name, "entity.front")
	if r == nil || len(r.members) == 0 {
		return nil
	}
	return r.members[0]
}

// Back returns the last member of relationship name, or nil when empty.
func (e *Entity) Back(name string) Node {
	r := e.outgoingOrReport(name, "entity.back")
	if r == nil || len(r.members) == 0 {
		return nil
	}
	return r.members[len(r.members)-1]
}

// Len returns the member count of relationship name, 0 if undeclared.
func (e *Entity) Len(name string) int {
	if r := e.outgoing[name]; r != nil {
		return len(r.members)
	}
	return 0
}

// Members returns a copy of relationship name's members.
func (e *Entity) Members(name string) []Node {
	r := e.outgoingOrReport(name, "entity.members")
	if r == nil {
		return nil
	}
	return r.Members()
}

// Sort stably reorders the members of relationship name by cmp.
func (e *Entity) Sort(name string, cmp func(a, b Node) int) *Entity {
	r := e.outgoingOrReport(name, "entity.sort")
	if r == nil {
		return e
	}
	slices.SortStableFunc(r.members, cmp)
	return e
}

// PairwiseForEach visits adjacent member pairs of relationship name in order.
// When fn removes one side of the pair, iteration resumes with the surviving
// neighbourhood so no pair is skipped and no surviving pair is visited twice
// without an intervening change.
func (e *Entity) PairwiseForEach(name string, fn func(left, right Node) Step) *Entity {
	r := e.outgoingOrReport(name, "entity.pairwise")
	if r == nil {
		return e
	}
	for i := 0; i+1 < len(r.members); {
		switch fn(r.members[i], r.members[i+1]) {
		case RemoveLeft:
			e.removeAt(r, i)
			if i > 0 {
				i--
			}
		case RemoveRight:
			e.removeAt(r, i+1)
		case Stop:
			return e
		default:
			i++
		}
	}
	return e
}
