package entity

import (
	"github.com/joshuapare/vmkit/internal/logger"
	"github.com/joshuapare/vmkit/vm/status"
)

// Registry is the set of repositories, one per observed entity type. It is
// the single entry point for creating, destroying and querying entities.
type Registry struct {
	repos  []*Repository
	byType map[Type]*Repository
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[Type]*Repository)}
}

// Repository returns the repository for t, or nil if no entity of that type
// was ever created.
func (g *Registry) Repository(t Type) *Repository { return g.byType[t] }

// Repositories returns every repository in creation order.
func (g *Registry) Repositories() []*Repository {
	out := make([]*Repository, len(g.repos))
	copy(out, g.repos)
	return out
}

func (g *Registry) repo(t Type) *Repository {
	r, ok := g.byType[t]
	if !ok {
		r = NewRepository(t)
		g.byType[t] = r
		g.repos = append(g.repos, r)
	}
	return r
}

// Create registers n. An entity that was marked but not yet swept is simply
// unmarked; one that is already present and live is left alone.
func (g *Registry) Create(n Node) Node {
	if n == nil || n.Base() == nil {
		status.Report(status.InvalidTarget, "registry.create")
		return nil
	}
	b := n.Base()
	b.lazyInit()
	r := g.repo(b.typ)
	if r.Holds(n) {
		b.marked = false
		return n
	}
	b.marked = false
	r.Insert(n)
	return n
}

// Destroy detaches n from every relationship that lists it, marks it (which
// clears its outgoing relationships and cascades to now-unreferenced
// children) and sweeps all repositories.
//
// Memory blocks and chunks carry byte accounting that only their allocator
// can update. Destroying one reports InvalidTarget and changes nothing;
// release blocks through the allocator instead.
func (g *Registry) Destroy(n Node) {
	if n == nil || n.Base() == nil {
		status.Report(status.InvalidTarget, "registry.destroy")
		return
	}
	b := n.Base()
	if b.typ == TypeMemory || b.typ == TypeChunk {
		status.Report(status.InvalidTarget, "registry.destroy")
		return
	}
	for _, name := range b.inOrder {
		in := b.incoming[name]
		for len(in.members) > 0 {
			holder := in.members[0].Base()
			out := holder.outgoing[name]
			i := -1
			if out != nil {
				i = out.index(b)
			}
			if i < 0 {
				// Mirror is broken; drop the dangling back-reference.
				status.Report(status.UnknownFault, "registry.destroy")
				in.deleteAt(0)
				continue
			}
			holder.removeAt(out, i)
		}
	}
	if !b.marked {
		b.mark()
	}
	g.Sweep()
}

// Sweep physically removes marked entities from every repository.
func (g *Registry) Sweep() int {
	total := 0
	for _, r := range g.repos {
		total += r.Sweep()
	}
	if total > 0 {
		logger.Debug("registry sweep", "removed", total)
	}
	return total
}

// Select returns the first unmarked entity of type t matching pred.
func (g *Registry) Select(t Type, pred func(Node) bool) Node {
	r := g.byType[t]
	if r == nil {
		return nil
	}
	return r.Select(pred)
}

// GetFirst returns the first unmarked entity of type t. Process-wide
// singletons such as the allocator are resolved this way.
func (g *Registry) GetFirst(t Type) Node { return g.Select(t, nil) }

// Lookup returns the unmarked entity of type t keyed by id.
func (g *Registry) Lookup(t Type, id string) Node {
	r := g.byType[t]
	if r == nil {
		return nil
	}
	return r.Find(id)
}

// Each visits every unmarked entity of type t until fn returns false.
func (g *Registry) Each(t Type, fn func(Node) bool) {
	if r := g.byType[t]; r != nil {
		r.Each(fn)
	}
}

// Count returns the number of unmarked entities of type t.
func (g *Registry) Count(t Type) int {
	if r := g.byType[t]; r != nil {
		return r.Count()
	}
	return 0
}

// Rekey changes n's identifier and keeps its repository index consistent.
// Entities that were never created just get the new identifier.
func (g *Registry) Rekey(n Node, id string) {
	b := n.Base()
	if r := g.byType[b.typ]; r != nil && r.Holds(n) {
		r.Rekey(n, id)
		return
	}
	b.id = id
}
