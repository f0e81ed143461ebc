package entity

// Repository stores the entities of one type. Identifiers may collide, so a
// key maps to a list. Marked entities stay until Sweep.
type Repository struct {
	typ   Type
	order []Node // insertion order
	byID  map[string][]Node
}

// NewRepository returns an empty repository for t.
func NewRepository(t Type) *Repository {
	return &Repository{typ: t, byID: make(map[string][]Node)}
}

// Type returns the entity type stored here.
func (r *Repository) Type() Type { return r.typ }

// Len returns the number of physically present entities, marked or not.
func (r *Repository) Len() int { return len(r.order) }

// Insert adds n under its current identifier.
func (r *Repository) Insert(n Node) {
	r.order = append(r.order, n)
	id := n.Base().id
	r.byID[id] = append(r.byID[id], n)
}

// Holds reports whether n is physically present, marked or not.
func (r *Repository) Holds(n Node) bool {
	b := n.Base()
	for _, m := range r.byID[b.id] {
		if m.Base() == b {
			return true
		}
	}
	return false
}

// Find returns the first unmarked entity keyed by id.
func (r *Repository) Find(id string) Node {
	for _, m := range r.byID[id] {
		if !m.Base().marked {
			return m
		}
	}
	return nil
}

// FindAll returns every unmarked entity keyed by id.
func (r *Repository) FindAll(id string) []Node {
	var out []Node
	for _, m := range r.byID[id] {
		if !m.Base().marked {
			out = append(out, m)
		}
	}
	return out
}

// Select returns the first unmarked entity, in insertion order, matching pred.
func (r *Repository) Select(pred func(Node) bool) Node {
	for _, m := range r.order {
		if m.Base().marked {
			continue
		}
		if pred == nil || pred(m) {
			return m
		}
	}
	return nil
}

// Each calls fn for every unmarked entity in insertion order until fn
// returns false.
func (r *Repository) Each(fn func(Node) bool) {
	for _, m := range r.order {
		if m.Base().marked {
			continue
		}
		if !fn(m) {
			return
		}
	}
}

// Count returns the number of unmarked entities.
func (r *Repository) Count() int {
	n := 0
	for _, m := range r.order {
		if !m.Base().marked {
			n++
		}
	}
	return n
}

// Rekey moves n from its current identifier to id. n keeps its position in
// insertion order.
func (r *Repository) Rekey(n Node, id string) {
	b := n.Base()
	if b.id == id {
		return
	}
	if list := r.byID[b.id]; list != nil {
		for i, m := range list {
			if m.Base() == b {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(r.byID, b.id)
		} else {
			r.byID[b.id] = list
		}
	}
	b.id = id
	r.byID[id] = append(r.byID[id], n)
}

// Sweep physically deletes every marked entity and returns how many went.
func (r *Repository) Sweep() int {
	kept := r.order[:0]
	removed := 0
	for _, m := range r.order {
		if m.Base().marked {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	clear(r.order[len(kept):])
	r.order = kept
	if removed == 0 {
		return 0
	}

	for id, list := range r.byID {
		live := list[:0]
		for _, m := range list {
			if !m.Base().marked {
				live = append(live, m)
			}
		}
		if len(live) == 0 {
			delete(r.byID, id)
			continue
		}
		clear(list[len(live):])
		r.byID[id] = live
	}
	return removed
}
