package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmkit/vm/status"
)

func TestRegistryCreateAutoRepository(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	require.Nil(t, g.Repository(TypeValue))

	a := newItem("a", 1)
	got := g.Create(a)
	assert.Same(t, a, got)

	repo := g.Repository(TypeValue)
	require.NotNil(t, repo)
	assert.Equal(t, TypeValue, repo.Type())
	assert.Equal(t, 1, repo.Len())
	assert.Same(t, a, g.Lookup(TypeValue, "a"))
	assert.Same(t, a, g.GetFirst(TypeValue))
	assert.Len(t, g.Repositories(), 1)
}

func TestRegistryCreateNil(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	assert.Nil(t, g.Create(nil))
	assert.Equal(t, status.InvalidTarget, status.LastCode())
}

func TestRegistryCreateUnmarksReusedEntity(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	owner := g.Create(New(TypeCollection, "c")).Base()
	a := newItem("a", 1)
	g.Create(a)
	owner.Declare("items", OneToMany).Add("items", a).Remove("items", a)
	require.True(t, a.Marked())
	assert.Nil(t, g.Lookup(TypeValue, "a"), "marked entities are invisible")

	g.Create(a)
	assert.False(t, a.Marked())
	assert.Equal(t, 1, g.Repository(TypeValue).Len(), "reuse must not insert twice")
	assert.Same(t, a, g.Lookup(TypeValue, "a"))
}

func TestRegistryCreateAfterSweepReinserts(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	a := newItem("a", 1)
	g.Create(a)
	g.Destroy(a)
	require.Zero(t, g.Repository(TypeValue).Len())

	g.Create(a)
	assert.False(t, a.Marked())
	assert.Same(t, a, g.Lookup(TypeValue, "a"))
}

func TestRegistryDestroyCascadesAndSweeps(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	method := New(TypeMethod, "main")
	list := New(TypeCollection, "list")
	a, b := newItem("a", 1), newItem("b", 2)
	for _, n := range []Node{method, list, a, b} {
		g.Create(n)
	}
	method.Declare("locals", OneToMany).Add("locals", list)
	list.Declare("items", OneToMany).Add("items", a).Add("items", b)

	g.Destroy(list)

	assert.True(t, list.Marked())
	assert.True(t, a.Marked())
	assert.True(t, b.Marked())
	assert.Zero(t, method.Len("locals"), "destroy detaches referrers")
	assert.Zero(t, g.Count(TypeValue))
	assert.Zero(t, g.Repository(TypeValue).Len(), "swept")
	assert.Zero(t, g.Repository(TypeCollection).Len(), "swept")
	assert.Equal(t, 1, g.Count(TypeMethod))
	assert.True(t, status.Empty())
}

func TestRegistryDestroyNil(t *testing.T) {
	resetLog(t)
	NewRegistry().Destroy(nil)
	assert.Equal(t, status.InvalidTarget, status.LastCode())
}

func TestRegistryDestroyRefusesBlocksAndChunks(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	chunk := New(TypeChunk, "chunk").Declare("reserved", OneToMany)
	block := New(TypeMemory, "0x1000")
	g.Create(chunk)
	g.Create(block)
	chunk.Add("reserved", block)

	g.Destroy(block)
	assert.Equal(t, status.InvalidTarget, status.LastCode())
	assert.False(t, block.Marked())
	assert.True(t, chunk.Relationship("reserved").Contains(block))

	status.Clear()
	g.Destroy(chunk)
	assert.Equal(t, status.InvalidTarget, status.LastCode())
	assert.False(t, chunk.Marked())
	assert.Equal(t, 1, g.Count(TypeMemory))
	assert.Equal(t, 1, g.Count(TypeChunk))
}

func TestRegistrySelectSkipsMarked(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	owner := New(TypeCollection, "c").Declare("items", OneToMany)
	a, b := newItem("a", 5), newItem("b", 5)
	g.Create(a)
	g.Create(b)
	owner.Add("items", a).Remove("items", a)

	heavy := func(n Node) bool { return n.(*item).weight == 5 }
	assert.Same(t, b, g.Select(TypeValue, heavy))
	assert.Same(t, b, g.GetFirst(TypeValue))
	assert.Equal(t, 1, g.Count(TypeValue))
	assert.Nil(t, g.Select(TypeThread, nil))
	assert.Nil(t, g.GetFirst(TypeThread))
	assert.Nil(t, g.Lookup(TypeThread, "x"))

	var seen []string
	g.Each(TypeValue, func(n Node) bool {
		seen = append(seen, n.Base().ID())
		return true
	})
	assert.Equal(t, []string{"b"}, seen)

	assert.Equal(t, 1, g.Sweep())
	assert.Equal(t, 1, g.Repository(TypeValue).Len())
}

func TestRegistryRekey(t *testing.T) {
	resetLog(t)
	g := NewRegistry()
	a := newItem("0x1000", 1)
	g.Create(a)

	g.Rekey(a, "0x2000")
	assert.Equal(t, "0x2000", a.ID())
	assert.Nil(t, g.Lookup(TypeValue, "0x1000"))
	assert.Same(t, a, g.Lookup(TypeValue, "0x2000"))

	loose := newItem("x", 1)
	g.Rekey(loose, "y")
	assert.Equal(t, "y", loose.ID())
	assert.Nil(t, g.Lookup(TypeValue, "y"), "rekey does not register")
}

func TestRepositoryDuplicateIDs(t *testing.T) {
	resetLog(t)
	r := NewRepository(TypeMemory)
	a, b := newItem("0x10", 1), newItem("0x10", 2)
	r.Insert(a)
	r.Insert(b)

	assert.Same(t, a, r.Find("0x10"))
	assert.Len(t, r.FindAll("0x10"), 2)

	owner := New(TypeChunk, "c").Declare("free", OneToMany)
	owner.Add("free", a).Remove("free", a)
	require.True(t, a.Marked())

	assert.Same(t, b, r.Find("0x10"), "find skips marked entries")
	assert.True(t, r.Holds(a))
	assert.Equal(t, 1, r.Sweep())
	assert.False(t, r.Holds(a))
	assert.Equal(t, []Node{b}, r.FindAll("0x10"))
	assert.Zero(t, r.Sweep())
}

func TestRepositoryRekeyWithCollision(t *testing.T) {
	r := NewRepository(TypeMemory)
	a, b := newItem("0x10", 1), newItem("0x20", 2)
	r.Insert(a)
	r.Insert(b)

	r.Rekey(b, "0x10")
	assert.Len(t, r.FindAll("0x10"), 2)
	assert.Nil(t, r.Find("0x20"))
	assert.Equal(t, 2, r.Count())

	r.Rekey(a, "0x10")
	assert.Len(t, r.FindAll("0x10"), 2, "no-op rekey")
}
