package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmkit/vm/entity"
	"github.com/joshuapare/vmkit/vm/status"
)

const testBase Addr = 0x1000

// newTestChunk returns a heap-backed chunk at testBase with a clean status log.
func newTestChunk(t *testing.T, capacity uint32) *Chunk {
	t.Helper()
	status.Clear()
	t.Cleanup(status.Clear)

	c, err := New(entity.NewRegistry(), testBase, capacity, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assertInvariants(t, c)
	return c
}

// assertInvariants fails the test if the chunk's bookkeeping is broken.
func assertInvariants(t *testing.T, c *Chunk) {
	t.Helper()
	require.NoError(t, c.Verify())
}

// reserveAll reserves each size in order and fails on the first nil.
func reserveAll(t *testing.T, c *Chunk, sizes ...uint32) []*Memory {
	t.Helper()
	out := make([]*Memory, len(sizes))
	for i, s := range sizes {
		out[i] = c.Reserve(s)
		require.NotNilf(t, out[i], "reserve #%d (%d bytes)", i, s)
	}
	assertInvariants(t, c)
	return out
}

func mustRelease(t *testing.T, c *Chunk, m *Memory) {
	t.Helper()
	freed, code := c.Release(m)
	require.Equal(t, status.OK, code)
	require.True(t, freed)
	assertInvariants(t, c)
}

// layout renders the chunk as offset/size/free triples relative to its base.
func layout(c *Chunk) [][3]uint64 {
	var out [][3]uint64
	for _, b := range c.Layout() {
		free := uint64(0)
		if b.Free {
			free = 1
		}
		out = append(out, [3]uint64{uint64(b.Addr - c.BaseAddress()), uint64(b.Size), free})
	}
	return out
}

func fill(m *Memory, tag byte) {
	b := m.Bytes()
	for i := range b {
		b[i] = tag
	}
}
