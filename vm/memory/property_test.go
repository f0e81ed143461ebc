package memory

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmkit/vm/status"
)

// TestChunkRandomOperations drives a chunk through random reserve, resize,
// release and defragmentation steps and checks after every step that byte
// accounting holds, free blocks are coalesced and block contents survive.
func TestChunkRandomOperations(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1337} {
		t.Run("", func(t *testing.T) {
			runRandomOperations(t, seed, 2000)
		})
	}
}

func runRandomOperations(t *testing.T, seed int64, steps int) {
	c := newTestChunk(t, 4096)
	rng := rand.New(rand.NewSource(seed))

	type live struct {
		m   *Memory
		tag byte
	}
	var blocks []live
	nextTag := byte(1)

	check := func(step int, op string) {
		t.Helper()
		require.NoErrorf(t, c.Verify(), "seed %d step %d after %s", seed, step, op)
		for _, b := range blocks {
			want := bytes.Repeat([]byte{b.tag}, int(b.m.Size()))
			require.Equalf(t, want, b.m.Bytes(), "seed %d step %d after %s: block %s lost its bytes", seed, step, op, b.m)
		}
	}

	for step := 0; step < steps; step++ {
		switch op := rng.Intn(10); {
		case op < 4 || len(blocks) == 0:
			size := uint32(rng.Intn(128) + 1)
			can := c.CanReserve(size)
			freeBefore := c.FreeBytes()
			m := c.Reserve(size)
			require.Equal(t, can, m != nil, "CanReserve must predict Reserve")
			if m != nil {
				require.Equal(t, size, m.Size())
				require.Equal(t, freeBefore-size, c.FreeBytes())
				fill(m, nextTag)
				blocks = append(blocks, live{m, nextTag})
				nextTag++
				if nextTag == 0 {
					nextTag = 1
				}
			}
			check(step, "reserve")

		case op < 7:
			i := rng.Intn(len(blocks))
			freed, code := c.Release(blocks[i].m)
			require.Equal(t, status.OK, code)
			require.True(t, freed)
			blocks = append(blocks[:i], blocks[i+1:]...)
			check(step, "release")

		case op < 9:
			b := &blocks[rng.Intn(len(blocks))]
			newSize := uint32(rng.Intn(192) + 1)
			code := c.Resize(b.m, newSize)
			switch code {
			case status.OK:
				require.Equal(t, newSize, b.m.Size())
				fill(b.m, b.tag)
			case status.NoMemory, status.FragmentedMemory:
				require.NotEqual(t, newSize, b.m.Size())
			default:
				t.Fatalf("unexpected resize code %s", code)
			}
			check(step, "resize")

		default:
			free := c.FreeBytes()
			c.Defragmentation()
			require.Equal(t, free, c.FreeBytes())
			require.LessOrEqual(t, len(c.FreeBlocks()), 1)
			check(step, "defrag")
		}
	}
	status.Clear()
}
