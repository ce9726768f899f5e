package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario A: new(1,8); a=allocate(3); b=allocate(2); c=allocate(1);
// free(b) does not coalesce; free(c) leaves the top split; free(a) coalesces
// back to the full (0,8) block.
func TestBuddy_ScenarioA(t *testing.T) {
	b := New(1, 8)

	a, ok := b.Allocate(3)
	require.True(t, ok)
	assert.Equal(t, Block{Base: 0, Length: 4}, a)

	bl, ok := b.Allocate(2)
	require.True(t, ok)
	assert.Equal(t, Block{Base: 4, Length: 2}, bl)

	c, ok := b.Allocate(1)
	require.True(t, ok)
	assert.Equal(t, Block{Base: 6, Length: 1}, c)

	b.Free(bl)
	assert.True(t, allBlocksTile(t, b, 1, 8, a, c))
	assert.NotContains(t, b.freeBlocks[3], Block{Base: 0, Length: 8})

	b.Free(c)
	assert.True(t, allBlocksTile(t, b, 1, 8, a))
	assert.NotContains(t, b.freeBlocks[3], Block{Base: 0, Length: 8})

	b.Free(a)
	_, full := b.freeBlocks[3][Block{Base: 0, Length: 8}]
	assert.True(t, full, "expected the allocator to coalesce back to one top-level block")
}

// Property 2: after freeing every outstanding block in any order, only the
// top level is non-empty, holding a single block covering the whole range.
func TestBuddy_CoalescesFully(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		b := New(1, 16)
		var allocated []Block
		for {
			n := uint32(rng.Intn(4) + 1)
			blk, ok := b.Allocate(n)
			if !ok {
				break
			}
			allocated = append(allocated, blk)
		}

		rng.Shuffle(len(allocated), func(i, j int) {
			allocated[i], allocated[j] = allocated[j], allocated[i]
		})
		for _, blk := range allocated {
			b.Free(blk)
		}

		top := len(b.freeBlocks) - 1
		for level := 0; level < top; level++ {
			assert.Emptyf(t, b.freeBlocks[level], "trial %d: level %d should be empty after full coalescing", trial, level)
		}
		assert.Len(t, b.freeBlocks[top], 1)
		for blk := range b.freeBlocks[top] {
			assert.Equal(t, Block{Base: 0, Length: 16}, blk)
		}
	}
}

// Property 1: outstanding blocks plus free blocks (per level) tile the whole
// domain exactly, for any sequence of allocate/free/expand/reserve_for.
func TestBuddy_Totality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := New(2, 4)
	outstanding := map[Block]struct{}{}

	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0, 1:
			n := uint32(rng.Intn(6) + 1)
			b.ReserveFor(n)
			blk, ok := b.Allocate(n)
			if ok {
				outstanding[blk] = struct{}{}
			}
		case 2:
			if len(outstanding) == 0 {
				continue
			}
			for blk := range outstanding {
				delete(outstanding, blk)
				b.Free(blk)
				break
			}
		case 3:
			if b.blockCount < 1<<10 {
				b.Expand(b.blockCount * 2)
			}
		}
		require.True(t, tilesExactly(b, outstanding), "iteration %d broke tiling", i)
	}
}

func allBlocksTile(t *testing.T, b *Buddy, baseCap, blockCount uint32, outstanding ...Block) bool {
	t.Helper()
	set := make(map[Block]struct{}, len(outstanding))
	for _, blk := range outstanding {
		set[blk] = struct{}{}
	}
	return tilesExactly(b, set)
}

// tilesExactly verifies that free blocks (across all levels) plus the given
// outstanding blocks exactly tile [0, baseBlockCap*blockCount) with no gaps
// or overlaps.
func tilesExactly(b *Buddy, outstanding map[Block]struct{}) bool {
	total := b.baseBlockCap * b.blockCount
	covered := make([]bool, total)

	mark := func(blk Block) bool {
		for i := blk.Base; i < blk.Base+blk.Length; i++ {
			if i >= total || covered[i] {
				return false
			}
			covered[i] = true
		}
		return true
	}

	for _, level := range b.freeBlocks {
		for blk := range level {
			if !mark(blk) {
				return false
			}
		}
	}
	for blk := range outstanding {
		if !mark(blk) {
			return false
		}
	}
	for _, c := range covered {
		if !c {
			return false
		}
	}
	return true
}
