package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/forge/render/gfx"
)

func TestPipelineCache_MemoizesByLayoutCompatAndPass(t *testing.T) {
	cache, err := NewPipelineCache(8)
	require.NoError(t, err)

	layout := &gfx.PipelineLayout{}
	compat := gfx.RenderPassCompatKey{SampleCount: 1}

	builds := 0
	build := func() (*gfx.GraphicsPipeline, error) {
		builds++
		return &gfx.GraphicsPipeline{}, nil
	}

	p1, err := cache.GetOrCreate(layout, compat, PassId("opaque"), build)
	require.NoError(t, err)
	p2, err := cache.GetOrCreate(layout, compat, PassId("opaque"), build)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, builds, "second call with identical key must hit the cache")

	_, err = cache.GetOrCreate(layout, compat, PassId("shadow"), build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds, "a different pass is a different cache entry")
}

func TestPipelineCache_InvalidateLayoutDropsItsEntries(t *testing.T) {
	cache, err := NewPipelineCache(8)
	require.NoError(t, err)

	layoutA := &gfx.PipelineLayout{}
	layoutB := &gfx.PipelineLayout{}
	compat := gfx.RenderPassCompatKey{}
	build := func() (*gfx.GraphicsPipeline, error) { return &gfx.GraphicsPipeline{}, nil }

	_, err = cache.GetOrCreate(layoutA, compat, PassId("opaque"), build)
	require.NoError(t, err)
	_, err = cache.GetOrCreate(layoutB, compat, PassId("opaque"), build)
	require.NoError(t, err)

	cache.InvalidateLayout(layoutA)

	builds := 0
	countingBuild := func() (*gfx.GraphicsPipeline, error) {
		builds++
		return &gfx.GraphicsPipeline{}, nil
	}
	_, err = cache.GetOrCreate(layoutA, compat, PassId("opaque"), countingBuild)
	require.NoError(t, err)
	assert.Equal(t, 1, builds, "layoutA's entry must have been evicted")

	builds = 0
	_, err = cache.GetOrCreate(layoutB, compat, PassId("opaque"), countingBuild)
	require.NoError(t, err)
	assert.Equal(t, 0, builds, "layoutB's entry must survive layoutA's invalidation")
}
