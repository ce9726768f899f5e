package material

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gekko3d/forge/render/gfx"
)

// pipelineKey is the memoization key for a concrete backend pipeline:
// (PipelineLayout, RenderPass-compatibility key). Layout
// pointers are stable for a pipeline layout's lifetime, so comparing by
// pointer plus the compat key's value fields is sound.
type pipelineKey struct {
	layout *gfx.PipelineLayout
	compat gfx.RenderPassCompatKey
	pass PassId
}

// PipelineCache lazily manufactures and memoizes GraphicsPipelines per
// (PipelineLayout, RenderPass-compat-key); eviction drops the backend
// pipeline object. A pipeline keyed on a layout or compat key that goes
// away is simply evicted under ordinary LRU capacity pressure, since
// neither is reference-counted here.
type PipelineCache struct {
	cache *lru.Cache[string, *gfx.GraphicsPipeline]
	keys map[string]pipelineKey
}

func NewPipelineCache(size int) (*PipelineCache, error) {
	c, err := lru.New[string, *gfx.GraphicsPipeline](size)
	if err != nil {
		return nil, err
	}
	return &PipelineCache{cache: c, keys: make(map[string]pipelineKey)}, nil
}

// GetOrCreate returns the cached pipeline for (layout, compat, pass),
// building it via build on a miss.
func (c *PipelineCache) GetOrCreate(layout *gfx.PipelineLayout, compat gfx.RenderPassCompatKey, pass PassId, build func() (*gfx.GraphicsPipeline, error)) (*gfx.GraphicsPipeline, error) {
	k := cacheKey(layout, compat, pass)
	if p, ok := c.cache.Get(k); ok {
		return p, nil
	}
	p, err := build()
	if err != nil {
		return nil, err
	}
	c.cache.Add(k, p)
	c.keys[k] = pipelineKey{layout: layout, compat: compat, pass: pass}
	return p, nil
}

// InvalidateLayout drops every cached pipeline built against layout — the
// "drops pipelines when either input drops" rule applied to a layout
// teardown.
func (c *PipelineCache) InvalidateLayout(layout *gfx.PipelineLayout) {
	for k, pk := range c.keys {
		if pk.layout == layout {
			c.cache.Remove(k)
			delete(c.keys, k)
		}
	}
}

func cacheKey(layout *gfx.PipelineLayout, compat gfx.RenderPassCompatKey, pass PassId) string {
	// Pointer identity is sufficient for layout: cache lifetime never
	// outlives the layout pointers it was keyed with.
	return fmt.Sprintf("%p|%s|%v|%v|%d", layout, pass, compat.ColorFormats, compat.DepthFormat, compat.SampleCount)
}
