// Package renderset implements the renderable-set compiler:
// classification into static/dynamic x opaque/alpha-cutout/transparent
// partitions, sort, group compaction, and indirect-draw-call emission.
package renderset

// DrawKey is a strict weak ordering over (pipeline, material, mesh) used to
// group instances into one multi-draw-indirect call per key.
type DrawKey struct {
	PipelineID uint32
	MaterialID uint32
	MeshID uint32
}

func (k DrawKey) Less(o DrawKey) bool {
	if k.PipelineID != o.PipelineID {
		return k.PipelineID < o.PipelineID
	}
	if k.MaterialID != o.MaterialID {
		return k.MaterialID < o.MaterialID
	}
	return k.MeshID < o.MeshID
}

func (k DrawKey) Equal(o DrawKey) bool { return k == o }
