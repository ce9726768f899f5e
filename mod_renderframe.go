package forge

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/frame"
	"github.com/gekko3d/forge/render/renderset"
)

// BuildRenderInput walks every entity carrying a RenderableComponent and
// TransformComponent and classifies it into renderset.Input's
// static/dynamic x opaque/alpha-cutout/transparent partitions. Everything
// spawned through LoadScene is treated as dynamic: this root package has no
// "this transform never changes again" signal of its own, so it leaves the
// cheaper static-reuse path (renderset.Input.StaticDirty) for a caller that
// tracks that itself.
func BuildRenderInput(cmd *Commands, f *frame.Frame) renderset.Input {
	var in renderset.Input

	var idx uint32
	MakeQuery2[TransformComponent, RenderableComponent](cmd).Map(func(id EntityId, tr *TransformComponent, r *RenderableComponent) bool {
		row := renderset.ObjectRow{
			Key: renderset.DrawKey{
				PipelineID: r.PipelineID,
				MaterialID: r.Material.Slot,
				MeshID:     r.Mesh.Slot,
			},
			ObjectIdx:      idx,
			BoundingSphere: worldBoundingSphere(tr, r.BoundingSphere),
		}
		idx++

		switch {
		case r.Flags.Transparent():
			in.DynamicTransparent = append(in.DynamicTransparent, row)
		case r.Flags.AlphaCutout():
			in.DynamicAlphaCutout = append(in.DynamicAlphaCutout, row)
		default:
			in.DynamicOpaque = append(in.DynamicOpaque, row)
		}

		f.MeshHandles[r.Mesh.Slot] = r.Mesh
		f.MaterialHandles[r.Material.Slot] = r.Material
		return true
	})

	return in
}

// worldBoundingSphere translates an object-space bounding sphere by the
// entity's transform position and scales its radius by the transform's
// largest scale axis, matching the conservative (over-, never under-,
// estimating) bound the culling pass expects.
func worldBoundingSphere(tr *TransformComponent, local mgl32.Vec4) mgl32.Vec4 {
	scale := tr.Scale.X()
	if tr.Scale.Y() > scale {
		scale = tr.Scale.Y()
	}
	if tr.Scale.Z() > scale {
		scale = tr.Scale.Z()
	}
	center := tr.Position.Add(mgl32.Vec3{local.X(), local.Y(), local.Z()}.Mul(scale))
	return mgl32.Vec4{center.X(), center.Y(), center.Z(), local.W() * scale}
}

// RenderFrameSnapshot adapts BuildRenderInput into a frame.SnapshotFunc
// closure bound to a specific App's Commands.
func RenderFrameSnapshot(app *App) frame.SnapshotFunc {
	cmd := app.Commands()
	return func(f *frame.Frame) error {
		f.Input = BuildRenderInput(cmd, f)
		return nil
	}
}
