package forge

import "github.com/go-gl/mathgl/mgl32"

// Parent links a child entity to the entity its WorldTransform is composed
// relative to.
type Parent struct {
	Entity EntityId
}

// LocalTransform is a hierarchy entity's transform relative to its Parent
// (or to the world, for roots without one). Unlike TransformComponent's
// single yaw angle, LocalTransform keeps a full quaternion so a multi-level
// chain doesn't lose orientation pass after pass.
type LocalTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// WorldTransform is LocalTransform composed through every ancestor up to a
// root. TransformHierarchySystem recomputes it every tick.
type WorldTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// HierarchyModule installs TransformHierarchySystem in PostUpdate, after
// gameplay/physics have had their turn at TransformComponent in Update and
// before the render bridge snapshots it in PreRender.
type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformHierarchySystem).InStage(PostUpdate).RunAlways(),
	)
}

// TransformHierarchySystem composes LocalTransform/Parent chains into
// WorldTransform, then writes the result back onto TransformComponent (when
// present) so BuildRenderInput and everything else that only knows about
// TransformComponent sees hierarchy-composed placement without having to
// know Parent/LocalTransform exist.
func TransformHierarchySystem(cmd *Commands) {
	// Roots: entities with no Parent. A TransformComponent, when present,
	// seeds LocalTransform's position/scale every tick, so systems that only
	// touch TransformComponent (PhysicsSyncSystem, gameplay code) still
	// drive the root without knowing about the hierarchy at all.
	MakeQuery3[LocalTransform, WorldTransform, TransformComponent](cmd).WithoutTypes(Parent{}).Map(func(eid EntityId, local *LocalTransform, world *WorldTransform, tr *TransformComponent) bool {
		if tr != nil {
			local.Position = tr.Position
			local.Scale = tr.Scale
		}

		world.Position = local.Position
		world.Rotation = local.Rotation
		world.Scale = local.Scale
		return true
	}, TransformComponent{})

	// Children, a few passes deep so multi-level chains settle in one tick;
	// a shallow hierarchy converges after the first pass.
	for pass := 0; pass < 4; pass++ {
		MakeQuery3[LocalTransform, Parent, WorldTransform](cmd).WithTypes(Parent{}).Map(func(eid EntityId, local *LocalTransform, parent *Parent, world *WorldTransform) bool {
			parentWorld, ok := findWorldTransform(cmd, parent.Entity)
			if !ok {
				return true
			}

			// WorldPos = ParentPos + ParentRot * (ParentScale * LocalPos)
			scaledLocalPos := mgl32.Vec3{
				local.Position.X() * parentWorld.Scale.X(),
				local.Position.Y() * parentWorld.Scale.Y(),
				local.Position.Z() * parentWorld.Scale.Z(),
			}
			world.Position = parentWorld.Position.Add(parentWorld.Rotation.Rotate(scaledLocalPos))
			world.Rotation = parentWorld.Rotation.Mul(local.Rotation).Normalize()
			world.Scale = mgl32.Vec3{
				parentWorld.Scale.X() * local.Scale.X(),
				parentWorld.Scale.Y() * local.Scale.Y(),
				parentWorld.Scale.Z() * local.Scale.Z(),
			}
			return true
		})
	}

	// Publish the composed world transform back onto TransformComponent.
	MakeQuery2[WorldTransform, TransformComponent](cmd).Map(func(eid EntityId, world *WorldTransform, tr *TransformComponent) bool {
		tr.Position = world.Position
		tr.Rotation = quatToYaw(world.Rotation)
		tr.Scale = world.Scale
		return true
	})
}

func findWorldTransform(cmd *Commands, eid EntityId) (WorldTransform, bool) {
	for _, c := range cmd.GetAllComponents(eid) {
		if w, ok := c.(WorldTransform); ok {
			return w, true
		}
	}
	return WorldTransform{}, false
}
