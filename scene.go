package forge

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/handle"
)

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Lights        []LightDef
	Renderables   []RenderableDef
	ActiveCameras []ActiveCameraDef
	// Generic extensions can be added here if needed, or composed in higher level structs
}

// RenderFlags marks the draw-key partition a RenderableComponent belongs to,
// matching the static/dynamic x opaque/alpha-cutout/transparent
// classification the renderable-set compiler sorts instances into.
type RenderFlags uint8

const (
	RenderStatic RenderFlags = 1 << iota
	RenderAlphaCutout
	RenderTransparent
)

func (f RenderFlags) Static() bool      { return f&RenderStatic != 0 }
func (f RenderFlags) AlphaCutout() bool { return f&RenderAlphaCutout != 0 }
func (f RenderFlags) Transparent() bool { return f&RenderTransparent != 0 }

// RenderableComponent is the concrete component renderset.Compile's per-entity
// iterators read: a mesh/material pair already allocated through the mesh
// and material factories, plus the pipeline that draws them and the
// partition flags that route the instance into the right draw group.
type RenderableComponent struct {
	Mesh           handle.Handle
	Material       handle.Handle
	PipelineID     uint32
	Flags          RenderFlags
	BoundingSphere mgl32.Vec4 // xyz = center, w = radius, object space
}

// RenderableDef declares one renderable instance for LoadScene: a mesh and
// material already resident in their factories (asset loading itself is out
// of scope; callers allocate handles up front and hand them here), plus the
// transform and partition it should spawn with.
type RenderableDef struct {
	Mesh           handle.Handle
	Material       handle.Handle
	PipelineID     uint32
	Flags          RenderFlags
	BoundingSphere mgl32.Vec4
	Position       mgl32.Vec3
	Rotation       mgl32.Quat
	Scale          mgl32.Vec3
}

// ActiveCameraDef declares one camera entity to spawn as part of the scene.
type ActiveCameraDef struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Up        mgl32.Vec3
	Fov       float32
	Aspect    float32
	Near      float32
	Far       float32
}

// LightDef defines a light instantiation.
type LightDef struct {
	Type      LightType
	Position  mgl32.Vec3
	Color     [3]float32
	Intensity float32
	Range     float32
	ConeAngle float32
	Rotation  mgl32.Quat
	Orbit     *Orbiting
	Rotate    bool
}

// Rotating component for simple rotation behavior
type Rotating struct{}

// Orbiting component for simple orbiting behavior
type Orbiting struct {
	Center mgl32.Vec3
	Radius float32
	Speed  float32
	Angle  float32
}

// LoadScene iterates through the SceneDef and spawns entities.
func LoadScene(cmd *Commands, scene *SceneDef) {
	for _, light := range scene.Lights {
		spawnLight(cmd, light)
	}

	for _, renderable := range scene.Renderables {
		spawnRenderable(cmd, renderable)
	}

	for _, cam := range scene.ActiveCameras {
		spawnActiveCamera(cmd, cam)
	}
}

func spawnRenderable(cmd *Commands, def RenderableDef) {
	scale := def.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	cmd.AddEntity(
		&TransformComponent{
			Position: def.Position,
			Rotation: quatToYaw(def.Rotation),
			Scale:    scale,
		},
		&RenderableComponent{
			Mesh:           def.Mesh,
			Material:       def.Material,
			PipelineID:     def.PipelineID,
			Flags:          def.Flags,
			BoundingSphere: def.BoundingSphere,
		},
	)
}

// quatToYaw narrows a full orientation down to TransformComponent's single
// yaw-angle field.
func quatToYaw(q mgl32.Quat) float32 {
	if q == (mgl32.Quat{}) {
		return 0
	}
	angle, _ := q.ToAngleAxis()
	return angle
}

func spawnActiveCamera(cmd *Commands, def ActiveCameraDef) {
	cmd.AddEntity(&CameraComponent{
		Position:  def.Position,
		Direction: def.Direction,
		Up:        def.Up,
		Fov:       def.Fov,
		Aspect:    def.Aspect,
		Near:      def.Near,
		Far:       def.Far,
	})
}

func spawnLight(cmd *Commands, def LightDef) {
	comps := []any{
		&TransformComponent{
			Position: def.Position,
			Rotation: quatToYaw(def.Rotation),
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		&LightComponent{
			Type:      def.Type,
			Color:     def.Color,
			Intensity: def.Intensity,
			Range:     def.Range,
			ConeAngle: def.ConeAngle,
		},
	}

	if def.Orbit != nil {
		comps = append(comps, def.Orbit)
	}
	if def.Rotate {
		comps = append(comps, &Rotating{})
	}

	cmd.AddEntity(comps...)
}
