package forge

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformHierarchySystem_RootSyncsFromTransformComponent(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	app.UseModules(HierarchyModule{})

	eid := cmd.AddEntity(
		&TransformComponent{Position: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1}},
		&LocalTransform{Scale: mgl32.Vec3{1, 1, 1}},
		&WorldTransform{},
	)
	app.applyPendingMutations()
	app.callStages(STATELESS_STATE, execute)

	tr := getComponent[TransformComponent](app, eid)
	if tr.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("expected root TransformComponent.Position to stay {1,2,3}, got %v", tr.Position)
	}
}

func TestTransformHierarchySystem_ChildComposesThroughParent(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	app.UseModules(HierarchyModule{})

	parent := cmd.AddEntity(
		&TransformComponent{Position: mgl32.Vec3{10, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}},
		&LocalTransform{Scale: mgl32.Vec3{1, 1, 1}},
		&WorldTransform{},
	)
	app.applyPendingMutations()
	app.callStages(STATELESS_STATE, execute)

	child := cmd.AddEntity(
		&LocalTransform{Position: mgl32.Vec3{1, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}},
		&WorldTransform{},
		&Parent{Entity: parent},
		&TransformComponent{Scale: mgl32.Vec3{1, 1, 1}},
	)
	app.applyPendingMutations()
	app.callStages(STATELESS_STATE, execute)

	childTr := getComponent[TransformComponent](app, child)
	want := mgl32.Vec3{11, 0, 0}
	if childTr.Position != want {
		t.Errorf("expected child world position %v, got %v", want, childTr.Position)
	}
}

func getComponent[T any](app *App, eid EntityId) T {
	ecs := app.ecs
	archId := ecs.entityIndex[eid]
	arch := ecs.archetypes[archId]
	row := arch.entities[eid]

	compId := ecs.getComponentId(typeOf[T]())
	slice := arch.componentData[compId].([]T)
	return slice[row]
}
