package forge

import (
	"fmt"
	"reflect"
	"runtime"
	"time"
)

// systemFn is any function the scheduler can call: its parameters are
// resolved by reflection against *Commands and registered resources.
type systemFn any

type App struct {
	stateful            bool
	stateMachineStarted bool
	stateTransitioning  bool
	initialState        State
	finalState          State
	nextState           State
	state               State

	stages           []Stage
	systems          map[string]map[State]map[statePhase][]scheduledSystem
	systemsStateless map[string][]scheduledSystem

	resources map[reflect.Type]any
	ecs       *Ecs
	modules   []Module

	pendingAdditions    []pendingAdd
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
	pendingRemovals     []EntityId

	dispatcher *Dispatcher
}

const STATELESS_STATE State = 0

type Module interface {
	Install(app *App, commands *Commands)
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

func (app *App) Run() {
	if app.stateful {
		app.runStateful()
	} else {
		app.runStateless()
	}
}

func (app *App) runStateful() {
	app.executeChangeState(app.initialState)

	for {
		app.callStages(app.state, execute)
		app.applyPendingMutations()

		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			break
		}
	}

	app.callStages(app.state, exit)
	app.applyPendingMutations()
}

func (app *App) runStateless() {
	for {
		app.callStages(STATELESS_STATE, execute)
		app.applyPendingMutations()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	if !app.stateMachineStarted {
		app.stateMachineStarted = true
		app.state = newState
		app.callStages(app.state, enter)
	} else {
		app.callStages(app.state, exit)
		app.state = newState
		app.callStages(app.state, enter)
	}
	app.applyPendingMutations()
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// callStages runs every stage's systems, in stage order, for the given
// state+phase: first the systems registered RunAlways/stateless, then (in a
// stateful app) the ones registered for this exact state and phase. Without
// a dispatcher (UseDispatcher not called) each list runs sequentially in
// registration order; with one, each list is handed to Dispatcher.Run, which
// runs each system with no declared access in a group of its own and runs
// systems with non-overlapping declared access concurrently.
func (app *App) callStages(state State, phase statePhase) {
	for _, stage := range app.stages {
		app.runSystems(app.systemsStateless[stage.Name])
		if !app.stateful {
			continue
		}
		if systemsInStage, ok := app.systems[stage.Name]; ok {
			if systemsInState, ok := systemsInStage[state]; ok {
				app.runSystems(systemsInState[phase])
			}
		}
	}
}

func (app *App) runSystems(systems []scheduledSystem) {
	if len(systems) == 0 {
		return
	}
	if app.dispatcher == nil {
		for _, system := range systems {
			app.callSystem(system.fn)
		}
		return
	}
	app.dispatcher.Run(systems, app.callSystem)
}

func (app *App) callSystem(system systemFn) {
	start := time.Now()
	app.callSystemInternal(system)
	app.Logger().Debugf("system %s: %dms",
		runtime.FuncForPC(reflect.ValueOf(system).Pointer()).Name(),
		time.Since(start).Milliseconds(),
	)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			resourceVal := reflect.ValueOf(resource)
			typedResourceVal := reflect.NewAt(underlyingType, resourceVal.UnsafePointer())
			args[i] = typedResourceVal
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// applyPendingMutations drains the structural-change queues Commands fills
// during a tick — entity/component add/remove all happen here, after every
// system for this tick has run, so no system ever observes a half-applied
// archetype move mid-iteration.
func (app *App) applyPendingMutations() {
	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rem := range app.pendingCompRemovals {
		app.ecs.removeComponents(rem.eid, rem.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]

	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]
}
