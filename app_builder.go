package forge

import (
	"reflect"
)

// AppBuilder assembles an App: register states and modules, then Build it.
// Module.Install runs during Build, after stages and resource storage exist
// but before Run is ever called, so modules can freely add resources,
// register systems, and spawn initial entities.
type AppBuilder struct {
	stateful     bool
	initialState State
	finalState   State
	modules      []Module
	dispatch     bool
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

// NewApp builds a stateless App with no modules installed yet, for callers
// that want to register modules incrementally via App.UseModules rather
// than collecting them upfront on an AppBuilder.
func NewApp() *App {
	return NewAppBuilder().Build()
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.stateful = true
	b.initialState = initialState
	b.finalState = finalState
	return b
}

func (b *AppBuilder) UseModule(module Module) *AppBuilder {
	b.modules = append(b.modules, module)
	return b
}

// UseModules installs additional modules on an already-built App, running
// Install immediately — for configuring an App that already exists, such as
// one made by NewApp or one AppBuilder.Build has already returned.
func (app *App) UseModules(modules ...Module) *App {
	app.modules = append(app.modules, modules...)
	commands := &Commands{app: app}
	for _, module := range modules {
		module.Install(app, commands)
	}
	return app
}

// UseDispatcher turns on conflict-partitioned parallel system execution for
// every stage. Systems that never call WithAccess are unaffected: they keep
// running sequentially, in registration order, in their own group.
func (b *AppBuilder) UseDispatcher() *AppBuilder {
	b.dispatch = true
	return b
}

func (b *AppBuilder) Build() *App {
	ecs := MakeEcs()
	app := &App{
		resources:        make(map[reflect.Type]any),
		stateful:         b.stateful,
		initialState:     b.initialState,
		finalState:       b.finalState,
		state:            b.initialState,
		systems:          make(map[string]map[State]map[statePhase][]scheduledSystem),
		systemsStateless: make(map[string][]scheduledSystem),
		ecs:              &ecs,
		modules:          b.modules,
	}
	if b.dispatch {
		app.dispatcher = NewDispatcher()
	}

	app.stages = append(app.stages,
		Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale,
	)
	for _, stage := range app.stages {
		app.initStatefulStage(stage)
	}

	commands := &Commands{app: app}
	for _, module := range app.modules {
		module.Install(app, commands)
	}

	return app
}
