package debugui

import (
	"github.com/plus3/simecs/ecs"
)

// Inspector groups the debug windows over one store and scheduler.
type Inspector struct {
	store     *ecs.Store
	scheduler *ecs.Scheduler
	timer     *FrameTimer

	Entities    *EntityBrowser
	Components  *ComponentInspector
	Types       *ComponentTypeViewer
	Performance *PerformanceStats
	Query       *QueryDebugger
	Systems     *SchedulerWindow
}

// NewInspector creates the debug windows. scheduler may be nil, in which case
// the scheduler window is not drawn.
func NewInspector(store *ecs.Store, scheduler *ecs.Scheduler) *Inspector {
	return &Inspector{
		store:       store,
		scheduler:   scheduler,
		timer:       NewFrameTimer(),
		Entities:    NewEntityBrowser(100),
		Components:  NewComponentInspector(),
		Types:       NewComponentTypeViewer(),
		Performance: NewPerformanceStats(120),
		Query:       NewQueryDebugger(),
		Systems:     NewSchedulerWindow(),
	}
}

// Render draws every window. It must run inside an ImGui frame.
func (in *Inspector) Render() {
	in.Entities.Render(in.store)
	in.Components.Render(in.store, in.Entities.Selected())

	if clicked := in.Types.Render(in.store); clicked != "" {
		in.Entities.FilterByType(clicked)
	}

	in.Performance.Render(in.store, in.scheduler, in.timer.GetDeltaTime())
	in.Query.Render(in.store)

	if in.scheduler != nil {
		in.Systems.Render(in.scheduler)
	}
}

// SpawnDebugUI adds an entity carrying the inspector's render function to
// store and returns it. The ImGui system must be registered for it to draw.
func SpawnDebugUI(entities *ecs.EntityAllocator, store *ecs.Store, scheduler *ecs.Scheduler) ecs.Entity {
	inspector := NewInspector(store, scheduler)
	e := entities.Allocate()
	ecs.Add(store, e, NewImguiItem(inspector.Render))
	return e
}
