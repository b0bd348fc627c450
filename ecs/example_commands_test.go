package ecs_test

import (
	"fmt"

	"github.com/plus3/simecs/ecs"
)

// ExampleCommands demonstrates deferring structural edits until the end of a
// tick. Systems that remove or add components while the scheduler runs queue
// them on the scheduler's Commands; Once applies the queue after every stage
// has finished.
func ExampleCommands() {
	store := ecs.NewStore()
	ids := ecs.NewEntityAllocator()

	alive := ids.Allocate()
	ecs.Add(store, alive, newHealth(10, 10))
	dead := ids.Allocate()
	ecs.Add(store, dead, newHealth(0, 10))

	scheduler := ecs.NewScheduler()
	cleanup := ecs.NewGenericSystem[struct{ *Health }]("cleanup", store, ecs.BehaviorFuncs[struct{ *Health }]{
		ApplyFunc: func(e ecs.Entity, c struct{ *Health }) ecs.ChangeSet {
			if c.Health.Current <= 0 {
				scheduler.Commands().Remove(e, ecs.TypeOf[Health]())
			}
			return nil
		},
	})
	scheduler.Register(cleanup)

	scheduler.Execute(store.Entities())
	fmt.Println("queued:", scheduler.Commands().Len())
	fmt.Println("dead has health:", ecs.Has[Health](store, dead))

	scheduler.Commands().Flush(store)
	fmt.Println("dead has health:", ecs.Has[Health](store, dead))
	fmt.Println("alive has health:", ecs.Has[Health](store, alive))

	// Output:
	// queued: 1
	// dead has health: true
	// dead has health: false
	// alive has health: true
}
