package ecs

import (
	"reflect"
	"sync"
)

// Commands buffers structural store edits made while systems run. The
// scheduler flushes the buffer after each tick driven through Once or Run,
// so systems of a concurrent stage never add or remove components directly.
type Commands struct {
	mu      sync.Mutex
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type addComponentCommand struct {
	entity    Entity
	component any
}

type removeComponentCommand struct {
	entity   Entity
	compType reflect.Type
}

// Defer queues a function to run after the buffered edits are applied.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defers = append(c.defers, fn)
}

// Add queues adding component (a non-nil pointer) to entity.
func (c *Commands) Add(entity Entity, component any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// Remove queues removing the component of type compType from entity.
func (c *Commands) Remove(entity Entity, compType reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies removes, then adds, then deferred functions to store and
// resets the buffer.
func (c *Commands) Flush(store *Store) {
	c.mu.Lock()
	removes, adds, defers := c.removes, c.adds, c.defers
	c.removes, c.adds, c.defers = nil, nil, nil
	c.mu.Unlock()

	for _, cmd := range removes {
		store.RemoveType(cmd.entity, cmd.compType)
	}

	for _, cmd := range adds {
		store.AddAny(cmd.entity, cmd.component)
	}

	for _, fn := range defers {
		fn()
	}
}
