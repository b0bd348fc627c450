package ecs

import (
	"math"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Entity is an opaque identifier. It carries no data of its own; an entity
// "exists" only in the sense that some Store has received a component for it.
type Entity uint64

// NoEntity is the null entity. Allocators never return it.
const NoEntity Entity = 0

// SystemID identifies a registered system.
type SystemID uint64

// NoSystem is the null system id. Allocators never return it.
const NoSystem SystemID = 0

// ErrIDSpaceExhausted is raised (as a panic) when an allocator has handed out
// every identifier it can represent.
var ErrIDSpaceExhausted = eris.New("ecs: identifier space exhausted")

// counter is a monotonically increasing, never-wrapping id source starting at 1.
type counter struct {
	last atomic.Uint64
}

func (c *counter) next() uint64 {
	for {
		last := c.last.Load()
		if last == math.MaxUint64 {
			panic(ErrIDSpaceExhausted)
		}
		if c.last.CompareAndSwap(last, last+1) {
			return last + 1
		}
	}
}

// EntityAllocator hands out unique entity identifiers. It is safe for
// concurrent use. The zero value is ready to use.
type EntityAllocator struct {
	c counter
}

// NewEntityAllocator creates an allocator whose first entity is 1.
func NewEntityAllocator() *EntityAllocator {
	return &EntityAllocator{}
}

// Allocate returns the next entity. Identifiers are strictly increasing and
// never reused.
func (a *EntityAllocator) Allocate() Entity {
	return Entity(a.c.next())
}

// SystemAllocator hands out unique system identifiers, independently of any
// EntityAllocator. It is safe for concurrent use.
type SystemAllocator struct {
	c counter
}

// NewSystemAllocator creates an allocator whose first id is 1.
func NewSystemAllocator() *SystemAllocator {
	return &SystemAllocator{}
}

// Allocate returns the next system id.
func (a *SystemAllocator) Allocate() SystemID {
	return SystemID(a.c.next())
}
