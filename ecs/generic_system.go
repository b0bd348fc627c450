package ecs

import (
	"reflect"
	"sync"
	"unsafe"
)

// Behavior supplies the three pure functions that drive a GenericSystem.
//
// Eligible is a cheap pre-filter. Retrieve resolves the component tuple for
// an entity and may follow owner references to other entities. Apply updates
// a complete tuple and returns the components it changed; it must only touch
// components reachable through that tuple.
type Behavior[T any] interface {
	Eligible(entity Entity) bool
	Retrieve(entity Entity) T
	Apply(entity Entity, components T) ChangeSet
}

// BehaviorFuncs builds a Behavior from functions. A nil EligibleFunc checks
// that the entity has every required component; a nil RetrieveFunc reads the
// tuple of the entity itself from the store. ApplyFunc is mandatory.
type BehaviorFuncs[T any] struct {
	EligibleFunc func(entity Entity) bool
	RetrieveFunc func(entity Entity) T
	ApplyFunc    func(entity Entity, components T) ChangeSet
}

// Eligible calls EligibleFunc.
func (f BehaviorFuncs[T]) Eligible(entity Entity) bool {
	return f.EligibleFunc(entity)
}

// Retrieve calls RetrieveFunc.
func (f BehaviorFuncs[T]) Retrieve(entity Entity) T {
	return f.RetrieveFunc(entity)
}

// Apply calls ApplyFunc.
func (f BehaviorFuncs[T]) Apply(entity Entity, components T) ChangeSet {
	return f.ApplyFunc(entity, components)
}

// GenericSystem applies a Behavior to every entity whose required components
// are all present.
//
// T is a component tuple: a struct of pointer fields, one per component type,
// for example
//
//	struct {
//		*Wanderer
//		*TimedEntity
//	}
//
// Embedded fields are required. Named fields tagged `ecs:"optional"` may be nil.
// An entity whose retrieved tuple misses a required component is skipped for
// that update; Apply never sees an incomplete tuple.
type GenericSystem[T any] struct {
	*SystemBase

	store    *Store
	layout   *tupleLayout
	behavior Behavior[T]
	touches  []reflect.Type

	statsMu sync.Mutex
	stats   RunStats
}

// GenericOption configures a GenericSystem.
type GenericOption func(*genericConfig)

type genericConfig struct {
	systemOpts []SystemOption
	touches    []reflect.Type
}

// WithSystemOptions forwards options to the embedded SystemBase.
func WithSystemOptions(opts ...SystemOption) GenericOption {
	return func(c *genericConfig) {
		c.systemOpts = append(c.systemOpts, opts...)
	}
}

// Touches declares component types the behavior reads or writes beyond the
// tuple, such as components resolved through an owner reference. They are
// part of the system's footprint for concurrent scheduling.
func Touches(types ...reflect.Type) GenericOption {
	return func(c *genericConfig) {
		c.touches = append(c.touches, types...)
	}
}

// TypeOf returns the component type tag of T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// NewGenericSystem creates a system over component tuple T backed by store.
func NewGenericSystem[T any](name string, store *Store, behavior Behavior[T], opts ...GenericOption) *GenericSystem[T] {
	if store == nil {
		panic("generic system " + name + " requires a store")
	}

	cfg := genericConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &GenericSystem[T]{
		store:   store,
		layout:  newTupleLayout[T](),
		touches: cfg.touches,
	}
	g.behavior = g.withDefaults(behavior)
	g.SystemBase = NewSystemBase(name, g, cfg.systemOpts...)
	return g
}

func (g *GenericSystem[T]) withDefaults(behavior Behavior[T]) Behavior[T] {
	var funcs BehaviorFuncs[T]
	switch b := behavior.(type) {
	case BehaviorFuncs[T]:
		funcs = b
	case *BehaviorFuncs[T]:
		if b == nil {
			panic("generic system requires a behavior")
		}
		funcs = *b
	case nil:
		panic("generic system requires a behavior")
	default:
		return behavior
	}

	if funcs.ApplyFunc == nil {
		panic("generic system requires an apply function")
	}
	if funcs.EligibleFunc == nil {
		funcs.EligibleFunc = g.HasRequired
	}
	if funcs.RetrieveFunc == nil {
		funcs.RetrieveFunc = g.Fetch
	}
	return funcs
}

// Store returns the store the system reads from.
func (g *GenericSystem[T]) Store() *Store {
	return g.store
}

// HasRequired reports whether entity has every required tuple component.
func (g *GenericSystem[T]) HasRequired(entity Entity) bool {
	return g.layout.hasRequired(g.store, entity)
}

// Fetch reads the tuple of entity from the store. Missing components are nil.
func (g *GenericSystem[T]) Fetch(entity Entity) T {
	var result T
	g.layout.fill(g.store, entity, unsafe.Pointer(&result))
	return result
}

// Complete reports whether every required component of the tuple is set.
func (g *GenericSystem[T]) Complete(components T) bool {
	return g.layout.complete(unsafe.Pointer(&components))
}

// ChangedAll returns a ChangeSet with every component of the tuple.
func (g *GenericSystem[T]) ChangedAll(components T) ChangeSet {
	return NewChangeSet(g.layout.components(unsafe.Pointer(&components))...)
}

// Footprint returns the component types the system reads or writes.
func (g *GenericSystem[T]) Footprint() []reflect.Type {
	footprint := make([]reflect.Type, 0, len(g.layout.types)+len(g.touches))
	footprint = append(footprint, g.layout.types...)
	return append(footprint, g.touches...)
}

// UpdateComponents implements Updater.
func (g *GenericSystem[T]) UpdateComponents(entities []Entity) ChangeSet {
	changed := NewChangeSet()
	stats := RunStats{Candidates: len(entities)}

	for _, entity := range entities {
		if !g.behavior.Eligible(entity) {
			continue
		}
		stats.Eligible++

		components := g.behavior.Retrieve(entity)
		if !g.Complete(components) {
			continue
		}
		stats.Retrieved++

		changed.Merge(g.behavior.Apply(entity, components))
		stats.Applied++
	}

	g.statsMu.Lock()
	g.stats = stats
	g.statsMu.Unlock()

	return changed
}

func (g *GenericSystem[T]) runStats() RunStats {
	g.statsMu.Lock()
	defer g.statsMu.Unlock()
	return g.stats
}

var _ System = (*GenericSystem[struct{ *Record }])(nil)
