package ecs

import (
	"iter"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/kamstrup/intmap"
)

const defaultContainerCapacity = 64

// Store is the component storage of one ECS instance. Each Store keeps its
// own registry from component type to container, so two stores never see
// each other's data even for identical component types.
//
// Store is safe for concurrent use. Components are handed out as pointers
// that stay owned by the Store; systems mutate them in place.
type Store struct {
	mu         sync.RWMutex
	containers map[reflect.Type]*componentContainer
	known      *intmap.Map[Entity, struct{}]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		containers: make(map[reflect.Type]*componentContainer),
		known:      intmap.New[Entity, struct{}](defaultContainerCapacity),
	}
}

// containerFor returns the container for t, creating it when missing.
// Callers must hold the write lock.
func (s *Store) containerFor(t reflect.Type) *componentContainer {
	c, ok := s.containers[t]
	if !ok {
		c = newComponentContainer(t)
		s.containers[t] = c
	}
	return c
}

// Add stores component as the T-component of entity, replacing any previous
// one, and marks entity as known to this store.
func Add[T any](s *Store, entity Entity, component *T) {
	if component == nil {
		panic("cannot add a nil component")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.containerFor(reflect.TypeFor[T]()).put(entity, component)
	s.known.Put(entity, struct{}{})
}

// Get returns the T-component of entity, or nil when absent.
func Get[T any](s *Store, entity Entity) *T {
	component, _ := s.GetType(entity, reflect.TypeFor[T]()).(*T)
	return component
}

// Has reports whether entity has a T-component.
func Has[T any](s *Store, entity Entity) bool {
	return s.HasType(entity, reflect.TypeFor[T]())
}

// Remove deletes the T-component of entity if present. The entity stays
// known to the store.
func Remove[T any](s *Store, entity Entity) {
	s.RemoveType(entity, reflect.TypeFor[T]())
}

// All iterates every T-component in the store in ascending entity order. The
// iteration works on a snapshot, so the store may be modified while iterating.
func All[T any](s *Store) iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		s.mu.RLock()
		c, ok := s.containers[reflect.TypeFor[T]()]
		if !ok {
			s.mu.RUnlock()
			return
		}
		entities := make([]Entity, 0, c.len())
		components := make(map[Entity]*T, c.len())
		c.forEach(func(e Entity, component any) bool {
			entities = append(entities, e)
			components[e] = component.(*T)
			return true
		})
		s.mu.RUnlock()

		slices.Sort(entities)
		for _, e := range entities {
			if !yield(e, components[e]) {
				return
			}
		}
	}
}

// Count returns how many entities have a T-component.
func Count[T any](s *Store) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[reflect.TypeFor[T]()]
	if !ok {
		return 0
	}
	return c.len()
}

// AddAny stores a component whose type is only known at runtime. component
// must be a non-nil pointer to a struct or value type; the component type is
// the pointed-to type.
func (s *Store) AddAny(entity Entity, component any) {
	v := reflect.ValueOf(component)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("AddAny requires a non-nil pointer component")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.containerFor(v.Type().Elem()).put(entity, component)
	s.known.Put(entity, struct{}{})
}

// GetType returns the component of type t for entity, or nil.
// The returned value is a pointer to t.
func (s *Store) GetType(entity Entity, t reflect.Type) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[t]
	if !ok {
		return nil
	}
	return c.get(entity)
}

// HasType reports whether entity has a component of type t.
func (s *Store) HasType(entity Entity, t reflect.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[t]
	if !ok {
		return false
	}
	return c.has(entity)
}

// RemoveType deletes the component of type t for entity if present.
func (s *Store) RemoveType(entity Entity, t reflect.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.containers[t]; ok {
		c.del(entity)
	}
}

// Known reports whether entity ever received a component through this store.
func (s *Store) Known(entity Entity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known.Has(entity)
}

// Entities returns every entity that ever received a component through this
// store, in ascending order.
func (s *Store) Entities() []Entity {
	s.mu.RLock()
	entities := make([]Entity, 0, s.known.Len())
	s.known.ForEach(func(e Entity, _ struct{}) bool {
		entities = append(entities, e)
		return true
	})
	s.mu.RUnlock()

	slices.Sort(entities)
	return entities
}

// Components returns the components currently attached to entity, sorted by
// component type name. Values that implement Component are included as such;
// the rest are skipped.
func (s *Store) Components(entity Entity) []Component {
	s.mu.RLock()
	types := make([]reflect.Type, 0, len(s.containers))
	for t, c := range s.containers {
		if c.has(entity) {
			types = append(types, t)
		}
	}
	sort.Sort(byTypeName(types))

	components := make([]Component, 0, len(types))
	for _, t := range types {
		if component, ok := s.containers[t].get(entity).(Component); ok {
			components = append(components, component)
		}
	}
	s.mu.RUnlock()

	return components
}

// ComponentTypes returns the component types this store has containers for,
// sorted by name.
func (s *Store) ComponentTypes() []reflect.Type {
	s.mu.RLock()
	types := make([]reflect.Type, 0, len(s.containers))
	for t := range s.containers {
		types = append(types, t)
	}
	s.mu.RUnlock()

	sort.Sort(byTypeName(types))
	return types
}

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }
