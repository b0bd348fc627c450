package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// componentContainer holds the components of a single type, keyed by entity.
// Values are always pointers to typ.
type componentContainer struct {
	typ   reflect.Type
	items *intmap.Map[Entity, any]
}

func newComponentContainer(t reflect.Type) *componentContainer {
	return &componentContainer{
		typ:   t,
		items: intmap.New[Entity, any](defaultContainerCapacity),
	}
}

func (c *componentContainer) put(entity Entity, component any) {
	c.items.Put(entity, component)
}

// get returns the component pointer for entity, or nil.
func (c *componentContainer) get(entity Entity) any {
	component, ok := c.items.Get(entity)
	if !ok {
		return nil
	}
	return component
}

func (c *componentContainer) has(entity Entity) bool {
	return c.items.Has(entity)
}

func (c *componentContainer) del(entity Entity) {
	c.items.Del(entity)
}

func (c *componentContainer) len() int {
	return c.items.Len()
}

func (c *componentContainer) forEach(fn func(Entity, any) bool) {
	c.items.ForEach(fn)
}
