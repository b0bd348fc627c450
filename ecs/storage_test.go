package ecs_test

import (
	"testing"

	"github.com/plus3/simecs/ecs"
	"github.com/stretchr/testify/assert"
)

func TestStoreAddGetHasRemove(t *testing.T) {
	store := ecs.NewStore()
	pos := newPosition(3, 4)

	ecs.Add(store, 1, pos)

	assert.Same(t, pos, ecs.Get[Position](store, 1))
	assert.True(t, ecs.Has[Position](store, 1))
	assert.False(t, ecs.Has[Velocity](store, 1))
	assert.Nil(t, ecs.Get[Velocity](store, 1))
	assert.Nil(t, ecs.Get[Position](store, 2))

	ecs.Remove[Position](store, 1)

	assert.Nil(t, ecs.Get[Position](store, 1))
	assert.False(t, ecs.Has[Position](store, 1))
	assert.True(t, store.Known(1), "removing a component keeps the entity known")
}

func TestStoreAddReplaces(t *testing.T) {
	store := ecs.NewStore()

	first := newPosition(1, 1)
	second := newPosition(2, 2)
	ecs.Add(store, 7, first)
	ecs.Add(store, 7, second)

	assert.Same(t, second, ecs.Get[Position](store, 7))
	assert.Equal(t, 1, ecs.Count[Position](store))
}

func TestStoreRemoveAbsentIsNoop(t *testing.T) {
	store := ecs.NewStore()

	assert.NotPanics(t, func() {
		ecs.Remove[Position](store, 42)
	})

	ecs.Add(store, 1, newVelocity(1, 1))
	assert.NotPanics(t, func() {
		ecs.Remove[Position](store, 1)
	})
	assert.True(t, ecs.Has[Velocity](store, 1))
}

func TestStoreGetHasNoSideEffects(t *testing.T) {
	store := ecs.NewStore()

	assert.Nil(t, ecs.Get[Position](store, 5))
	assert.False(t, ecs.Has[Position](store, 5))
	assert.False(t, store.Known(5))
	assert.Empty(t, store.Entities())
	assert.Empty(t, store.ComponentTypes())
}

func TestStoresAreIndependent(t *testing.T) {
	a := ecs.NewStore()
	b := ecs.NewStore()

	ecs.Add(a, 1, newPosition(1, 1))
	ecs.Add(b, 1, newPosition(9, 9))
	ecs.Add(b, 2, newHealth(10, 10))

	assert.Equal(t, float32(1), ecs.Get[Position](a, 1).X)
	assert.Equal(t, float32(9), ecs.Get[Position](b, 1).X)
	assert.False(t, ecs.Has[Health](a, 2))
	assert.Equal(t, []ecs.Entity{1}, a.Entities())
	assert.Equal(t, []ecs.Entity{1, 2}, b.Entities())

	ecs.Remove[Position](a, 1)
	assert.NotNil(t, ecs.Get[Position](b, 1))
}

func TestStoreEntities(t *testing.T) {
	store := ecs.NewStore()

	ecs.Add(store, 9, newPosition(0, 0))
	ecs.Add(store, 3, newPosition(0, 0))
	ecs.Add(store, 3, newVelocity(0, 0))
	ecs.Add(store, 5, newHealth(1, 1))
	ecs.Remove[Health](store, 5)

	assert.Equal(t, []ecs.Entity{3, 5, 9}, store.Entities())
}

func TestStoreAll(t *testing.T) {
	store := ecs.NewStore()
	for e := ecs.Entity(1); e <= 5; e++ {
		ecs.Add(store, e, newPosition(float32(e), 0))
	}
	ecs.Add(store, 6, newVelocity(1, 1))

	sum := float32(0)
	count := 0
	for e, pos := range ecs.All[Position](store) {
		assert.Equal(t, float32(e), pos.X)
		sum += pos.X
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, float32(15), sum)

	t.Run("early break", func(t *testing.T) {
		seen := 0
		for range ecs.All[Position](store) {
			seen++
			break
		}
		assert.Equal(t, 1, seen)
	})

	t.Run("mutating the store while iterating", func(t *testing.T) {
		assert.NotPanics(t, func() {
			for e := range ecs.All[Position](store) {
				ecs.Remove[Position](store, e)
			}
		})
		assert.Equal(t, 0, ecs.Count[Position](store))
	})

	t.Run("unknown type", func(t *testing.T) {
		for range ecs.All[Health](store) {
			t.Fatal("expected no health components")
		}
	})
}

func TestStoreComponents(t *testing.T) {
	store := ecs.NewStore()
	pos := newPosition(1, 2)
	vel := newVelocity(3, 4)
	ecs.Add(store, 1, vel)
	ecs.Add(store, 1, pos)
	ecs.Add(store, 2, newHealth(1, 1))

	components := store.Components(1)

	assert.Len(t, components, 2)
	assert.Same(t, pos, components[0])
	assert.Same(t, vel, components[1])
	assert.Empty(t, store.Components(3))
}

func TestStoreAnyAccess(t *testing.T) {
	store := ecs.NewStore()
	health := newHealth(5, 10)

	store.AddAny(4, health)

	assert.Same(t, health, ecs.Get[Health](store, 4))
	assert.Same(t, health, store.GetType(4, ecs.TypeOf[Health]()))
	assert.True(t, store.HasType(4, ecs.TypeOf[Health]()))

	store.RemoveType(4, ecs.TypeOf[Health]())
	assert.False(t, ecs.Has[Health](store, 4))

	assert.Panics(t, func() { store.AddAny(4, Health{}) })
	assert.Panics(t, func() { ecs.Add[Health](store, 4, nil) })
}

func TestStoreStats(t *testing.T) {
	store := ecs.NewStore()

	stats := store.Stats()
	assert.Equal(t, 0, stats.EntityCount)
	assert.Equal(t, 0, stats.ComponentCount)
	assert.Empty(t, stats.Types)

	ecs.Add(store, 1, newPosition(0, 0))
	ecs.Add(store, 2, newPosition(0, 0))
	ecs.Add(store, 2, newVelocity(0, 0))

	stats = store.Stats()
	assert.Equal(t, 2, stats.EntityCount)
	assert.Equal(t, 3, stats.ComponentCount)
	assert.Equal(t, []ecs.ComponentTypeStats{
		{Name: "ecs_test.Position", Count: 2},
		{Name: "ecs_test.Velocity", Count: 1},
	}, stats.Types)
}
