package ecs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPlan(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		plan := buildPlan(nil, nil)
		assert.Empty(t, plan.Stages)
		assert.Empty(t, plan.Starved)
		assert.Equal(t, 0, plan.Len())
	})

	t.Run("self dependency starves", func(t *testing.T) {
		plan := buildPlan([]SystemID{1, 2}, map[SystemID][]SystemID{1: {1}})
		assert.Equal(t, []Stage{{2}}, plan.Stages)
		assert.Equal(t, []SystemID{1}, plan.Starved)

		err := newCycleError(plan.Starved, map[SystemID][]SystemID{1: {1}})
		assert.Equal(t, []SystemID{1}, err.OnCycle)
		assert.Empty(t, err.Blocked)
	})

	t.Run("dependents of a cycle are blocked", func(t *testing.T) {
		deps := map[SystemID][]SystemID{
			1: {2},
			2: {3},
			3: {1},
			4: {3},
			5: {4},
		}
		plan := buildPlan([]SystemID{1, 2, 3, 4, 5, 6}, deps)
		assert.Equal(t, []Stage{{6}}, plan.Stages)
		assert.Equal(t, []SystemID{1, 2, 3, 4, 5}, plan.Starved)

		err := newCycleError(plan.Starved, deps)
		assert.Equal(t, []SystemID{1, 2, 3}, err.OnCycle)
		assert.Equal(t, []SystemID{4, 5}, err.Blocked)
		assert.Contains(t, err.Error(), "blocking [4 5]")
		assert.ErrorIs(t, err, ErrDependencyCycle)
	})

	t.Run("dependency-only ids are planned", func(t *testing.T) {
		plan := buildPlan([]SystemID{2}, map[SystemID][]SystemID{2: {7}})
		assert.Equal(t, []Stage{{7}, {2}}, plan.Stages)
	})
}

func TestAllocatorExhaustion(t *testing.T) {
	var ids EntityAllocator
	ids.c.last.Store(math.MaxUint64 - 1)

	assert.Equal(t, Entity(math.MaxUint64), ids.Allocate())
	assert.PanicsWithValue(t, ErrIDSpaceExhausted, func() { ids.Allocate() })

	var systems SystemAllocator
	systems.c.last.Store(math.MaxUint64)
	assert.Panics(t, func() { systems.Allocate() })
}
