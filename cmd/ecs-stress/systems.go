package main

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/plus3/simecs/ecs"
)

// flowSystem moves a fraction of one field kind into another on every entity
// carrying both.
type flowSystem struct {
	*ecs.SystemBase

	store    *ecs.Store
	from, to reflect.Type
	rate     float64
}

func newFlowSystem(name string, store *ecs.Store, from, to kind, rate float64, opts ...ecs.SystemOption) *flowSystem {
	s := &flowSystem{
		store: store,
		from:  from.typ,
		to:    to.typ,
		rate:  rate,
	}
	s.SystemBase = ecs.NewSystemBase(name, s, opts...)
	return s
}

func (s *flowSystem) UpdateComponents(entities []ecs.Entity) ecs.ChangeSet {
	changed := ecs.NewChangeSet()
	for _, e := range entities {
		src, ok := s.store.GetType(e, s.from).(valuer)
		if !ok {
			continue
		}
		dst, ok := s.store.GetType(e, s.to).(valuer)
		if !ok {
			continue
		}

		moved := *src.value() * s.rate
		*src.value() -= moved
		*dst.value() += moved
		changed.Add(src)
		changed.Add(dst)
	}
	return changed
}

func (s *flowSystem) Footprint() []reflect.Type {
	return []reflect.Type{s.from, s.to}
}

// decayView is the tuple of the decay system.
type decayView struct {
	*Field[f00]
	Damper *Field[f01] `ecs:"optional"`
}

// newDecaySystem shrinks f00 on every entity, slower where f01 is present.
func newDecaySystem(store *ecs.Store, opts ...ecs.GenericOption) *ecs.GenericSystem[decayView] {
	return ecs.NewGenericSystem[decayView]("decay", store, ecs.BehaviorFuncs[decayView]{
		ApplyFunc: func(_ ecs.Entity, c decayView) ecs.ChangeSet {
			factor := 0.99
			if c.Damper != nil {
				factor = 0.999
			}
			c.Value *= factor
			return ecs.NewChangeSet(c.Field)
		},
	}, opts...)
}

// churnSystem queues structural edits: a few entities per tick lose one kind
// and gain another. It has no footprint and always runs alone.
type churnSystem struct {
	*ecs.SystemBase

	store *ecs.Store
	cmds  *ecs.Commands
	rng   *rand.Rand
	ratio float64
}

func newChurnSystem(store *ecs.Store, cmds *ecs.Commands, rng *rand.Rand, ratio float64, opts ...ecs.SystemOption) *churnSystem {
	s := &churnSystem{store: store, cmds: cmds, rng: rng, ratio: ratio}
	s.SystemBase = ecs.NewSystemBase("churn", s, opts...)
	return s
}

func (s *churnSystem) UpdateComponents(entities []ecs.Entity) ecs.ChangeSet {
	for _, e := range entities {
		if s.rng.Float64() >= s.ratio {
			continue
		}
		drop := kinds[s.rng.IntN(len(kinds))]
		gain := kinds[s.rng.IntN(len(kinds))]
		if s.store.HasType(e, drop.typ) {
			s.cmds.Remove(e, drop.typ)
		}
		if !s.store.HasType(e, gain.typ) {
			s.cmds.Add(e, gain.spawn(s.rng.Float64()))
		}
	}
	return nil
}

// registerSystems registers count flow systems between random kinds, the
// decay and churn systems, and a random acyclic dependency graph: each system
// depends on each earlier one with probability density.
func registerSystems(scheduler *ecs.Scheduler, store *ecs.Store, rng *rand.Rand, count int, density, churn float64, opts ...ecs.SystemOption) []ecs.SystemID {
	ids := make([]ecs.SystemID, 0, count+2)

	for i := range count {
		from := kinds[rng.IntN(len(kinds))]
		to := kinds[rng.IntN(len(kinds))]
		for to.typ == from.typ {
			to = kinds[rng.IntN(len(kinds))]
		}
		name := fmt.Sprintf("flow_%03d", i)
		ids = append(ids, scheduler.Register(newFlowSystem(name, store, from, to, 0.01+rng.Float64()*0.1, opts...)))
	}

	ids = append(ids, scheduler.Register(newDecaySystem(store, ecs.WithSystemOptions(opts...))))
	if churn > 0 {
		ids = append(ids, scheduler.Register(newChurnSystem(store, scheduler.Commands(), rng, churn, opts...)))
	}

	for i, id := range ids {
		for _, dep := range ids[:i] {
			if rng.Float64() < density {
				scheduler.AddDependency(id, dep)
			}
		}
	}
	return ids
}
