package ecs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plus3/simecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// runLog records the order in which systems executed.
type runLog struct {
	mu    sync.Mutex
	names []string
}

func (l *runLog) system(name string, opts ...ecs.SystemOption) *ecs.SystemBase {
	return ecs.NewSystemBase(name, ecs.UpdaterFunc(func([]ecs.Entity) ecs.ChangeSet {
		l.mu.Lock()
		l.names = append(l.names, name)
		l.mu.Unlock()
		return nil
	}), opts...)
}

func (l *runLog) executed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

func TestSchedulerPlan(t *testing.T) {
	t.Run("chain runs one stage per system", func(t *testing.T) {
		log := &runLog{}
		scheduler := ecs.NewScheduler()

		a := scheduler.Register(log.system("A"))
		b := scheduler.Register(log.system("B"))
		c := scheduler.Register(log.system("C"))
		scheduler.AddDependency(b, a)
		scheduler.AddDependency(c, b)

		plan := scheduler.BuildPlan()
		assert.Equal(t, []ecs.Stage{{a}, {b}, {c}}, plan.Stages)
		assert.Empty(t, plan.Starved)

		scheduler.Execute([]ecs.Entity{1})
		assert.Equal(t, []string{"A", "B", "C"}, log.executed())
	})

	t.Run("registration order does not matter", func(t *testing.T) {
		log := &runLog{}
		scheduler := ecs.NewScheduler()

		c := scheduler.Register(log.system("C"))
		b := scheduler.Register(log.system("B"))
		a := scheduler.Register(log.system("A"))
		scheduler.AddDependency(c, b)
		scheduler.AddDependency(b, a)

		assert.Equal(t, []ecs.Stage{{a}, {b}, {c}}, scheduler.BuildPlan().Stages)

		scheduler.Execute([]ecs.Entity{1})
		assert.Equal(t, []string{"A", "B", "C"}, log.executed())
	})

	t.Run("independent systems share a stage sorted by id", func(t *testing.T) {
		scheduler := ecs.NewScheduler()
		log := &runLog{}

		ids := []ecs.SystemID{
			scheduler.Register(log.system("x")),
			scheduler.Register(log.system("y")),
			scheduler.Register(log.system("z")),
		}

		plan := scheduler.BuildPlan()
		require.Len(t, plan.Stages, 1)
		assert.Equal(t, ecs.Stage(ids), plan.Stages[0])
	})

	t.Run("diamond", func(t *testing.T) {
		scheduler := ecs.NewScheduler()
		log := &runLog{}

		top := scheduler.Register(log.system("top"))
		left := scheduler.Register(log.system("left"))
		right := scheduler.Register(log.system("right"))
		bottom := scheduler.Register(log.system("bottom"))
		scheduler.AddDependency(left, top)
		scheduler.AddDependency(right, top)
		scheduler.AddDependency(bottom, left)
		scheduler.AddDependency(bottom, right)

		plan := scheduler.BuildPlan()
		assert.Equal(t, []ecs.Stage{{top}, {left, right}, {bottom}}, plan.Stages)
		assert.Equal(t, 1, plan.StageOf(left))
		assert.Equal(t, -1, plan.StageOf(999))
		assert.Equal(t, 4, plan.Len())
	})

	t.Run("duplicate dependencies are ignored", func(t *testing.T) {
		scheduler := ecs.NewScheduler()
		log := &runLog{}

		a := scheduler.Register(log.system("A"))
		b := scheduler.Register(log.system("B"))
		scheduler.AddDependency(b, a)
		scheduler.AddDependency(b, a)

		assert.Equal(t, []ecs.SystemID{a}, scheduler.Dependencies(b))
		assert.Equal(t, []ecs.Stage{{a}, {b}}, scheduler.BuildPlan().Stages)
	})

	t.Run("unknown dependency is planned but skipped", func(t *testing.T) {
		scheduler := ecs.NewScheduler()
		log := &runLog{}

		a := scheduler.Register(log.system("A"))
		scheduler.AddDependency(a, 999)

		plan := scheduler.BuildPlan()
		assert.Equal(t, []ecs.Stage{{999}, {a}}, plan.Stages)

		scheduler.Execute([]ecs.Entity{1})
		assert.Equal(t, []string{"A"}, log.executed())
	})

	t.Run("fingerprint follows layout", func(t *testing.T) {
		scheduler := ecs.NewScheduler()
		log := &runLog{}

		a := scheduler.Register(log.system("A"))
		b := scheduler.Register(log.system("B"))

		flat := scheduler.BuildPlan().Fingerprint()
		assert.Equal(t, flat, scheduler.BuildPlan().Fingerprint())

		scheduler.AddDependency(b, a)
		assert.NotEqual(t, flat, scheduler.BuildPlan().Fingerprint())
	})
}

func TestSchedulerCycles(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	log := &runLog{}
	scheduler := ecs.NewScheduler(ecs.WithSchedulerLogger(zap.New(core)))

	a := scheduler.Register(log.system("A"))
	b := scheduler.Register(log.system("B"))
	c := scheduler.Register(log.system("C"))
	d := scheduler.Register(log.system("D"))
	scheduler.AddDependency(a, b)
	scheduler.AddDependency(b, a)
	scheduler.AddDependency(c, a)

	plan := scheduler.BuildPlan()
	assert.Equal(t, []ecs.Stage{{d}}, plan.Stages)
	assert.Equal(t, []ecs.SystemID{a, b, c}, plan.Starved)
	assert.Equal(t, plan.Starved, scheduler.Starved())

	scheduler.Execute([]ecs.Entity{1})
	scheduler.Execute([]ecs.Entity{1})
	assert.Equal(t, []string{"D", "D"}, log.executed())

	err := scheduler.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ecs.ErrDependencyCycle))

	var cycle *ecs.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []ecs.SystemID{a, b}, cycle.OnCycle)
	assert.Equal(t, []ecs.SystemID{c}, cycle.Blocked)

	// Logged once because the plan did not change between ticks.
	assert.Equal(t, 1, logs.FilterMessage("systems starved by dependency cycle").Len())

	stats := scheduler.GetStats()
	assert.Equal(t, []ecs.SystemID{a, b, c}, stats.Starved)
	assert.Equal(t, -1, stats.Systems[0].Stage)
}

func TestSchedulerValidateAcyclic(t *testing.T) {
	scheduler := ecs.NewScheduler()
	log := &runLog{}
	a := scheduler.Register(log.system("A"))
	b := scheduler.Register(log.system("B"))
	scheduler.AddDependency(b, a)

	assert.NoError(t, scheduler.Validate())
	assert.Empty(t, scheduler.Starved())
}

func TestSchedulerDisabledSystems(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := &runLog{}
	scheduler := ecs.NewScheduler()

	on := scheduler.Register(log.system("on"))
	off := log.system("off", ecs.WithLogger(zap.New(core)))
	offID := scheduler.Register(off)
	after := scheduler.Register(log.system("after"))
	scheduler.AddDependency(after, offID)

	off.Disable()
	scheduler.Execute([]ecs.Entity{1})

	assert.Equal(t, []string{"on", "after"}, log.executed())
	assert.Equal(t, 0, logs.Len(), "scheduler skips disabled systems without calling them")

	stats := scheduler.GetStats()
	byID := map[ecs.SystemID]ecs.SystemStats{}
	for _, s := range stats.Systems {
		byID[s.ID] = s
	}
	assert.Equal(t, int64(1), byID[on].ExecutionCount)
	assert.Equal(t, int64(0), byID[offID].ExecutionCount)
	assert.False(t, byID[offID].Enabled)

	off.Enable()
	scheduler.Execute([]ecs.Entity{1})
	assert.Equal(t, []string{"on", "after", "on", "off", "after"}, log.executed())
}

func TestSchedulerStampsExecutingID(t *testing.T) {
	store := ecs.NewStore()
	pos := newPosition(0, 0)
	ecs.Add(store, 1, pos)
	ecs.Add(store, 1, newVelocity(1, 0))

	at := time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC)
	sys := newMovementSystem(store, ecs.WithSystemOptions(ecs.WithClock(fixedClock(at))))

	scheduler := ecs.NewScheduler()
	first := scheduler.Register(sys)
	second := scheduler.Register(sys)
	require.NotEqual(t, first, second)
	assert.Equal(t, first, sys.ID())

	scheduler.Once(store)

	assert.Equal(t, float32(2), pos.X, "registered twice, runs twice")
	assert.Equal(t, second, pos.LastUpdatedBy)
	assert.Equal(t, at, pos.LastUpdatedAt)

	scheduler.AddDependency(first, second)
	scheduler.Once(store)
	assert.Equal(t, first, pos.LastUpdatedBy)
}

// gatedSystem only passes entities through while open.
type gatedSystem struct {
	*ecs.SystemBase
	open  bool
	calls int
}

func (g *gatedSystem) Update(entities []ecs.Entity) {
	g.calls++
	if !g.open {
		entities = entities[:0]
	}
	g.SystemBase.Update(entities)
}

func TestSchedulerCallsUpdateOverride(t *testing.T) {
	store := ecs.NewStore()
	pos := newPosition(0, 0)
	ecs.Add(store, 1, pos)

	var seen [][]ecs.Entity
	g := &gatedSystem{}
	g.SystemBase = ecs.NewSystemBase("gated", ecs.UpdaterFunc(func(entities []ecs.Entity) ecs.ChangeSet {
		seen = append(seen, entities)
		return ecs.NewChangeSet(pos)
	}))

	scheduler := ecs.NewScheduler()
	scheduler.Register(ecs.NewSystemBase("first", ecs.UpdaterFunc(func([]ecs.Entity) ecs.ChangeSet { return nil })))
	id := scheduler.Register(g)

	scheduler.Execute([]ecs.Entity{1, 2, 3})
	assert.Equal(t, 1, g.calls)
	assert.Empty(t, seen, "closed gate hides every entity")

	g.open = true
	scheduler.Execute([]ecs.Entity{1, 2, 3})
	assert.Equal(t, 2, g.calls)
	assert.Equal(t, [][]ecs.Entity{{1, 2, 3}}, seen)
	assert.Equal(t, id, pos.LastUpdatedBy)

	t.Run("concurrent stages", func(t *testing.T) {
		c := &gatedSystem{SystemBase: g.SystemBase, open: true}
		scheduler := ecs.NewScheduler(ecs.WithConcurrentStages())
		scheduler.Register(c)
		scheduler.Execute([]ecs.Entity{1})
		assert.Equal(t, 1, c.calls)
	})
}

func TestSchedulerRegisterNil(t *testing.T) {
	scheduler := ecs.NewScheduler()
	assert.Equal(t, ecs.NoSystem, scheduler.Register(nil))
	assert.Empty(t, scheduler.Systems())
}

func TestSchedulerSharedAllocator(t *testing.T) {
	ids := ecs.NewSystemAllocator()
	s1 := ecs.NewScheduler(ecs.WithSystemAllocator(ids))
	s2 := ecs.NewScheduler(ecs.WithSystemAllocator(ids))
	log := &runLog{}

	a := s1.Register(log.system("a"))
	b := s2.Register(log.system("b"))
	assert.NotEqual(t, a, b)

	sys, ok := s1.System(a)
	require.True(t, ok)
	assert.Equal(t, "a", sys.Name())

	_, ok = s1.System(b)
	assert.False(t, ok)
}

func TestSchedulerStats(t *testing.T) {
	log := &runLog{}
	scheduler := ecs.NewScheduler()

	a := scheduler.Register(log.system("A"))
	b := scheduler.Register(log.system("B"))
	scheduler.AddDependency(b, a)

	for i := 0; i < 3; i++ {
		scheduler.Execute([]ecs.Entity{1})
	}

	stats := scheduler.GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, int64(6), stats.TotalExecutions)
	assert.Equal(t, int64(3), stats.Ticks)
	assert.Equal(t, 2, stats.Stages)
	assert.Equal(t, scheduler.Plan().Fingerprint(), stats.Fingerprint)

	require.Len(t, stats.Systems, 2)
	assert.Equal(t, "A", stats.Systems[0].Name)
	assert.Equal(t, 0, stats.Systems[0].Stage)
	assert.Equal(t, 1, stats.Systems[1].Stage)
	for _, s := range stats.Systems {
		assert.Equal(t, int64(3), s.ExecutionCount)
		assert.LessOrEqual(t, s.MinDuration, s.MaxDuration)
		assert.LessOrEqual(t, s.MinDuration, s.AvgDuration)
		assert.LessOrEqual(t, s.AvgDuration, s.MaxDuration)
	}
}

func TestSchedulerRun(t *testing.T) {
	store := ecs.NewStore()
	ecs.Add(store, 1, newHealth(1, 1))

	log := &runLog{}
	scheduler := ecs.NewScheduler()
	scheduler.Register(log.system("tick"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	scheduler.Run(ctx, 5*time.Millisecond, store)

	if n := len(log.executed()); n == 0 {
		t.Error("expected the system to run at least once")
	}
	assert.Equal(t, int64(len(log.executed())), scheduler.GetStats().Ticks)
}

func TestSchedulerConcurrentStages(t *testing.T) {
	store := ecs.NewStore()
	for e := ecs.Entity(1); e <= 100; e++ {
		ecs.Add(store, e, newPosition(0, 0))
		ecs.Add(store, e, newVelocity(1, 1))
		ecs.Add(store, e, newHealth(100, 100))
	}

	movement := newMovementSystem(store)
	decay := ecs.NewGenericSystem[struct{ *Health }]("decay", store, ecs.BehaviorFuncs[struct{ *Health }]{
		ApplyFunc: func(e ecs.Entity, c struct{ *Health }) ecs.ChangeSet {
			c.Health.Current--
			return ecs.NewChangeSet(c.Health)
		},
	})
	log := &runLog{}
	plain := log.system("plain")

	scheduler := ecs.NewScheduler(ecs.WithConcurrentStages())
	scheduler.Register(movement)
	scheduler.Register(decay)
	scheduler.Register(plain)

	for i := 0; i < 5; i++ {
		scheduler.Once(store)
	}

	for e, pos := range ecs.All[Position](store) {
		assert.Equal(t, float32(5), pos.X, "entity %d", e)
	}
	for _, h := range ecs.All[Health](store) {
		assert.Equal(t, 95, h.Current)
	}
	assert.Len(t, log.executed(), 5)
}

func TestSchedulerOnceFlushesCommands(t *testing.T) {
	store := ecs.NewStore()
	ecs.Add(store, 1, newHealth(0, 10))
	ecs.Add(store, 2, newHealth(5, 10))

	scheduler := ecs.NewScheduler()
	reaper := ecs.NewGenericSystem[struct{ *Health }]("reaper", store, ecs.BehaviorFuncs[struct{ *Health }]{
		ApplyFunc: func(e ecs.Entity, c struct{ *Health }) ecs.ChangeSet {
			if c.Health.Current <= 0 {
				scheduler.Commands().Remove(e, ecs.TypeOf[Health]())
				scheduler.Commands().Add(e, &Name{Record: ecs.NewRecord(), Value: "dead"})
			}
			return nil
		},
	})
	scheduler.Register(reaper)

	scheduler.Once(store)

	assert.False(t, ecs.Has[Health](store, 1))
	assert.Equal(t, "dead", ecs.Get[Name](store, 1).Value)
	assert.True(t, ecs.Has[Health](store, 2))
	assert.Equal(t, 0, scheduler.Commands().Len())
}
