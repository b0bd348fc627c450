package sim

import (
	"math"

	"github.com/plus3/simecs/ecs"
	"go.uber.org/zap"
)

// Names of the systems a Simulator registers.
const (
	WorldTimeSystemName  = "world_time"
	MovementSystemName   = "movement"
	DiagnosticSystemName = "diagnostic"
)

// ClockView is the tuple the world time system updates.
type ClockView struct {
	*WorldTime
}

// NewWorldTimeSystem advances every running WorldTime by Step*TimeScale.
func NewWorldTimeSystem(store *ecs.Store, opts ...ecs.GenericOption) *ecs.GenericSystem[ClockView] {
	return ecs.NewGenericSystem[ClockView](WorldTimeSystemName, store, ecs.BehaviorFuncs[ClockView]{
		ApplyFunc: func(_ ecs.Entity, c ClockView) ecs.ChangeSet {
			if !c.Running {
				return nil
			}
			c.DeltaTime = c.Step * c.TimeScale
			c.TotalTime += c.DeltaTime
			return ecs.NewChangeSet(c.WorldTime)
		},
	}, opts...)
}

// WandererView is the tuple the movement system updates.
type WandererView struct {
	*Wanderer
	*TimedEntity
}

type movement struct {
	store *ecs.Store
}

// Eligible requires a Wanderer and a TimedEntity on the entity, and a clock
// and bounds on the world that owns the Wanderer.
func (m movement) Eligible(e ecs.Entity) bool {
	w := ecs.Get[Wanderer](m.store, e)
	if w == nil || !ecs.Has[TimedEntity](m.store, e) {
		return false
	}
	world, ok := w.OwnerEntity()
	return ok && ecs.Has[WorldTime](m.store, world) && ecs.Has[WorldSpace2D](m.store, world)
}

func (m movement) Retrieve(e ecs.Entity) WandererView {
	return WandererView{
		Wanderer:    ecs.Get[Wanderer](m.store, e),
		TimedEntity: ecs.Get[TimedEntity](m.store, e),
	}
}

func (m movement) Apply(_ ecs.Entity, c WandererView) ecs.ChangeSet {
	world, _ := c.Wanderer.OwnerEntity()
	clock := ecs.Get[WorldTime](m.store, world)
	space := ecs.Get[WorldSpace2D](m.store, world)
	if clock == nil || space == nil {
		return nil
	}
	if !c.TimedEntity.Running || !clock.Running {
		return nil
	}

	elapsed := clock.DeltaTime * c.TimedEntity.TimeScale
	if elapsed == 0 {
		return nil
	}

	distance := c.Speed * elapsed
	x := c.X + distance*math.Cos(c.Direction)
	y := c.Y + distance*math.Sin(c.Direction)
	c.X, c.Y = space.Wrap(x, y)

	return ecs.NewChangeSet(c.Wanderer)
}

// NewMovementSystem moves every Wanderer by Speed times the time that passed
// for it this tick, wrapping at the bounds of its world. It reads the
// WorldTime and WorldSpace2D of the owning world, so it must run after the
// world time system.
func NewMovementSystem(store *ecs.Store, opts ...ecs.GenericOption) *ecs.GenericSystem[WandererView] {
	opts = append([]ecs.GenericOption{
		ecs.Touches(ecs.TypeOf[WorldTime](), ecs.TypeOf[WorldSpace2D]()),
	}, opts...)
	return ecs.NewGenericSystem[WandererView](MovementSystemName, store, movement{store: store}, opts...)
}

// DiagnosticView is the tuple the diagnostic system reports.
type DiagnosticView struct {
	*Wanderer
	Timed *TimedEntity `ecs:"optional"`
}

// NewDiagnosticSystem logs the description of every Wanderer. It changes
// nothing.
func NewDiagnosticSystem(store *ecs.Store, logger *zap.Logger, opts ...ecs.GenericOption) *ecs.GenericSystem[DiagnosticView] {
	if logger == nil {
		logger = zap.L()
	}
	return ecs.NewGenericSystem[DiagnosticView](DiagnosticSystemName, store, ecs.BehaviorFuncs[DiagnosticView]{
		ApplyFunc: func(e ecs.Entity, c DiagnosticView) ecs.ChangeSet {
			fields := []zap.Field{
				zap.Uint64("entity", uint64(e)),
				zap.String("wanderer", c.Wanderer.Describe()),
			}
			if c.Timed != nil {
				fields = append(fields, zap.String("timed", c.Timed.Describe()))
			}
			logger.Info("wanderer", fields...)
			return nil
		},
	}, opts...)
}
