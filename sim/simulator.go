package sim

import (
	"context"

	"github.com/plus3/simecs/ecs"
	"go.uber.org/zap"
)

// Simulator owns a Store holding one world entity and its wanderers, and a
// Scheduler running the diagnostic, world time and movement systems in that
// order.
type Simulator struct {
	Store     *ecs.Store
	Scheduler *ecs.Scheduler
	World     ecs.Entity
	Wanderers []ecs.Entity

	Systems struct {
		Diagnostic ecs.SystemID
		WorldTime  ecs.SystemID
		Movement   ecs.SystemID
	}

	cfg      Config
	entities *ecs.EntityAllocator
	logger   *zap.Logger
}

type options struct {
	logger    *zap.Logger
	scheduler []ecs.SchedulerOption
}

// Option configures a Simulator.
type Option func(*options)

// WithLogger sets the logger for the simulator and its systems.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSchedulerOptions forwards options to the Scheduler.
func WithSchedulerOptions(opts ...ecs.SchedulerOption) Option {
	return func(o *options) {
		o.scheduler = append(o.scheduler, opts...)
	}
}

// New validates cfg and builds the world it describes.
func New(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.L()
	}

	schedOpts := append([]ecs.SchedulerOption{ecs.WithSchedulerLogger(o.logger)}, o.scheduler...)
	if cfg.Concurrent {
		schedOpts = append(schedOpts, ecs.WithConcurrentStages())
	}

	s := &Simulator{
		Store:     ecs.NewStore(),
		Scheduler: ecs.NewScheduler(schedOpts...),
		cfg:       cfg,
		entities:  ecs.NewEntityAllocator(),
		logger:    o.logger,
	}

	sysOpts := ecs.WithSystemOptions(ecs.WithLogger(o.logger))
	s.Systems.Diagnostic = s.Scheduler.Register(NewDiagnosticSystem(s.Store, o.logger, sysOpts))
	s.Systems.WorldTime = s.Scheduler.Register(NewWorldTimeSystem(s.Store, sysOpts))
	s.Systems.Movement = s.Scheduler.Register(NewMovementSystem(s.Store, sysOpts))
	s.Scheduler.AddDependency(s.Systems.WorldTime, s.Systems.Diagnostic)
	s.Scheduler.AddDependency(s.Systems.Movement, s.Systems.WorldTime)

	s.World = s.entities.Allocate()
	clock := NewWorldTime(cfg.World.Step, cfg.World.TimeScale)
	clock.Running = cfg.World.Running
	ecs.Add(s.Store, s.World, clock)
	ecs.Add(s.Store, s.World, NewWorldSpace2D(cfg.World.MinX, cfg.World.MaxX, cfg.World.MinY, cfg.World.MaxY))

	for _, wc := range cfg.Wanderers {
		s.SpawnWanderer(wc)
	}

	s.logger.Debug("simulator created",
		zap.Uint64("world", uint64(s.World)),
		zap.Int("wanderers", len(s.Wanderers)))
	return s, nil
}

// SpawnWanderer adds a wandering entity to the world.
func (s *Simulator) SpawnWanderer(wc WandererConfig) ecs.Entity {
	e := s.entities.Allocate()

	timed := NewTimedEntity(s.World, wc.TimeScale)
	timed.Running = wc.Running
	ecs.Add(s.Store, e, timed)
	ecs.Add(s.Store, e, NewWanderer(s.World, wc.X, wc.Y, wc.Speed, wc.Direction))

	s.Wanderers = append(s.Wanderers, e)
	return e
}

// Entities returns the allocator the simulator spawns entities from, so
// callers can add their own entities to Store.
func (s *Simulator) Entities() *ecs.EntityAllocator {
	return s.entities
}

// Config returns the configuration the simulator was built from.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Clock returns the WorldTime of the world entity.
func (s *Simulator) Clock() *WorldTime {
	return ecs.Get[WorldTime](s.Store, s.World)
}

// Bounds returns the WorldSpace2D of the world entity.
func (s *Simulator) Bounds() *WorldSpace2D {
	return ecs.Get[WorldSpace2D](s.Store, s.World)
}

// Tick runs every system once over all entities.
func (s *Simulator) Tick() {
	s.Scheduler.Once(s.Store)
}

// Run executes n ticks, stopping early when ctx is cancelled. It returns the
// number of ticks executed.
func (s *Simulator) Run(ctx context.Context, n int) int {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return i
		}
		s.Tick()
	}
	return n
}

// RunForever ticks on the configured interval until ctx is cancelled.
func (s *Simulator) RunForever(ctx context.Context) {
	s.Scheduler.Run(ctx, s.cfg.Interval, s.Store)
}
