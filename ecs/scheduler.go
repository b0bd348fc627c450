package ecs

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           int64
	Stages          int
	Fingerprint     uint64
	Starved         []SystemID
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single registration.
type SystemStats struct {
	ID             SystemID
	Name           string
	Enabled        bool
	Stage          int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type schedulerConfig struct {
	logger     *zap.Logger
	ids        *SystemAllocator
	concurrent bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerConfig)

// WithSchedulerLogger sets the scheduler logger. Defaults to zap.L().
func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		c.logger = logger
	}
}

// WithSystemAllocator shares a system id space between schedulers.
func WithSystemAllocator(ids *SystemAllocator) SchedulerOption {
	return func(c *schedulerConfig) {
		c.ids = ids
	}
}

// WithConcurrentStages runs the systems of a stage concurrently, grouped in
// waves of disjoint component footprints.
func WithConcurrentStages() SchedulerOption {
	return func(c *schedulerConfig) {
		c.concurrent = true
	}
}

// Scheduler holds registered systems and their dependency graph and runs
// them stage by stage. The plan is rebuilt on every Execute because
// dependencies may change between ticks.
//
// Systems on a dependency cycle never reach a stage and silently never run;
// Validate reports them.
type Scheduler struct {
	mu       sync.RWMutex
	ids      *SystemAllocator
	systems  map[SystemID]System
	order    []SystemID
	deps     map[SystemID][]SystemID
	executor stageExecutor
	logger   *zap.Logger
	commands *Commands

	statsMu     sync.Mutex
	systemStats map[SystemID]*systemStatsInternal
	ticks       int64
	lastPlan    Plan
	fingerprint uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := schedulerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.L()
	}
	if cfg.ids == nil {
		cfg.ids = NewSystemAllocator()
	}

	var executor stageExecutor = sequentialExecutor{}
	if cfg.concurrent {
		executor = &concurrentExecutor{footprints: newFootprints()}
	}

	return &Scheduler{
		ids:         cfg.ids,
		systems:     make(map[SystemID]System),
		deps:        make(map[SystemID][]SystemID),
		executor:    executor,
		logger:      cfg.logger,
		commands:    newCommands(),
		systemStats: make(map[SystemID]*systemStatsInternal),
	}
}

// Register stores system under a freshly allocated id. Registering the same
// system twice yields two ids and the system runs once per id each tick.
func (s *Scheduler) Register(system System) SystemID {
	if system == nil {
		return NoSystem
	}
	id := s.ids.Allocate()

	s.mu.Lock()
	s.systems[id] = system
	s.order = append(s.order, id)
	s.mu.Unlock()

	if b, ok := system.(boundSystem); ok {
		b.bindID(id)
	}

	s.statsMu.Lock()
	s.systemStats[id] = &systemStatsInternal{minDuration: time.Duration(1<<63 - 1)}
	s.statsMu.Unlock()

	s.logger.Debug("system registered", zap.String("system", system.Name()), zap.Uint64("id", uint64(id)))
	return id
}

// AddDependency declares that system must run in a stage strictly after the
// stage of dependency. Repeated declarations are ignored. Cycles are not
// rejected here; they starve the systems involved.
func (s *Scheduler) AddDependency(system, dependency SystemID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.deps[system], dependency) {
		return
	}
	s.deps[system] = append(s.deps[system], dependency)
}

// Dependencies returns the declared dependencies of system.
func (s *Scheduler) Dependencies(system SystemID) []SystemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.deps[system])
}

// System returns the system registered under id.
func (s *Scheduler) System(id SystemID) (System, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys, ok := s.systems[id]
	return sys, ok
}

// Systems returns registered ids in registration order.
func (s *Scheduler) Systems() []SystemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Commands returns the buffer flushed after each tick run through Once or Run.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// BuildPlan computes the execution stages from the current dependency graph.
// Every registered system and every id named as a dependency takes part.
func (s *Scheduler) BuildPlan() Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildPlan(s.order, s.deps)
}

// Validate returns a *CycleError when a dependency cycle keeps systems out of
// the plan, and nil otherwise.
func (s *Scheduler) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan := buildPlan(s.order, s.deps)
	if len(plan.Starved) == 0 {
		return nil
	}
	return newCycleError(plan.Starved, s.deps)
}

// Execute runs one tick: it rebuilds the plan and updates every enabled,
// known system stage by stage with the full entity list. A stage starts only
// after the previous one has completed.
func (s *Scheduler) Execute(entities []Entity) {
	plan := s.BuildPlan()
	s.observePlan(plan)

	for _, stage := range plan.Stages {
		systems := s.resolve(stage)
		if len(systems) == 0 {
			continue
		}
		s.executor.runStage(systems, func(sys scheduled) {
			s.runSystem(sys, entities)
		})
	}

	s.statsMu.Lock()
	s.ticks++
	s.statsMu.Unlock()
}

// Once executes a tick over every entity of store and flushes Commands.
func (s *Scheduler) Once(store *Store) {
	s.Execute(store.Entities())
	s.commands.Flush(store)
}

// Run executes ticks at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, store *Store) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Once(store)
		}
	}
}

// Plan returns the plan used by the most recent Execute.
func (s *Scheduler) Plan() Plan {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.lastPlan
}

// Starved returns the systems the current dependency graph keeps out of every
// stage.
func (s *Scheduler) Starved() []SystemID {
	return s.BuildPlan().Starved
}

// resolve drops unknown and disabled systems from a stage.
func (s *Scheduler) resolve(stage Stage) []scheduled {
	s.mu.RLock()
	defer s.mu.RUnlock()

	systems := make([]scheduled, 0, len(stage))
	for _, id := range stage {
		sys, ok := s.systems[id]
		if !ok || !sys.Enabled() {
			continue
		}
		systems = append(systems, scheduled{id: id, system: sys})
	}
	return systems
}

func (s *Scheduler) runSystem(sys scheduled, entities []Entity) {
	start := time.Now()
	if b, ok := sys.system.(boundSystem); ok {
		b.runAs(sys.id, func() { sys.system.Update(entities) })
	} else {
		sys.system.Update(entities)
	}
	duration := time.Since(start)

	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	stats, ok := s.systemStats[sys.id]
	if !ok {
		return
	}
	stats.executionCount++
	stats.lastDuration = duration
	stats.totalDuration += duration
	if duration < stats.minDuration {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}
}

// observePlan records plan and logs when its layout changes.
func (s *Scheduler) observePlan(plan Plan) {
	fingerprint := plan.Fingerprint()

	s.statsMu.Lock()
	changed := fingerprint != s.fingerprint || s.ticks == 0
	s.lastPlan = plan
	s.fingerprint = fingerprint
	s.statsMu.Unlock()

	if !changed {
		return
	}

	s.logger.Debug("execution plan rebuilt",
		zap.Int("stages", len(plan.Stages)),
		zap.Int("systems", plan.Len()),
		zap.Uint64("fingerprint", fingerprint))

	if len(plan.Starved) > 0 {
		s.mu.RLock()
		err := newCycleError(plan.Starved, s.deps)
		s.mu.RUnlock()
		s.logger.Error("systems starved by dependency cycle", zap.Error(err))
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	s.mu.RLock()
	order := slices.Clone(s.order)
	systems := make(map[SystemID]System, len(s.systems))
	for id, sys := range s.systems {
		systems[id] = sys
	}
	s.mu.RUnlock()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	stats := &SchedulerStats{
		SystemCount: len(order),
		Ticks:       s.ticks,
		Stages:      len(s.lastPlan.Stages),
		Fingerprint: s.fingerprint,
		Starved:     slices.Clone(s.lastPlan.Starved),
		Systems:     make([]SystemStats, 0, len(order)),
	}

	for _, id := range order {
		internal := s.systemStats[id]
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}
		minDuration := internal.minDuration
		if internal.executionCount == 0 {
			minDuration = 0
		}

		sys := systems[id]
		stats.Systems = append(stats.Systems, SystemStats{
			ID:             id,
			Name:           sys.Name(),
			Enabled:        sys.Enabled(),
			Stage:          s.lastPlan.StageOf(id),
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		})
		stats.TotalExecutions += internal.executionCount
	}

	return stats
}
