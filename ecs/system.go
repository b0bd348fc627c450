package ecs

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// System is a named, enable/disable-able update unit. It receives the full
// entity list each tick and is responsible for filtering it.
type System interface {
	Name() string
	Enabled() bool
	Enable()
	Disable()
	Update(entities []Entity)
	UpdateIf(entities []Entity, predicate func(Entity) bool)
}

// Updater is the concrete behaviour behind a SystemBase: it updates the given
// entities and returns the components it actually changed.
type Updater interface {
	UpdateComponents(entities []Entity) ChangeSet
}

// UpdaterFunc adapts a function to the Updater interface.
type UpdaterFunc func(entities []Entity) ChangeSet

// UpdateComponents calls f.
func (f UpdaterFunc) UpdateComponents(entities []Entity) ChangeSet {
	return f(entities)
}

// State is the enabled/disabled state of a system.
type State uint8

const (
	Enabled State = iota
	Disabled
)

func (s State) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// RunStats describes the most recent update of a system.
type RunStats struct {
	Candidates int
	Eligible   int
	Retrieved  int
	Applied    int
	Changed    int
	At         time.Time
}

type systemConfig struct {
	logger *zap.Logger
	clock  func() time.Time
	state  State
}

// SystemOption configures a system at construction time.
type SystemOption func(*systemConfig)

// WithLogger sets the logger used for diagnostics. Defaults to zap.L().
func WithLogger(logger *zap.Logger) SystemOption {
	return func(c *systemConfig) {
		c.logger = logger
	}
}

// WithClock overrides the time source used to stamp updated components.
func WithClock(clock func() time.Time) SystemOption {
	return func(c *systemConfig) {
		c.clock = clock
	}
}

// WithInitialState sets the state the system starts in. Defaults to Enabled.
func WithInitialState(state State) SystemOption {
	return func(c *systemConfig) {
		c.state = state
	}
}

// SystemBase implements the System contract around an Updater: the state
// machine, empty-input short cuts and post-update timestamp stamping.
// Concrete systems embed it.
type SystemBase struct {
	name    string
	updater Updater
	logger  *zap.Logger
	clock   func() time.Time

	disabled  atomic.Bool
	id        atomic.Uint64
	executing atomic.Uint64

	mu      sync.Mutex
	lastRun RunStats
}

// NewSystemBase creates a system named name that delegates to updater.
func NewSystemBase(name string, updater Updater, opts ...SystemOption) *SystemBase {
	if updater == nil {
		panic("system " + name + " requires an updater")
	}

	cfg := systemConfig{clock: time.Now, state: Enabled}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.L()
	}

	b := &SystemBase{
		name:    name,
		updater: updater,
		logger:  cfg.logger.With(zap.String("system", name)),
		clock:   cfg.clock,
	}
	b.disabled.Store(cfg.state == Disabled)
	return b
}

// Name returns the system name.
func (b *SystemBase) Name() string {
	return b.name
}

// ID returns the id of the first registration of this system, or NoSystem.
func (b *SystemBase) ID() SystemID {
	return SystemID(b.id.Load())
}

// State returns the current state.
func (b *SystemBase) State() State {
	if b.disabled.Load() {
		return Disabled
	}
	return Enabled
}

// Enabled reports whether the system is enabled.
func (b *SystemBase) Enabled() bool {
	return !b.disabled.Load()
}

// Enable switches the system on.
func (b *SystemBase) Enable() {
	b.disabled.Store(false)
}

// Disable switches the system off. Updates become no-ops.
func (b *SystemBase) Disable() {
	b.disabled.Store(true)
}

// LastRun returns statistics of the most recent effective update.
func (b *SystemBase) LastRun() RunStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRun
}

// Update runs the system over entities and stamps every changed component
// with one shared timestamp taken right after the update returns. Inside a
// scheduler tick the stamp carries the executing registration id.
func (b *SystemBase) Update(entities []Entity) {
	id := SystemID(b.executing.Load())
	if id == NoSystem {
		id = b.ID()
	}
	b.updateAs(id, entities)
}

// UpdateIf runs Update over the order-preserving subsequence of entities
// that satisfy predicate.
func (b *SystemBase) UpdateIf(entities []Entity, predicate func(Entity) bool) {
	if !b.Enabled() {
		b.logger.Warn("system is not enabled")
		return
	}
	if len(entities) == 0 || predicate == nil {
		return
	}

	filtered := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if predicate(e) {
			filtered = append(filtered, e)
		}
	}
	b.Update(filtered)
}

// bindID records the first id the system was registered under.
func (b *SystemBase) bindID(id SystemID) {
	b.id.CompareAndSwap(uint64(NoSystem), uint64(id))
}

// runAs calls update with id as the executing registration.
func (b *SystemBase) runAs(id SystemID, update func()) {
	b.executing.Store(uint64(id))
	defer b.executing.Store(uint64(NoSystem))
	update()
}

func (b *SystemBase) updateAs(id SystemID, entities []Entity) {
	if !b.Enabled() {
		b.logger.Warn("system is not enabled")
		return
	}
	if len(entities) == 0 {
		return
	}

	changed := b.updater.UpdateComponents(entities)
	now := b.clock()
	for c := range changed {
		if isNilComponent(c) {
			continue
		}
		c.Base().MarkUpdateAt(now, id)
	}

	b.mu.Lock()
	if rs, ok := b.updater.(runStatser); ok {
		b.lastRun = rs.runStats()
	} else {
		b.lastRun = RunStats{Candidates: len(entities)}
	}
	b.lastRun.Changed = changed.Len()
	b.lastRun.At = now
	b.mu.Unlock()
}

// runStatser is implemented by updaters that track finer-grained counters.
type runStatser interface {
	runStats() RunStats
}

// boundSystem is implemented by systems embedding SystemBase; the scheduler
// uses it to record ids and stamp updates with the executing registration.
// The update itself always goes through System.Update so embedders can
// override it.
type boundSystem interface {
	bindID(SystemID)
	runAs(SystemID, func())
}

var _ System = (*SystemBase)(nil)
var _ boundSystem = (*SystemBase)(nil)
