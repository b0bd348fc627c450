package sim_test

import (
	"context"
	"testing"

	"github.com/plus3/simecs/ecs"
	"github.com/plus3/simecs/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSimulatorDefault(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, s.Wanderers, 1)

	plan := s.Scheduler.BuildPlan()
	assert.Equal(t, []ecs.Stage{{s.Systems.Diagnostic}, {s.Systems.WorldTime}, {s.Systems.Movement}}, plan.Stages)
	assert.NoError(t, s.Scheduler.Validate())

	assert.Equal(t, 3, s.Run(context.Background(), 3))

	w := ecs.Get[sim.Wanderer](s.Store, s.Wanderers[0])
	assert.InDelta(t, 3.0, w.X, 1e-9)
	assert.Equal(t, 3.0, s.Clock().TotalTime)
	assert.Equal(t, s.Systems.Movement, w.LastUpdatedBy)
	assert.Equal(t, s.Systems.WorldTime, s.Clock().LastUpdatedBy)
	assert.Equal(t, ecs.NoSystem, s.Bounds().LastUpdatedBy)
}

func TestSimulatorWrapsAroundWorld(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Wanderers = []sim.WandererConfig{{X: 9.5, Speed: 1, TimeScale: 1, Running: true}}

	s, err := sim.New(cfg)
	require.NoError(t, err)

	s.Tick()

	w := ecs.Get[sim.Wanderer](s.Store, s.Wanderers[0])
	assert.Equal(t, -10.0, w.X)
	assert.Equal(t, 0.0, w.Y)
}

func TestSimulatorDiagnosticsSeePreviousTick(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := sim.New(sim.DefaultConfig(), sim.WithLogger(zap.New(core)))
	require.NoError(t, err)

	s.Run(context.Background(), 2)

	entries := logs.FilterMessage("wanderer").All()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].ContextMap()["wanderer"], "x=0,")
	assert.Contains(t, entries[1].ContextMap()["wanderer"], "x=1,")
}

func TestSimulatorConcurrent(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Concurrent = true
	cfg.Wanderers = nil
	for i := 0; i < 20; i++ {
		cfg.Wanderers = append(cfg.Wanderers, sim.WandererConfig{Speed: 0.5, TimeScale: 1, Running: true})
	}

	s, err := sim.New(cfg)
	require.NoError(t, err)
	s.Run(context.Background(), 4)

	for _, e := range s.Wanderers {
		assert.InDelta(t, 2.0, ecs.Get[sim.Wanderer](s.Store, e).X, 1e-9)
	}
}

func TestSimulatorRunCancelled(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 0, s.Run(ctx, 5))
	assert.Equal(t, 0.0, s.Clock().TotalTime)
}

func TestSimulatorRejectsInvalidConfig(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.World.MinX = 20

	_, err := sim.New(cfg)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
