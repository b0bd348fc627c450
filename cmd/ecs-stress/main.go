package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/simecs/ecs"
	"github.com/plus3/simecs/internal/logging"
	"go.uber.org/zap"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	systemCount := flag.Int("systems", 50, "The number of flow systems to register.")
	maxComponents := flag.Int("components", 5, "The maximum number of component kinds per entity.")
	density := flag.Float64("dependency-density", 0.05, "Probability that a system depends on each earlier one.")
	churn := flag.Float64("churn", 0.001, "Fraction of entities whose components change each tick.")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed.")
	concurrent := flag.Bool("concurrent", false, "Run systems of a stage concurrently.")
	profileMode := flag.String("profile", "", "Write a profile: cpu, mem, block, mutex or trace.")
	profileDir := flag.String("profile-path", ".", "Directory for profile output.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	logLevel := flag.String("log-level", "info", "Log level.")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if stop := startProfile(*profileMode, *profileDir); stop != nil {
		defer stop()
	}

	logger.Info("starting ECS stress test", zap.Uint64("seed", *seed))
	rng := rand.New(rand.NewPCG(*seed, *seed>>1|1))

	// 1. Setup Store and Scheduler
	store := ecs.NewStore()
	entities := ecs.NewEntityAllocator()

	var schedOpts []ecs.SchedulerOption
	if *concurrent {
		schedOpts = append(schedOpts, ecs.WithConcurrentStages())
	}
	scheduler := ecs.NewScheduler(schedOpts...)
	registerSystems(scheduler, store, rng, *systemCount, *density, *churn)

	if err := scheduler.Validate(); err != nil {
		logger.Fatal("invalid system graph", zap.Error(err))
	}

	// 2. Populate Store with initial entities
	logger.Info("populating store", zap.Int("entities", *entityCount))
	for range *entityCount {
		spawnEntity(store, rng, entities.Allocate(), *maxComponents)
	}

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Components:     len(kinds),
		Systems:        *systemCount,
		Seed:           *seed,
		Concurrent:     *concurrent,
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", zap.Duration("duration", *duration))
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			updateStart := time.Now()
			scheduler.Once(store)
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	storeStats := store.Stats()
	report.FinalEntities = storeStats.EntityCount
	report.FinalComponents = storeStats.ComponentCount
	report.AddSchedulerStats(scheduler.GetStats(), 5)

	logger.Info("simulation finished", zap.Int64("updates", totalUpdates))

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// startProfile starts the profiler named by mode and returns its stop
// function, or nil when mode is empty.
func startProfile(mode, dir string) func() {
	var kind func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfile
	case "block":
		kind = profile.BlockProfile
	case "mutex":
		kind = profile.MutexProfile
	case "trace":
		kind = profile.TraceProfile
	default:
		zap.L().Fatal("unknown profile mode", zap.String("mode", mode))
	}
	return profile.Start(kind, profile.ProfilePath(dir), profile.NoShutdownHook).Stop
}
