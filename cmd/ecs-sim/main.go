// Command ecs-sim runs the wandering-entity world described by a YAML config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/simecs/ecs"
	"github.com/plus3/simecs/internal/logging"
	"github.com/plus3/simecs/sim"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	ui         bool
	cfg        sim.Config
}

// parseFlags loads the config named by -config, or the default one, and
// applies the flags that were set on top of it.
func parseFlags(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("ecs-sim", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "Path to a YAML world config.")
	ticks := fs.Int("ticks", 0, "Number of ticks to run. 0 runs until interrupted.")
	interval := fs.Duration("interval", 0, "Wall-clock time between ticks when running until interrupted.")
	concurrent := fs.Bool("concurrent", false, "Run systems of a stage concurrently.")
	logLevel := fs.String("log-level", "", "Log level.")
	logFormat := fs.String("log-format", "", "Log format: console or json.")
	ui := fs.Bool("ui", false, "Open the inspector window instead of running headless.")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{configPath: *configPath, ui: *ui, cfg: sim.DefaultConfig()}
	if opts.configPath != "" {
		cfg, err := sim.LoadConfig(opts.configPath)
		if err != nil {
			return options{}, err
		}
		opts.cfg = cfg
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ticks":
			opts.cfg.Ticks = *ticks
		case "interval":
			opts.cfg.Interval = *interval
		case "concurrent":
			opts.cfg.Concurrent = *concurrent
		case "log-level":
			opts.cfg.LogLevel = *logLevel
		case "log-format":
			opts.cfg.LogFormat = *logFormat
		}
	})

	return opts, opts.cfg.Validate()
}

func run(ctx context.Context, opts options) error {
	logger, err := logging.New(opts.cfg.LogLevel, opts.cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger = logger.With(zap.String("run", uuid.NewString()))
	zap.ReplaceGlobals(logger)

	s, err := sim.New(opts.cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.Scheduler.Validate(); err != nil {
		logger.Error("system graph has a cycle", zap.Error(err))
	}

	logger.Info("simulation starting",
		zap.String("config", opts.configPath),
		zap.Int("wanderers", len(s.Wanderers)),
		zap.Int("ticks", opts.cfg.Ticks),
		zap.Bool("concurrent", opts.cfg.Concurrent))

	if opts.ui {
		return runUI(s)
	}

	start := time.Now()
	if opts.cfg.Ticks > 0 {
		n := s.Run(ctx, opts.cfg.Ticks)
		logger.Info("simulation finished", zap.Int("ticks", n), zap.Duration("elapsed", time.Since(start)))
	} else {
		s.RunForever(ctx)
		logger.Info("simulation interrupted", zap.Duration("elapsed", time.Since(start)))
	}

	for _, e := range s.Wanderers {
		logger.Info("final state", zap.Uint64("entity", uint64(e)), zap.String("wanderer", ecs.Describe(ecs.Get[sim.Wanderer](s.Store, e))))
	}
	return nil
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
