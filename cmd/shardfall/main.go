package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"github.com/shardfall/server/internal/data"
	"github.com/shardfall/server/internal/persist"
	"github.com/shardfall/server/internal/presentation"
	"github.com/shardfall/server/internal/scripting"
	"github.com/shardfall/server/internal/system"
	"github.com/shardfall/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              Shardfall  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mscenario:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[36m▸\033[0m %s\n", msg)
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Game.StartTime = time.Now().Unix()

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Name)

	if stop := startProfile(cfg.Debug); stop != nil {
		defer stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Static data and world
	printSection("data")
	levels, err := data.LoadLevelTable(cfg.Data.Levels)
	if err != nil {
		return fmt.Errorf("load level table: %w", err)
	}
	printStat("levels", levels.Count())

	ecsWorld := ecs.NewWorld(cfg.World.InitialCapacity)
	state := world.NewState()
	printStat("bootstrap entities", state.Bootstrap(ecsWorld, levels))

	deps := &system.Deps{
		Log:     log,
		Events:  event.NewRegistry(),
		Bus:     event.NewBus(),
		Combat:  cfg.Combat,
		Levels:  levels,
		State:   state,
		Anchors: system.NewUIAnchors(),
	}

	// 4. Scripting
	var engine *scripting.Engine
	if cfg.Scripting.Enabled {
		engine, err = scripting.NewEngine(cfg.Scripting.Dir, state, levels, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		if err := engine.Setup(ecsWorld); err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		deps.Script = engine
		printStat("entities after setup", ecsWorld.Len())
	}
	fmt.Println()

	// 5. Persistence
	var writer *persist.Writer
	if cfg.Database.DSN != "" {
		printSection("database")
		db, repo, err := openProgress(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer db.Close()
		restored, err := state.RestoreBestTimes(ctx, ecsWorld, repo)
		if err != nil {
			return err
		}
		printStat("best times restored", restored)
		writer = persist.NewWriter(repo, cfg.Database, log)
		deps.Progress = writer
		printOK(fmt.Sprintf("progress session %s", writer.Session()))
		fmt.Println()
	}

	// 6. Presentation
	logPresenter := presentation.NewLogPresenter(log)
	presentation.Attach(deps.Bus, logPresenter)
	var feed *presentation.Feed
	if cfg.Feed.Enabled {
		feed = presentation.NewFeed(cfg.Feed, log)
		if err := feed.Listen(); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
		presentation.Attach(deps.Bus, feed)
	}

	// 7. Systems
	sched := job.NewScheduler(cfg.Scheduler.Workers, cfg.Scheduler.BatchSize, log)
	runner := coresys.NewRunner(ecsWorld, sched, log)
	guard, err := system.Install(runner, deps)
	if err != nil {
		return fmt.Errorf("install systems: %w", err)
	}

	if writer != nil {
		go writer.Run(ctx)
	}

	printSection("ready")
	printReady(fmt.Sprintf("%d systems, %d workers", len(runner.Order()), sched.Workers()))
	if feed != nil {
		printReady(fmt.Sprintf("feed ws://%s%s", feed.Addr(), cfg.Feed.Path))
	}
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Game.TickRate))
	fmt.Println()

	// 8. Tick loop
	loopErr := loop(ctx, cfg.Game, runner, log)

	// 9. Shutdown
	stop()
	if writer != nil {
		writer.Wait()
		log.Info("progress writer stopped",
			zap.Int64("written", writer.Written()),
			zap.Int64("dropped", writer.Dropped()),
			zap.Int64("failed", writer.Failed()))
	}
	if feed != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := feed.Shutdown(sctx); err != nil {
			log.Warn("feed shutdown", zap.Error(err))
		}
		cancel()
	}
	fields := []zap.Field{
		zap.Uint64("frames", runner.Frame()),
		zap.Int64("leaked_events", guard.Leaked()),
		zap.Int64("job_failures", sched.Failures()),
		zap.Int("entities", ecsWorld.Len()),
		zap.Any("presented", logPresenter.Counts()),
	}
	if engine != nil {
		fields = append(fields, zap.Int("script_events", engine.Emitted()))
	}
	log.Info("stopped", fields...)
	return loopErr
}

// loop drives the runner at the configured rate until ctx ends or
// max_ticks frames have run.
func loop(ctx context.Context, cfg config.GameConfig, runner *coresys.Runner, log *zap.Logger) error {
	const statsInterval = 200

	ticker := time.NewTicker(cfg.TickRate)
	defer ticker.Stop()

	var (
		total   ecs.PlaybackStats
		slowest time.Duration
	)
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received", zap.Uint64("frame", runner.Frame()))
			return nil
		case <-ticker.C:
			stats, err := runner.Tick(cfg.TickRate)
			if err != nil {
				return fmt.Errorf("tick %d: %w", stats.Frame, err)
			}
			total.Merge(stats.Total())
			if stats.Elapsed > slowest {
				slowest = stats.Elapsed
			}
			if stats.Elapsed > cfg.TickRate {
				log.Warn("tick overran", zap.Uint64("frame", stats.Frame), zap.Duration("elapsed", stats.Elapsed))
			}
			if runner.Frame()%statsInterval == 0 {
				log.Info("tick stats",
					zap.Uint64("frame", runner.Frame()),
					zap.Int("created", total.Created),
					zap.Int("destroyed", total.Destroyed),
					zap.Int("skipped", total.Skipped),
					zap.Duration("slowest", slowest))
				total, slowest = ecs.PlaybackStats{}, 0
			}
			if cfg.MaxTicks > 0 && runner.Frame() >= cfg.MaxTicks {
				log.Info("max ticks reached", zap.Uint64("frame", runner.Frame()))
				return nil
			}
		}
	}
}

// openProgress connects, migrates and returns the repository over the
// progress tables.
func openProgress(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*persist.DB, *persist.ProgressRepo, error) {
	dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(dctx, db.Pool, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("migrations at version %d", version))

	return db, persist.NewProgressRepo(db), nil
}

// startProfile starts pkg/profile per the debug section and returns its
// stop function, or nil when profiling is off.
func startProfile(cfg config.DebugConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	return profile.Start(mode, profile.ProfilePath(dir), profile.NoShutdownHook).Stop
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
