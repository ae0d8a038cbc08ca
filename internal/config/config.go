package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "SHARDFALL_CONFIG"

const DefaultPath = "config/shardfall.toml"

type Config struct {
	Game      GameConfig      `toml:"game"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	World     WorldConfig     `toml:"world"`
	Combat    CombatConfig    `toml:"combat"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Database  DatabaseConfig  `toml:"database"`
	Feed      FeedConfig      `toml:"feed"`
	Logging   LoggingConfig   `toml:"logging"`
	Debug     DebugConfig     `toml:"debug"`
}

type GameConfig struct {
	Name      string        `toml:"name"`
	TickRate  time.Duration `toml:"tick_rate"`
	MaxTicks  uint64        `toml:"max_ticks"` // 0 = run until signalled
	StartTime int64         // set at boot, not from config
}

type SchedulerConfig struct {
	Workers   int `toml:"workers"`    // 0 = GOMAXPROCS
	BatchSize int `toml:"batch_size"` // entities per partition
}

type WorldConfig struct {
	InitialCapacity int `toml:"initial_capacity"`
}

type CombatConfig struct {
	MaxResistance      float32 `toml:"max_resistance"` // fraction of damage defense may absorb (0.0-0.75)
	CriticalMultiplier float32 `toml:"critical_multiplier"`
}

type DataConfig struct {
	Levels string `toml:"levels"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	FlushInterval   time.Duration `toml:"flush_interval"`
	QueueSize       int           `toml:"queue_size"`
}

type FeedConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Path        string `toml:"path"`
	SendBuffer  int    `toml:"send_buffer"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DebugConfig struct {
	Profile string `toml:"profile"` // "", "cpu" or "mem"
	Dir     string `toml:"dir"`
}

// Path returns the config file to load.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Game.StartTime = time.Now().Unix()
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Scheduler.Workers <= 0 {
		cfg.Scheduler.Workers = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Game.TickRate <= 0 {
		return fmt.Errorf("game.tick_rate must be positive, got %s", c.Game.TickRate)
	}
	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler.batch_size must be positive, got %d", c.Scheduler.BatchSize)
	}
	if c.Combat.MaxResistance < 0 || c.Combat.MaxResistance > 0.75 {
		return fmt.Errorf("combat.max_resistance must be within [0, 0.75], got %g", c.Combat.MaxResistance)
	}
	if c.Combat.CriticalMultiplier < 1 {
		return fmt.Errorf("combat.critical_multiplier must be >= 1, got %g", c.Combat.CriticalMultiplier)
	}
	switch c.Debug.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("debug.profile must be cpu, mem or empty, got %q", c.Debug.Profile)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Game: GameConfig{
			Name:     "shardfall",
			TickRate: 50 * time.Millisecond,
		},
		Scheduler: SchedulerConfig{
			BatchSize: 64,
		},
		World: WorldConfig{
			InitialCapacity: 1024,
		},
		Combat: CombatConfig{
			MaxResistance:      0.75,
			CriticalMultiplier: 1.5,
		},
		Data: DataConfig{
			Levels: "data/levels.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    8,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			FlushInterval:   time.Second,
			QueueSize:       256,
		},
		Feed: FeedConfig{
			BindAddress: "127.0.0.1:7070",
			Path:        "/feed",
			SendBuffer:  64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
