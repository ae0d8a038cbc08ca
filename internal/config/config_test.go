package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[game]
tick_rate = "20ms"

[combat]
critical_multiplier = 2.0
`))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Game.TickRate)
	assert.Equal(t, float32(2.0), cfg.Combat.CriticalMultiplier)
	assert.Equal(t, float32(0.75), cfg.Combat.MaxResistance)
	assert.Equal(t, 64, cfg.Scheduler.BatchSize)
	assert.Positive(t, cfg.Scheduler.Workers)
	assert.Empty(t, cfg.Database.DSN)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"resistance": "[combat]\nmax_resistance = 0.9\n",
		"batch":      "[scheduler]\nbatch_size = 0\n",
		"profile":    "[debug]\nprofile = \"trace\"\n",
		"syntax":     "[game\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "shardfall.toml")
	require.NoError(t, os.WriteFile(p, []byte("[game]\nname = \"test\"\nmax_ticks = 3\n"), 0o644))

	t.Setenv(EnvPath, p)
	assert.Equal(t, p, Path())

	cfg, err := Load(Path())
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Game.Name)
	assert.Equal(t, uint64(3), cfg.Game.MaxTicks)
	assert.NotZero(t, cfg.Game.StartTime)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
