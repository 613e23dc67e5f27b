package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
planner:
  heuristic: spt
  builder_boost_percent: 15
  priority_table:
    Cannon: 10
  active_window:
    enabled: true
    start: "07:30"
    end: "23:00"
    timezone: Europe/Berlin
database:
  type: sqlite
  path: /tmp/plans-test.db
`)

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "SPT", cfg.Planner.Heuristic)
	assert.InDelta(t, 0.15, cfg.Planner.BoostFraction(), 1e-9)
	assert.Equal(t, 10, cfg.Planner.PriorityTable["cannon"], "viper lower-cases map keys")
	assert.Equal(t, 100, cfg.Planner.DefaultPriority)
	assert.True(t, cfg.Planner.ActiveWindow.Enabled)
	assert.Equal(t, "07:30", cfg.Planner.ActiveWindow.Start)
	assert.Equal(t, "/tmp/plans-test.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/upgrade-planner.sock", cfg.Daemon.SocketPath)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "planner:\n  heuristic: SPT\n")
	t.Setenv("UP_PLANNER_HEURISTIC", "LPT")
	t.Setenv("UP_PLANNER_WORKER_OVERRIDE", "6")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "LPT", cfg.Planner.Heuristic)
	assert.Equal(t, 6, cfg.Planner.WorkerOverride)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown heuristic", "planner:\n  heuristic: EDD\n"},
		{"reserved default priority", "planner:\n  default_priority: 2\n"},
		{"boost of 100 percent", "planner:\n  builder_boost_percent: 100\n"},
		{"bad clock", "planner:\n  active_window:\n    start: \"25:00\"\n"},
		{"empty window", "planner:\n  active_window:\n    enabled: true\n    start: \"09:00\"\n    end: \"09:00\"\n"},
		{"unknown database", "database:\n  type: mysql\n"},
		{"file logging without path", "logging:\n  output: file\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidateConfig_HeuristicIgnoresCase(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)

	for _, name := range []string{"lpt", "Spt", " LPT "} {
		cfg.Planner.Heuristic = name
		assert.NoError(t, config.ValidateConfig(cfg), name)
	}

	cfg.Planner.Heuristic = "fifo"
	assert.Error(t, config.ValidateConfig(cfg))
}

func TestPreferencesHandler_RoundTripAndApply(t *testing.T) {
	// Arrange
	handler := config.NewPreferencesHandlerAt(filepath.Join(t.TempDir(), "preferences.json"))
	empty, err := handler.Load()
	require.NoError(t, err)
	assert.Nil(t, empty.BuilderBoostPercent)

	// Act
	require.NoError(t, handler.Update(func(p *config.UserPreferences) {
		boost := 20.0
		p.BuilderBoostPercent = &boost
		p.ActiveWindow = &config.ActiveWindowPreference{Enabled: true, Start: "09:00", End: "21:00"}
	}))
	prefs, err := handler.Load()
	require.NoError(t, err)

	cfg := &config.Config{}
	config.SetDefaults(cfg)
	config.ApplyPreferences(cfg, prefs)

	// Assert
	assert.InDelta(t, 0.2, cfg.Planner.BoostFraction(), 1e-9)
	assert.True(t, cfg.Planner.ActiveWindow.Enabled)
	assert.Equal(t, "21:00", cfg.Planner.ActiveWindow.End)
	assert.Equal(t, "LPT", cfg.Planner.Heuristic)
}
