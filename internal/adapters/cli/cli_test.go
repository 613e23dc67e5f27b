package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
	"github.com/andrescamacho/upgrade-planner/test/helpers"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool)
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func plannerConfig() *config.PlannerConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	cfg.Planner.BuilderBoostPercent = 10
	cfg.Planner.ActiveWindow.Enabled = true
	cfg.Planner.ActiveWindow.Timezone = "UTC"
	return &cfg.Planner
}

func TestSettingsFromConfig(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		settings, err := settingsFromConfig(plannerConfig(), planFlags{}, changedSet())

		require.NoError(t, err)
		assert.Equal(t, "LPT", settings.Heuristic)
		assert.InDelta(t, 0.1, settings.BoostFraction, 1e-9)
		require.NotNil(t, settings.Window)
		assert.Equal(t, "08:00", settings.Window.Start)
		assert.Equal(t, "22:00", settings.Window.End)
	})

	t.Run("flags win", func(t *testing.T) {
		flags := planFlags{heuristic: "SPT", boostPercent: 25, workers: 3, window: "22:00-06:30", timezone: "Europe/Berlin"}

		settings, err := settingsFromConfig(plannerConfig(), flags, changedSet("heuristic", "boost", "workers", "window", "timezone"))

		require.NoError(t, err)
		assert.Equal(t, "SPT", settings.Heuristic)
		assert.InDelta(t, 0.25, settings.BoostFraction, 1e-9)
		assert.Equal(t, 3, settings.WorkerOverride)
		assert.Equal(t, &planning.WindowSettings{Start: "22:00", End: "06:30", Timezone: "Europe/Berlin"}, settings.Window)
	})

	t.Run("no-window", func(t *testing.T) {
		settings, err := settingsFromConfig(plannerConfig(), planFlags{noWindow: true}, changedSet("no-window"))

		require.NoError(t, err)
		assert.Nil(t, settings.Window)
	})

	t.Run("bad window flag", func(t *testing.T) {
		_, err := settingsFromConfig(plannerConfig(), planFlags{window: "0800"}, changedSet("window"))
		assert.Error(t, err)
	})
}

func TestShortWindowWarning(t *testing.T) {
	short := planning.PlanSettings{Window: &planning.WindowSettings{Start: "23:30", End: "00:15", Timezone: "UTC"}}
	long := planning.PlanSettings{Window: &planning.WindowSettings{Start: "08:00", End: "22:00", Timezone: "UTC"}}

	assert.Contains(t, shortWindowWarning(short), "45m0s")
	assert.Empty(t, shortWindowWarning(long))
	assert.Empty(t, shortWindowWarning(planning.PlanSettings{}))
}

func TestApplyPreferenceFlags(t *testing.T) {
	// Arrange
	prefs := &config.UserPreferences{}

	// Act
	err := applyPreferenceFlags(prefs, changedSet("boost", "heuristic", "window", "timezone"),
		20, "spt", "09:00-21:00", "Asia/Tokyo", false)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, prefs.BuilderBoostPercent)
	assert.Equal(t, 20.0, *prefs.BuilderBoostPercent)
	assert.Equal(t, "SPT", prefs.Heuristic)
	assert.Equal(t, &config.ActiveWindowPreference{Enabled: true, Start: "09:00", End: "21:00", Timezone: "Asia/Tokyo"}, prefs.ActiveWindow)

	t.Run("invalid values leave preferences untouched", func(t *testing.T) {
		before := *prefs
		assert.Error(t, applyPreferenceFlags(prefs, changedSet("boost"), 100, "", "", "", false))
		assert.Error(t, applyPreferenceFlags(prefs, changedSet("heuristic"), 0, "FIFO", "", "", false))
		assert.Error(t, applyPreferenceFlags(prefs, changedSet("window"), 0, "", "10:00-10:00", "", false))
		assert.Equal(t, before, *prefs)
	})

	t.Run("timezone needs a window", func(t *testing.T) {
		assert.Error(t, applyPreferenceFlags(&config.UserPreferences{}, changedSet("timezone"), 0, "", "", "UTC", false))
	})
}

func samplePlan() *commands.GeneratePlanResponse {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &commands.GeneratePlanResponse{
		RunID:           "plan-lpt-0a1b2c3d",
		Outcome:         planning.OutcomeScheduled,
		Heuristic:       "LPT",
		Workers:         2,
		HallLevel:       2,
		Origin:          origin,
		MakespanSeconds: 150,
		Makespan:        "2.5m",
		Warnings:        []string{"no catalog entry for Mystery Tower"},
		Jobs: []*planning.ScheduledJobDTO{
			{ItemID: "Cannon", InstanceIter: "A", TargetLevel: 2, Priority: 100, Worker: 0, EndSeconds: 50, DurationSeconds: 50,
				StartAt: origin, EndAt: origin.Add(50 * time.Second)},
			{ItemID: "Archer Tower", InstanceIter: "A", TargetLevel: 1, Priority: 2, Worker: 1, EndSeconds: 30, DurationSeconds: 30,
				StartAt: origin, EndAt: origin.Add(30 * time.Second)},
			{ItemID: "Cannon", InstanceIter: "A", TargetLevel: 3, Priority: 100, Worker: 0, StartSeconds: 50, EndSeconds: 150, DurationSeconds: 100,
				StartAt: origin.Add(50 * time.Second), EndAt: origin.Add(150 * time.Second)},
		},
	}
}

func TestRenderPlan(t *testing.T) {
	var buf bytes.Buffer

	renderPlan(&buf, samplePlan(), false)

	out := buf.String()
	assert.Contains(t, out, "plan-lpt-0a1b2c3d")
	assert.Contains(t, out, "Archer Tower")
	assert.Contains(t, out, "1m 40s")
	assert.Contains(t, out, "warning: no catalog entry for Mystery Tower")
}

func TestRenderPlan_ByBuilder(t *testing.T) {
	var buf bytes.Buffer

	renderPlan(&buf, samplePlan(), true)

	out := buf.String()
	assert.Contains(t, out, "Builder 1")
	assert.Contains(t, out, "2 jobs, busy 2m 30s")
	assert.Contains(t, out, "Builder 2")
	assert.Contains(t, out, "1 jobs, busy 30s")
}

func TestRenderPlan_NothingToSchedule(t *testing.T) {
	var buf bytes.Buffer

	renderPlan(&buf, &commands.GeneratePlanResponse{
		Outcome: planning.OutcomeNothingToSchedule,
		Reason:  "building list is empty",
	}, false)

	assert.Contains(t, buf.String(), "Nothing to schedule")
	assert.Contains(t, buf.String(), "building list is empty")
}

func TestLoadSnapshot_UnusableExportIsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	app := &localApp{
		catalog: helpers.NewFixtureCatalog(),
		prefs:   config.NewPreferencesHandlerAt(filepath.Join(dir, "preferences.json")),
	}

	for name, content := range map[string]string{
		"blank":     "   \n",
		"truncated": `{"buildings": [ {"data": 1000001, "lvl": `,
		"not json":  "not json at all",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := loadSnapshot(app, path, catalog.VillageHome)

			var invalid *upgrade.InvalidInputError
			require.True(t, errors.As(err, &invalid), "got %v", err)
		})
	}
}

func TestReportInvalidInventory(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, reportInvalidInventory(&buf, false, false, "LPT", "cannot parse inventory json: unexpected end of JSON input"))

		assert.Contains(t, buf.String(), "Nothing to schedule")
		assert.Contains(t, buf.String(), "unexpected end of JSON input")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, reportInvalidInventory(&buf, false, true, "LPT", "no inventory data"))

		var resp commands.GeneratePlanResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, planning.OutcomeNothingToSchedule, resp.Outcome)
		assert.Equal(t, "no inventory data", resp.Reason)
		assert.Equal(t, "LPT", resp.Heuristic)
		assert.Empty(t, resp.Jobs)
	})

	t.Run("comparison", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, reportInvalidInventory(&buf, true, true, "LPT", "no inventory data"))

		var resp commands.CompareHeuristicsResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, planning.OutcomeNothingToSchedule, resp.Outcome)
		assert.Empty(t, resp.Best)
	})
}

func TestRenderCatalog(t *testing.T) {
	cat := helpers.NewFixtureCatalog()
	var buf bytes.Buffer

	require.NoError(t, renderCatalog(&buf, cat, catalog.VillageHome, 2))

	out := buf.String()
	assert.Contains(t, out, "Town Hall level 2")
	assert.Contains(t, out, "Archer Tower")
	assert.Contains(t, out, "1000009")

	assert.Error(t, renderCatalog(&buf, cat, catalog.VillageHome, 7))
	assert.Error(t, renderCatalog(&buf, cat, catalog.VillageBuilder, 0))
}

func TestFindItem(t *testing.T) {
	cat := helpers.NewFixtureCatalog()

	item, ok := findItem(cat, "archer tower")
	require.True(t, ok)
	assert.Equal(t, "Archer Tower", item.ID)

	item, ok = findItem(cat, "28000000")
	require.True(t, ok)
	assert.Equal(t, "Barbarian King", item.ID)

	_, ok = findItem(cat, "Inferno Tower")
	assert.False(t, ok)
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgresql://planner:xxxxx@db:5432/plans", maskPassword("postgresql://planner:secret@db:5432/plans"))
	assert.Equal(t, "postgresql://db:5432/plans", maskPassword("postgresql://db:5432/plans"))
}
