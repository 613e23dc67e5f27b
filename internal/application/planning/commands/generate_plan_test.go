package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/application/logging"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/test/helpers"
)

var origin = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingLogger struct {
	lines []map[string]interface{}
}

func (r *recordingLogger) Log(level, message string, metadata map[string]interface{}) {
	line := map[string]interface{}{"level": level, "message": message}
	for k, v := range metadata {
		line[k] = v
	}
	r.lines = append(r.lines, line)
}

// singleCannon is a hall-1 base whose only upgrade is Cannon A to level 2 (50s)
func singleCannon() *upgrade.Snapshot {
	return &upgrade.Snapshot{
		PlayerTag: "#ABC",
		Village:   catalog.VillageHome,
		Structures: []upgrade.Record{
			{ItemID: catalog.TownHall, Level: 1},
			{ItemID: "Builder's Hut", Level: 1, Count: 1},
			{ItemID: "Cannon", Level: 1, Count: 1},
		},
	}
}

// growingBase is a hall-2 base with new construction, catch-up chains and two builders
func growingBase() *upgrade.Snapshot {
	return &upgrade.Snapshot{
		PlayerTag: "#ABC",
		Structures: []upgrade.Record{
			{ItemID: catalog.TownHall, Level: 2},
			{ItemID: "Builder's Hut", Level: 1, Count: 2},
			{ItemID: "Cannon", Level: 1, Count: 1},
			{ItemID: catalog.Wall, Level: 1, Count: 25},
		},
	}
}

func newHandler(repo *helpers.MockPlanRunRepository) *commands.GeneratePlanHandler {
	service := planning.NewPlanningService(helpers.NewFixtureCatalog())
	if repo == nil {
		return commands.NewGeneratePlanHandler(service, nil, shared.NewMockClock(origin))
	}
	return commands.NewGeneratePlanHandler(service, repo, shared.NewMockClock(origin))
}

func generate(t *testing.T, h *commands.GeneratePlanHandler, ctx context.Context, cmd *commands.GeneratePlanCommand) *commands.GeneratePlanResponse {
	t.Helper()
	resp, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	return resp.(*commands.GeneratePlanResponse)
}

func TestGeneratePlan_SingleJob(t *testing.T) {
	// Arrange
	handler := newHandler(nil)
	cmd := &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{Heuristic: "spt"},
	}

	// Act
	resp := generate(t, handler, context.Background(), cmd)

	// Assert
	assert.Equal(t, planning.OutcomeScheduled, resp.Outcome)
	assert.Regexp(t, `^plan-spt-[0-9a-f]{8}$`, resp.RunID)
	assert.Equal(t, "SPT", resp.Heuristic)
	assert.Equal(t, 1, resp.Workers)
	assert.Equal(t, origin, resp.Origin)
	assert.Equal(t, int64(50), resp.MakespanSeconds)
	assert.Equal(t, "50s", resp.Makespan)
	assert.Equal(t, "PT50S", resp.MakespanISO)
	assert.False(t, resp.Saved)

	require.Len(t, resp.Jobs, 1)
	job := resp.Jobs[0]
	assert.Equal(t, "Cannon", job.ItemID)
	assert.Equal(t, "A", job.InstanceIter)
	assert.Equal(t, 2, job.TargetLevel)
	assert.Equal(t, 100, job.Priority)
	assert.Equal(t, "PT0S", job.StartISO)
	assert.Equal(t, "PT50S", job.EndISO)
	assert.Equal(t, "PT50S", job.DurationISO)
	assert.Equal(t, origin.Add(50*time.Second), job.EndAt)
}

func TestGeneratePlan_ActiveWindowDefersStart(t *testing.T) {
	handler := newHandler(nil)
	cmd := &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{
			Heuristic: "LPT",
			Window:    &planning.WindowSettings{Start: "08:00", End: "22:00"},
		},
		Origin: time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC),
	}

	resp := generate(t, handler, context.Background(), cmd)

	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, int64(9*3600), resp.Jobs[0].StartSeconds, "waits for 08:00 next morning")
	assert.Equal(t, "PT9H", resp.Jobs[0].StartISO)
	assert.Equal(t, int64(9*3600+50), resp.MakespanSeconds)
}

func TestGeneratePlan_FixedPriorityTableIgnoresCase(t *testing.T) {
	handler := newHandler(nil)
	cmd := &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{
			Heuristic:        "LPT",
			UseFixedPriority: true,
			PriorityTable:    map[string]int{"cannon": 5},
		},
	}

	resp := generate(t, handler, context.Background(), cmd)

	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, 5, resp.Jobs[0].Priority)
}

func TestGeneratePlan_SchedulesEveryJobOnce(t *testing.T) {
	for _, heuristic := range []string{"SPT", "LPT"} {
		t.Run(heuristic, func(t *testing.T) {
			// Arrange
			repo := helpers.NewMockPlanRunRepository()
			handler := newHandler(repo)
			cmd := &commands.GeneratePlanCommand{
				Snapshot: growingBase(),
				Settings: planning.PlanSettings{Heuristic: heuristic},
				Label:    "growing",
				Save:     true,
			}

			// Act
			resp := generate(t, handler, context.Background(), cmd)

			// Assert
			assert.Equal(t, planning.OutcomeScheduled, resp.Outcome)
			assert.Equal(t, 2, resp.Workers)

			seen := make(map[string]bool)
			var last int64
			for _, j := range resp.Jobs {
				key := j.ItemID + "|" + j.InstanceIter + "|" + string(rune('0'+j.TargetLevel))
				assert.False(t, seen[key], "duplicate job %s", key)
				seen[key] = true
				assert.NotEqual(t, catalog.Wall, j.ItemID)
				assert.Less(t, j.Worker, 2)
				if j.EndSeconds > last {
					last = j.EndSeconds
				}
			}
			// Cannon A2-A3, Cannon B1-B3, Archer Tower A1-A2, Hero Hall A1
			assert.Len(t, resp.Jobs, 8)
			assert.Equal(t, last, resp.MakespanSeconds)

			assert.True(t, resp.Saved)
			stored, err := repo.FindByID(context.Background(), resp.RunID)
			require.NoError(t, err)
			assert.Equal(t, "growing", stored.Label())
			assert.Equal(t, 8, stored.JobCount())
			assert.Equal(t, resp.MakespanSeconds, stored.MakespanSeconds())
		})
	}
}

func TestGeneratePlan_NothingToSchedule(t *testing.T) {
	handler := newHandler(nil)

	tests := []struct {
		name     string
		snapshot *upgrade.Snapshot
		reason   string
	}{
		{"no inventory", nil, "no inventory data"},
		{"empty building list", &upgrade.Snapshot{}, "building list is empty"},
		{"already maxed", &upgrade.Snapshot{Structures: []upgrade.Record{
			{ItemID: catalog.TownHall, Level: 1},
			{ItemID: "Builder's Hut", Level: 1},
			{ItemID: "Cannon", Level: 2},
		}}, "maximum level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := generate(t, handler, context.Background(), &commands.GeneratePlanCommand{
				Snapshot: tt.snapshot,
				Settings: planning.PlanSettings{Heuristic: "LPT"},
			})

			assert.Equal(t, planning.OutcomeNothingToSchedule, resp.Outcome)
			assert.Contains(t, resp.Reason, tt.reason)
			assert.Empty(t, resp.Jobs)
			assert.Equal(t, int64(0), resp.MakespanSeconds)
			assert.Equal(t, "0s", resp.Makespan)
		})
	}
}

func TestGeneratePlan_ConfigurationErrors(t *testing.T) {
	handler := newHandler(helpers.NewMockPlanRunRepository())

	tests := []struct {
		name     string
		settings planning.PlanSettings
	}{
		{"unknown heuristic", planning.PlanSettings{Heuristic: "FIFO"}},
		{"boost out of range", planning.PlanSettings{Heuristic: "SPT", BoostFraction: 1.5}},
		{"reserved fixed priority", planning.PlanSettings{Heuristic: "SPT", UseFixedPriority: true, PriorityTable: map[string]int{"Cannon": 1}}},
		{"empty window", planning.PlanSettings{Heuristic: "SPT", Window: &planning.WindowSettings{Start: "09:00", End: "09:00"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), &commands.GeneratePlanCommand{
				Snapshot: singleCannon(),
				Settings: tt.settings,
			})

			var cfgErr *shared.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestGeneratePlan_SaveWithoutHistory(t *testing.T) {
	handler := newHandler(nil)

	_, err := handler.Handle(context.Background(), &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{Heuristic: "SPT"},
		Save:     true,
	})

	assert.ErrorContains(t, err, "plan history is not configured")
}

func TestGeneratePlan_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newHandler(nil).Handle(ctx, &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{Heuristic: "SPT"},
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratePlan_LogsWarningsWithRunID(t *testing.T) {
	rec := &recordingLogger{}
	ctx := logging.WithLogger(context.Background(), rec)
	snapshot := singleCannon()
	snapshot.Structures = append(snapshot.Structures, upgrade.Record{ItemID: "Mystery Tower", Level: 1})

	resp := generate(t, newHandler(nil), ctx, &commands.GeneratePlanCommand{
		Snapshot: snapshot,
		Settings: planning.PlanSettings{Heuristic: "SPT"},
	})

	assert.Equal(t, []string{"no catalog entry for Mystery Tower"}, resp.Warnings)
	require.NotEmpty(t, rec.lines)
	var warned bool
	for _, line := range rec.lines {
		assert.Equal(t, resp.RunID, line["run_id"])
		if line["level"] == logging.LevelWarning {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestGeneratePlan_ThroughMediator(t *testing.T) {
	// Arrange
	med := mediator.NewMediator()
	med.RegisterMiddleware(logging.Middleware())
	require.NoError(t, mediator.RegisterHandler[*commands.GeneratePlanCommand](med, newHandler(nil)))

	// Act
	resp, err := med.Send(context.Background(), &commands.GeneratePlanCommand{
		Snapshot: singleCannon(),
		Settings: planning.PlanSettings{Heuristic: "LPT"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, planning.OutcomeScheduled, resp.(*commands.GeneratePlanResponse).Outcome)
}
