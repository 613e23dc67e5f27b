package planrun_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

func TestEntriesFromResult_UsesOriginOffsets(t *testing.T) {
	jobs := []*upgrade.Job{
		upgrade.MustNewJob("Cannon", "A", 2, 100, upgrade.PriorityDefault),
		upgrade.MustNewJob("Cannon", "A", 3, 50, upgrade.PriorityDefault),
	}
	result, err := scheduling.NewScheduler().Schedule(jobs, scheduling.Options{
		Workers: 1, Heuristic: scheduling.HeuristicSPT, Origin: 1_000_000,
	})
	require.NoError(t, err)

	entries := planrun.EntriesFromResult(result)

	require.Len(t, entries, 2)
	assert.Equal(t, int64(100), entries[1].StartOffset)
	assert.Equal(t, int64(150), entries[1].EndOffset)
	assert.Equal(t, int64(50), entries[1].DurationSeconds())
}

func TestNewPlanRun_Validation(t *testing.T) {
	valid := planrun.NewPlanRunParams{
		ID:              "plan-spt-0000abcd",
		Heuristic:       "SPT",
		Workers:         2,
		MakespanSeconds: 150,
		Origin:          time.Unix(0, 0).UTC(),
		Entries: []planrun.ScheduledEntry{
			{ItemID: "Cannon", InstanceIter: "A", TargetLevel: 2, StartOffset: 0, EndOffset: 100},
			{ItemID: "Cannon", InstanceIter: "A", TargetLevel: 3, StartOffset: 100, EndOffset: 150},
		},
	}

	run, err := planrun.NewPlanRun(valid)
	require.NoError(t, err)
	assert.Equal(t, 2, run.JobCount())
	assert.Equal(t, time.Unix(150, 0).UTC(), run.FinishesAt())

	tests := []struct {
		name   string
		mutate func(p *planrun.NewPlanRunParams)
		field  string
	}{
		{"missing id", func(p *planrun.NewPlanRunParams) { p.ID = "" }, "id"},
		{"missing heuristic", func(p *planrun.NewPlanRunParams) { p.Heuristic = "" }, "heuristic"},
		{"no workers", func(p *planrun.NewPlanRunParams) { p.Workers = 0 }, "workers"},
		{"makespan mismatch", func(p *planrun.NewPlanRunParams) { p.MakespanSeconds = 99 }, "makespan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			params.Entries = append([]planrun.ScheduledEntry(nil), valid.Entries...)
			tt.mutate(&params)

			_, err := planrun.NewPlanRun(params)

			var invalid *planrun.ErrInvalidPlanRun
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestNewPlanRun_EmptyPlanIsValid(t *testing.T) {
	run, err := planrun.NewPlanRun(planrun.NewPlanRunParams{ID: "plan-lpt-1", Heuristic: "LPT"})

	require.NoError(t, err)
	assert.Zero(t, run.JobCount())
	assert.Zero(t, run.MakespanSeconds())
}
