package upgrade_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

func TestNewJob_KeyAndPredecessors(t *testing.T) {
	job, err := upgrade.NewJob("Cannon", "B", 4, 3600, upgrade.PriorityDefault, "Cannon|B|3", "Cannon|B|3", "", "Cannon|B|4")
	require.NoError(t, err)

	assert.Equal(t, upgrade.JobKey("Cannon|B|4"), job.Key())
	assert.Equal(t, upgrade.JobKey("Cannon|B|3"), job.PreviousLevelKey())
	assert.Equal(t, []upgrade.JobKey{"Cannon|B|3"}, job.Predecessors(), "duplicates, blanks and self edges are dropped")
	assert.False(t, job.IsInProgress())
}

func TestNewJob_Validation(t *testing.T) {
	tests := []struct {
		name     string
		itemID   string
		iter     string
		level    int
		duration int64
		priority upgrade.Priority
		field    string
	}{
		{"empty item", "", "A", 1, 0, 100, "itemId"},
		{"separator in item", "Can|non", "A", 1, 0, 100, "itemId"},
		{"empty iter", "Cannon", "", 1, 0, 100, "instanceIter"},
		{"level zero", "Cannon", "A", 0, 0, 100, "targetLevel"},
		{"negative duration", "Cannon", "A", 1, -1, 100, "durationSeconds"},
		{"priority zero", "Cannon", "A", 1, 0, 0, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := upgrade.NewJob(tt.itemID, tt.iter, tt.level, tt.duration, tt.priority)

			var validation *shared.ValidationError
			require.True(t, errors.As(err, &validation))
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestPredecessorsReturnsCopy(t *testing.T) {
	job := upgrade.MustNewJob("Cannon", "A", 2, 10, upgrade.PriorityDefault, "Cannon|A|1")

	preds := job.Predecessors()
	preds[0] = "tampered"

	assert.Equal(t, []upgrade.JobKey{"Cannon|A|1"}, job.Predecessors())
}

func TestApplyBoost_Quantization(t *testing.T) {
	tests := []struct {
		name     string
		raw      int64
		fraction float64
		want     int64
	}{
		{"zero stays zero", 0, 0.2, 0},
		{"short timers round up", 1000, 0.25, 750},
		{"fractional seconds round up", 7, 0.5, 4},
		{"hours floor to ten minutes", 10*3600 + 500, 0.25, 27000},
		{"exactly one day floors to ten minutes", 86400, 0, 86400},
		{"days floor to the hour", 5*86400 + 1000, 0.25, 324000},
		{"no boost still quantizes", 3*3600 + 125, 0, 3 * 3600},
		{"negative fraction treated as none", 600, -0.5, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upgrade.ApplyBoost(tt.raw, tt.fraction))
		})
	}
}

func TestValidateBoostFraction(t *testing.T) {
	assert.NoError(t, upgrade.ValidateBoostFraction(0))
	assert.NoError(t, upgrade.ValidateBoostFraction(0.2))
	assert.Error(t, upgrade.ValidateBoostFraction(1))
	assert.Error(t, upgrade.ValidateBoostFraction(-0.1))
}

func TestIterSequence(t *testing.T) {
	seq := &upgrade.IterSequence{}
	var got []string
	for i := 0; i < 28; i++ {
		got = append(got, seq.Next())
	}

	assert.Equal(t, "A", got[0])
	assert.Equal(t, "Z", got[25])
	assert.Equal(t, "AA", got[26])
	assert.Equal(t, "AB", got[27])
}

func TestCompareIters(t *testing.T) {
	assert.Equal(t, -1, upgrade.CompareIters("B", "AA"))
	assert.Equal(t, 1, upgrade.CompareIters("AB", "AA"))
	assert.Equal(t, 0, upgrade.CompareIters("C", "C"))
}
