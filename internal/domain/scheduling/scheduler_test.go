package scheduling_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

func job(item, iter string, level int, duration int64, priority upgrade.Priority, preds ...upgrade.JobKey) *upgrade.Job {
	return upgrade.MustNewJob(item, iter, level, duration, priority, preds...)
}

func schedule(t *testing.T, jobs []*upgrade.Job, opts scheduling.Options) *scheduling.Result {
	t.Helper()
	result, err := scheduling.NewScheduler().Schedule(jobs, opts)
	require.NoError(t, err)
	return result
}

func TestSchedule_LevelChainOnOneWorker(t *testing.T) {
	// Arrange
	jobs := []*upgrade.Job{
		job("Cannon", "A", 2, 100, upgrade.PriorityDefault),
		job("Cannon", "A", 3, 50, upgrade.PriorityDefault),
	}

	// Act
	result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

	// Assert
	l2, ok := result.Lookup("Cannon|A|2")
	require.True(t, ok)
	l3, ok := result.Lookup("Cannon|A|3")
	require.True(t, ok)

	assert.Equal(t, int64(0), l2.Start)
	assert.Equal(t, int64(100), l2.End)
	assert.Equal(t, int64(100), l3.Start)
	assert.Equal(t, int64(150), l3.End)
	assert.Equal(t, int64(150), result.MakespanSeconds)
}

func TestSchedule_EqualDurationsKeepInsertionOrder(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Wall", "A", 1, 60, upgrade.PriorityDefault),
		job("Wall", "B", 1, 60, upgrade.PriorityDefault),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

	require.Len(t, result.Jobs, 2)
	assert.Equal(t, upgrade.JobKey("Wall|A|1"), result.Jobs[0].Key())
	assert.Equal(t, int64(0), result.Jobs[0].Start)
	assert.Equal(t, int64(60), result.Jobs[0].End)
	assert.Equal(t, upgrade.JobKey("Wall|B|1"), result.Jobs[1].Key())
	assert.Equal(t, int64(60), result.Jobs[1].Start)
	assert.Equal(t, int64(120), result.Jobs[1].End)
	assert.Equal(t, int64(120), result.MakespanSeconds)
}

func TestSchedule_EmptyJobSet(t *testing.T) {
	for _, workers := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			result, err := scheduling.NewScheduler().Schedule(nil, scheduling.Options{Workers: workers, Heuristic: scheduling.HeuristicLPT})

			require.NoError(t, err)
			assert.Empty(t, result.Jobs)
			assert.Equal(t, int64(0), result.MakespanSeconds)
		})
	}
}

func TestSchedule_ConfigurationErrors(t *testing.T) {
	jobs := []*upgrade.Job{job("Cannon", "A", 1, 10, upgrade.PriorityDefault)}

	tests := []struct {
		name string
		opts scheduling.Options
	}{
		{"zero workers", scheduling.Options{Workers: 0, Heuristic: scheduling.HeuristicSPT}},
		{"negative workers", scheduling.Options{Workers: -2, Heuristic: scheduling.HeuristicSPT}},
		{"unknown heuristic", scheduling.Options{Workers: 1, Heuristic: "EDD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scheduling.NewScheduler().Schedule(jobs, tt.opts)

			var cfgErr *shared.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestSchedule_DuplicateKeysRejected(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Cannon", "A", 1, 10, upgrade.PriorityDefault),
		job("Cannon", "A", 1, 20, upgrade.PriorityDefault),
	}

	_, err := scheduling.NewScheduler().Schedule(jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

	var cfgErr *shared.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseHeuristic(t *testing.T) {
	h, err := scheduling.ParseHeuristic(" lpt ")
	require.NoError(t, err)
	assert.Equal(t, scheduling.HeuristicLPT, h)

	_, err = scheduling.ParseHeuristic("fifo")
	var cfgErr *shared.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSchedule_HeuristicOrdering(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Mortar", "A", 2, 300, upgrade.PriorityDefault),
		job("Cannon", "A", 2, 100, upgrade.PriorityDefault),
		job("Archer Tower", "A", 2, 200, upgrade.PriorityDefault),
	}

	tests := []struct {
		heuristic scheduling.Heuristic
		want      []upgrade.JobKey
	}{
		{scheduling.HeuristicSPT, []upgrade.JobKey{"Cannon|A|2", "Archer Tower|A|2", "Mortar|A|2"}},
		{scheduling.HeuristicLPT, []upgrade.JobKey{"Mortar|A|2", "Archer Tower|A|2", "Cannon|A|2"}},
	}

	for _, tt := range tests {
		t.Run(tt.heuristic.String(), func(t *testing.T) {
			result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: tt.heuristic})

			var got []upgrade.JobKey
			for _, s := range result.Jobs {
				got = append(got, s.Key())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(600), result.MakespanSeconds)
		})
	}
}

func TestSchedule_ReservedPrioritiesGoFirst(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Cannon", "A", 3, 10, upgrade.PriorityDefault),
		job("Mortar", "B", 1, 500, upgrade.PriorityNewConstruction),
		job("Archer Tower", "A", 4, 9000, upgrade.PriorityInProgress),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

	assert.Equal(t, upgrade.JobKey("Archer Tower|A|4"), result.Jobs[0].Key())
	assert.Equal(t, int64(0), result.Jobs[0].Start)
	assert.Equal(t, upgrade.JobKey("Mortar|B|1"), result.Jobs[1].Key())
	assert.Equal(t, upgrade.JobKey("Cannon|A|3"), result.Jobs[2].Key())
}

func TestSchedule_InProgressJobsAreFirstCome(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Cannon", "A", 3, 900, upgrade.PriorityInProgress),
		job("Cannon", "B", 3, 100, upgrade.PriorityInProgress),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

	assert.Equal(t, upgrade.JobKey("Cannon|A|3"), result.Jobs[0].Key())
	assert.Equal(t, upgrade.JobKey("Cannon|B|3"), result.Jobs[1].Key())
}

func TestSchedule_ReusesPredecessorWorker(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Cannon", "A", 2, 100, upgrade.PriorityDefault),
		job("Archer Tower", "A", 2, 50, upgrade.PriorityDefault),
		job("Cannon", "A", 3, 10, upgrade.PriorityDefault),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 2, Heuristic: scheduling.HeuristicSPT})

	archer, _ := result.Lookup("Archer Tower|A|2")
	cannon2, _ := result.Lookup("Cannon|A|2")
	cannon3, _ := result.Lookup("Cannon|A|3")
	assert.Equal(t, 0, archer.Worker)
	assert.Equal(t, 1, cannon2.Worker)
	assert.Equal(t, 1, cannon3.Worker, "next level stays with the same builder")
	assert.Equal(t, int64(100), cannon3.Start)
}

func TestSchedule_WaitsForAllPredecessors(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Hero Hall", "A", 2, 500, upgrade.PriorityDefault),
		job("Barbarian King", "A", 10, 20, upgrade.PriorityDefault),
		job("Barbarian King", "A", 11, 30, upgrade.PriorityDefault, "Hero Hall|A|2"),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 2, Heuristic: scheduling.HeuristicSPT})

	king, _ := result.Lookup("Barbarian King|A|11")
	assert.Equal(t, int64(500), king.Start)
	assert.Equal(t, int64(530), result.MakespanSeconds)
}

func TestSchedule_Deadlocks(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		jobs := []*upgrade.Job{
			job("Cannon", "A", 1, 10, upgrade.PriorityDefault, "Mortar|A|1"),
			job("Mortar", "A", 1, 10, upgrade.PriorityDefault, "Cannon|A|1"),
			job("Wall", "A", 1, 10, upgrade.PriorityDefault),
		}

		_, err := scheduling.NewScheduler().Schedule(jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

		var deadlock *scheduling.DeadlockError
		require.True(t, errors.As(err, &deadlock))
		assert.ElementsMatch(t, []upgrade.JobKey{"Cannon|A|1", "Mortar|A|1"}, deadlock.Blocked)
	})

	t.Run("dangling predecessor", func(t *testing.T) {
		jobs := []*upgrade.Job{
			job("Cannon", "A", 1, 10, upgrade.PriorityDefault, "Ghost|A|9"),
		}

		_, err := scheduling.NewScheduler().Schedule(jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT})

		var deadlock *scheduling.DeadlockError
		require.True(t, errors.As(err, &deadlock))
		assert.Equal(t, []upgrade.JobKey{"Ghost|A|9"}, deadlock.Missing)
	})
}

func TestSchedule_IterationCap(t *testing.T) {
	jobs := []*upgrade.Job{
		job("Cannon", "A", 1, 10, upgrade.PriorityDefault),
		job("Cannon", "A", 2, 10, upgrade.PriorityDefault),
		job("Cannon", "A", 3, 10, upgrade.PriorityDefault),
	}

	_, err := scheduling.NewScheduler().Schedule(jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT, MaxIterations: 1})

	var overflow *scheduling.LoopOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, 1, overflow.Limit)
}

// 2024-01-01 00:00:00 UTC
const newYear int64 = 1704067200

func TestSchedule_ActiveWindowDelaysNewWork(t *testing.T) {
	// Arrange
	window, err := scheduling.NewActiveWindow("08:00", "22:00", time.UTC)
	require.NoError(t, err)
	jobs := []*upgrade.Job{
		job("Cannon", "A", 4, 1800, upgrade.PriorityInProgress),
		job("Mortar", "A", 2, 3600, upgrade.PriorityDefault),
	}

	// Act
	result := schedule(t, jobs, scheduling.Options{Workers: 2, Heuristic: scheduling.HeuristicSPT, Window: window, Origin: newYear})

	// Assert
	running, _ := result.Lookup("Cannon|A|4")
	assert.Equal(t, newYear, running.Start, "in-progress timers ignore the window")

	mortar, _ := result.Lookup("Mortar|A|2")
	assert.Equal(t, newYear+8*3600, mortar.Start)
	assert.Equal(t, int64(9*3600), result.MakespanSeconds)
}

func TestSchedule_ActiveWindowReleaseAfterClosing(t *testing.T) {
	window, err := scheduling.NewActiveWindow("08:00", "22:00", time.UTC)
	require.NoError(t, err)
	origin := newYear + 21*3600 + 30*60
	jobs := []*upgrade.Job{
		job("Clan Castle", "A", 3, 7200, upgrade.PriorityInProgress),
		job("Cannon", "A", 2, 3600, upgrade.PriorityDefault),
		job("Cannon", "A", 3, 600, upgrade.PriorityDefault),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 2, Heuristic: scheduling.HeuristicSPT, Window: window, Origin: origin})

	first, _ := result.Lookup("Cannon|A|2")
	assert.Equal(t, origin, first.Start)
	second, _ := result.Lookup("Cannon|A|3")
	assert.Equal(t, newYear+24*3600+8*3600, second.Start)
}

func TestSchedule_OvernightCompletionsReleaseAtOpening(t *testing.T) {
	// Arrange
	window, err := scheduling.NewActiveWindow("08:00", "22:00", time.UTC)
	require.NoError(t, err)
	origin := newYear + 21*3600
	jobs := []*upgrade.Job{
		job("Cannon", "A", 1, 9000, upgrade.PriorityDefault), // ends 23:30
		job("Cannon", "B", 1, 7200, upgrade.PriorityDefault), // ends 23:00
		job("Cannon", "A", 2, 600, upgrade.PriorityDefault),
		job("Cannon", "B", 2, 600, upgrade.PriorityDefault),
		job("Mortar", "C", 1, 600, upgrade.PriorityDefault),
	}

	// Act
	result := schedule(t, jobs, scheduling.Options{Workers: 2, Heuristic: scheduling.HeuristicLPT, Window: window, Origin: origin})

	// Assert
	opening := newYear + 24*3600 + 8*3600
	mortar, _ := result.Lookup("Mortar|C|1")
	assert.Equal(t, opening, mortar.Start, "waiting since the origin beats overnight releases")
	cannonA, _ := result.Lookup("Cannon|A|2")
	assert.Equal(t, opening, cannonA.Start, "both releases land on the opening, so A wins on instance")
	cannonB, _ := result.Lookup("Cannon|B|2")
	assert.Equal(t, opening+600, cannonB.Start)
}

func TestSchedule_WindowEndIsInclusive(t *testing.T) {
	window, err := scheduling.NewActiveWindow("08:00", "22:00", time.UTC)
	require.NoError(t, err)
	origin := newYear + 21*3600
	jobs := []*upgrade.Job{
		job("Cannon", "A", 2, 3600, upgrade.PriorityDefault),
		job("Cannon", "A", 3, 600, upgrade.PriorityDefault),
	}

	result := schedule(t, jobs, scheduling.Options{Workers: 1, Heuristic: scheduling.HeuristicSPT, Window: window, Origin: origin})

	second, _ := result.Lookup("Cannon|A|3")
	assert.Equal(t, newYear+22*3600, second.Start)
}

// randomJobSet builds a reproducible DAG: level chains per instance plus occasional
// cross edges to earlier jobs
func randomJobSet(seed int64) []*upgrade.Job {
	rng := rand.New(rand.NewSource(seed))
	items := []string{"Cannon", "Mortar", "Archer Tower", "Hero Hall", "Barbarian King"}

	var jobs []*upgrade.Job
	for _, item := range items {
		seq := &upgrade.IterSequence{}
		for n := 1 + rng.Intn(3); n > 0; n-- {
			iter := seq.Next()
			levels := 1 + rng.Intn(4)
			for l := 1; l <= levels; l++ {
				priority := upgrade.PriorityDefault
				switch {
				case l == 1 && rng.Intn(5) == 0:
					priority = upgrade.PriorityInProgress
				case l == 1 && rng.Intn(4) == 0:
					priority = upgrade.PriorityNewConstruction
				}
				var preds []upgrade.JobKey
				if priority != upgrade.PriorityInProgress && len(jobs) > 0 && rng.Intn(4) == 0 {
					preds = append(preds, jobs[rng.Intn(len(jobs))].Key())
				}
				jobs = append(jobs, job(item, iter, l, int64(rng.Intn(20000)), priority, preds...))
			}
		}
	}
	return jobs
}

func TestSchedule_Properties(t *testing.T) {
	window, err := scheduling.NewActiveWindow("07:30", "23:15", time.UTC)
	require.NoError(t, err)

	for seed := int64(1); seed <= 40; seed++ {
		for _, heuristic := range scheduling.AllHeuristics() {
			for _, w := range []*scheduling.ActiveWindow{nil, window} {
				jobs := randomJobSet(seed)
				opts := scheduling.Options{
					Workers:   1 + int(seed%4),
					Heuristic: heuristic,
					Window:    w,
					Origin:    newYear + seed*1117,
				}
				name := fmt.Sprintf("seed %d %s window=%v", seed, heuristic, w != nil)

				inProgress := 0
				for _, j := range jobs {
					if j.IsInProgress() {
						inProgress++
					}
				}

				result := schedule(t, jobs, opts)
				again := schedule(t, jobs, opts)
				assert.Equal(t, result.Jobs, again.Jobs, "%s: determinism", name)

				// coverage
				require.Len(t, result.Jobs, len(jobs), name)
				byKey := make(map[upgrade.JobKey]scheduling.ScheduledJob)
				var maxEnd int64 = opts.Origin
				for _, s := range result.Jobs {
					_, dup := byKey[s.Key()]
					require.False(t, dup, "%s: %s scheduled twice", name, s.Key())
					byKey[s.Key()] = s
					assert.Equal(t, s.Job.DurationSeconds(), s.End-s.Start, name)
					assert.GreaterOrEqual(t, s.Start, opts.Origin, name)
					if s.End > maxEnd {
						maxEnd = s.End
					}
					if w != nil && s.Job.Priority() != upgrade.PriorityInProgress {
						assert.True(t, w.ContainsUnix(s.Start), "%s: %s starts outside the window", name, s.Key())
					}
					if s.Job.IsInProgress() && inProgress <= opts.Workers {
						assert.Equal(t, opts.Origin, s.Start, "%s: in-progress %s delayed", name, s.Key())
					}
				}
				assert.Equal(t, maxEnd-opts.Origin, result.MakespanSeconds, name)

				// precedence
				for _, j := range jobs {
					s := byKey[j.Key()]
					preds := j.Predecessors()
					if _, ok := byKey[j.PreviousLevelKey()]; ok {
						preds = append(preds, j.PreviousLevelKey())
					}
					for _, p := range preds {
						assert.GreaterOrEqual(t, s.Start, byKey[p].End, "%s: %s before %s", name, j.Key(), p)
					}
				}

				// no worker overlap
				for worker, lane := range result.ByWorker() {
					for i := 1; i < len(lane); i++ {
						assert.GreaterOrEqual(t, lane[i].Start, lane[i-1].End, "%s: overlap on worker %d", name, worker)
					}
				}
			}
		}
	}
}
