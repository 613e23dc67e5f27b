package scheduling

import (
	"sort"

	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// ScheduledJob is a job with its worker slot and execution interval (epoch seconds)
type ScheduledJob struct {
	Job    *upgrade.Job
	Worker int
	Start  int64
	End    int64
}

// Key returns the underlying job key
func (s ScheduledJob) Key() upgrade.JobKey {
	return s.Job.Key()
}

// DurationSeconds returns End - Start
func (s ScheduledJob) DurationSeconds() int64 {
	return s.End - s.Start
}

// Result is the output of one scheduling run
type Result struct {
	Jobs            []ScheduledJob
	MakespanSeconds int64
	Heuristic       Heuristic
	Workers         int
	Origin          int64
	Iterations      int
}

// Lookup finds the scheduled entry of a job key
func (r *Result) Lookup(key upgrade.JobKey) (ScheduledJob, bool) {
	for _, s := range r.Jobs {
		if s.Key() == key {
			return s, true
		}
	}
	return ScheduledJob{}, false
}

// ByWorker groups the schedule per worker slot, each slot in start order.
// Slots that never ran a job are returned empty.
func (r *Result) ByWorker() [][]ScheduledJob {
	out := make([][]ScheduledJob, r.Workers)
	for _, s := range r.Jobs {
		if s.Worker >= 0 && s.Worker < len(out) {
			out[s.Worker] = append(out[s.Worker], s)
		}
	}
	for _, lane := range out {
		sort.SliceStable(lane, func(i, j int) bool {
			if lane[i].Start != lane[j].Start {
				return lane[i].Start < lane[j].Start
			}
			return lane[i].End < lane[j].End
		})
	}
	return out
}

// WorkerBusySeconds sums the time each worker spends on jobs
func (r *Result) WorkerBusySeconds() []int64 {
	out := make([]int64, r.Workers)
	for _, s := range r.Jobs {
		if s.Worker >= 0 && s.Worker < len(out) {
			out[s.Worker] += s.DurationSeconds()
		}
	}
	return out
}
