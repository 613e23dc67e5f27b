package scheduling

import "github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"

// JobState is the runtime state of a job inside one scheduling run
type JobState string

const (
	// JobStateBlocked - waiting on at least one predecessor
	JobStateBlocked JobState = "BLOCKED"

	// JobStateReady - every predecessor completed, waiting for a worker
	JobStateReady JobState = "READY"

	// JobStateRunning - assigned to a worker with a fixed start and end
	JobStateRunning JobState = "RUNNING"

	// JobStateCompleted - terminal
	JobStateCompleted JobState = "COMPLETED"
)

// runtimeJob wraps an immutable job with the mutable state of one run
type runtimeJob struct {
	job           *upgrade.Job
	index         int
	state         JobState
	waitingOn     int
	earliestStart int64
	worker        int
	start         int64
	end           int64
}

func newRuntimeJob(job *upgrade.Job, index, predecessors int) *runtimeJob {
	return &runtimeJob{job: job, index: index, state: JobStateBlocked, waitingOn: predecessors, worker: -1}
}

func (r *runtimeJob) markReady(at int64) error {
	if r.state != JobStateBlocked {
		return &ErrInvalidJobTransition{Key: r.job.Key(), From: r.state, To: JobStateReady}
	}
	r.state = JobStateReady
	r.earliestStart = at
	return nil
}

func (r *runtimeJob) markRunning(worker int, at int64) error {
	if r.state != JobStateReady {
		return &ErrInvalidJobTransition{Key: r.job.Key(), From: r.state, To: JobStateRunning}
	}
	r.state = JobStateRunning
	r.worker = worker
	r.start = at
	r.end = at + r.job.DurationSeconds()
	return nil
}

func (r *runtimeJob) markCompleted() error {
	if r.state != JobStateRunning {
		return &ErrInvalidJobTransition{Key: r.job.Key(), From: r.state, To: JobStateCompleted}
	}
	r.state = JobStateCompleted
	return nil
}
