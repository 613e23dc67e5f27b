package scheduling

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

const (
	// DefaultIterationFactor scales the iteration cap with the number of jobs
	DefaultIterationFactor = 3
	iterationSlack         = 16
)

// Options configures one scheduling run
type Options struct {
	Workers   int
	Heuristic Heuristic

	// Window gates new non-in-progress jobs; nil disables the gate
	Window *ActiveWindow

	// Origin is the simulated start time in epoch seconds
	Origin int64

	// MaxIterations overrides the iteration cap when positive
	MaxIterations int
}

// Scheduler is a greedy discrete-event list scheduler over a precedence DAG
// with a fixed pool of identical workers
type Scheduler struct {
	iterationFactor int
}

// NewScheduler creates a scheduler with the default iteration cap
func NewScheduler() *Scheduler {
	return &Scheduler{iterationFactor: DefaultIterationFactor}
}

// WithIterationFactor returns a copy using factor*jobs (+ slack) as the iteration cap
func (s *Scheduler) WithIterationFactor(factor int) *Scheduler {
	if factor < 1 {
		factor = DefaultIterationFactor
	}
	return &Scheduler{iterationFactor: factor}
}

// run is the state of one Schedule call
type run struct {
	opts    Options
	jobs    []*runtimeJob
	graph   *precedenceGraph
	ready   *readyQueue
	running runningQueue
	busy    []bool
	idle    int
	now     int64
	done    int
}

// Schedule assigns every job to a worker and a start time.
//
// Jobs are never mutated. The returned schedule is sorted by start, worker, end and
// insertion index. An empty job set yields an empty result with a zero makespan.
func (s *Scheduler) Schedule(jobs []*upgrade.Job, opts Options) (*Result, error) {
	if err := opts.Heuristic.Validate(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return &Result{Heuristic: opts.Heuristic, Workers: opts.Workers, Origin: opts.Origin}, nil
	}
	if opts.Workers <= 0 {
		return nil, shared.NewConfigurationError("workers", fmt.Sprintf("must be >= 1, got %d", opts.Workers))
	}

	graph, err := buildPrecedenceGraph(jobs)
	if err != nil {
		return nil, err
	}

	r := &run{
		opts:  opts,
		jobs:  make([]*runtimeJob, len(jobs)),
		graph: graph,
		ready: newReadyQueue(opts.Heuristic),
		busy:  make([]bool, opts.Workers),
		idle:  opts.Workers,
		now:   opts.Origin,
	}
	for i, j := range jobs {
		r.jobs[i] = newRuntimeJob(j, i, len(graph.preds[i]))
	}
	for _, rt := range r.jobs {
		if rt.waitingOn == 0 {
			if err := r.release(rt); err != nil {
				return nil, err
			}
		}
	}

	limit := opts.MaxIterations
	if limit <= 0 {
		limit = s.iterationFactor*len(jobs) + iterationSlack
	}

	iterations := 0
	for r.done < len(r.jobs) {
		iterations++
		if iterations > limit {
			return nil, &LoopOverflowError{Limit: limit, Completed: r.done, Total: len(r.jobs)}
		}

		gated, err := r.assign()
		if err != nil {
			return nil, err
		}

		switch {
		case len(r.running) == 0 && r.ready.Len() == 0:
			return nil, r.deadlock()
		case len(r.running) == 0:
			// everything ready is waiting for the window
			r.now = opts.Window.NextOpening(r.now)
			continue
		case gated:
			next := r.running.nextEnd()
			if opening := opts.Window.NextOpening(r.now); opening < next {
				next = opening
			}
			r.now = next
		default:
			r.now = r.running.nextEnd()
		}

		if err := r.completeDue(); err != nil {
			return nil, err
		}
	}

	return r.result(iterations), nil
}

// assign hands ready jobs to idle workers at the current time. It reports whether
// the active window held back a ready job.
func (r *run) assign() (bool, error) {
	for r.idle > 0 && r.ready.Len() > 0 {
		top := r.ready.peek()
		if top.job.Priority() != upgrade.PriorityInProgress &&
			r.opts.Window != nil && !r.opts.Window.ContainsUnix(r.now) {
			return true, nil
		}

		rt := r.ready.pop()
		worker := r.pickWorker(rt)
		if err := rt.markRunning(worker, r.now); err != nil {
			return false, err
		}
		r.busy[worker] = true
		r.idle--
		heap.Push(&r.running, rt)
	}
	return false, nil
}

// pickWorker prefers the idle worker that built the previous level of the same instance
func (r *run) pickWorker(rt *runtimeJob) int {
	if p := r.graph.levelPred[rt.index]; p >= 0 {
		if w := r.jobs[p].worker; w >= 0 && !r.busy[w] {
			return w
		}
	}
	for w, busy := range r.busy {
		if !busy {
			return w
		}
	}
	return -1
}

// completeDue finishes every running job with end <= now and releases successors
// whose last predecessor just completed
func (r *run) completeDue() error {
	for len(r.running) > 0 && r.running.nextEnd() <= r.now {
		rt := heap.Pop(&r.running).(*runtimeJob)
		if err := rt.markCompleted(); err != nil {
			return err
		}
		r.busy[rt.worker] = false
		r.idle++
		r.done++

		for _, succ := range r.graph.succs[rt.index] {
			child := r.jobs[succ]
			child.waitingOn--
			if child.waitingOn == 0 {
				if err := r.releaseAt(child, r.clampToWindow(rt.end)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *run) release(rt *runtimeJob) error {
	return r.releaseAt(rt, r.now)
}

// clampToWindow moves a completion outside the active window to the next opening,
// so successors released overnight all become ready at the same instant
func (r *run) clampToWindow(at int64) int64 {
	if r.opts.Window == nil || r.opts.Window.ContainsUnix(at) {
		return at
	}
	return r.opts.Window.NextOpening(at)
}

func (r *run) releaseAt(rt *runtimeJob, at int64) error {
	if err := rt.markReady(at); err != nil {
		return err
	}
	r.ready.push(rt)
	return nil
}

func (r *run) deadlock() error {
	var blocked []upgrade.JobKey
	for _, rt := range r.jobs {
		if rt.state == JobStateBlocked {
			blocked = append(blocked, rt.job.Key())
		}
	}
	return &DeadlockError{Time: r.now, Blocked: blocked}
}

func (r *run) result(iterations int) *Result {
	out := make([]ScheduledJob, len(r.jobs))
	maxEnd := r.opts.Origin
	for i, rt := range r.jobs {
		out[i] = ScheduledJob{Job: rt.job, Worker: rt.worker, Start: rt.start, End: rt.end}
		if rt.end > maxEnd {
			maxEnd = rt.end
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].Worker != out[j].Worker {
			return out[i].Worker < out[j].Worker
		}
		// a zero-length job frees its worker at the instant it starts
		return out[i].End < out[j].End
	})

	return &Result{
		Jobs:            out,
		MakespanSeconds: maxEnd - r.opts.Origin,
		Heuristic:       r.opts.Heuristic,
		Workers:         r.opts.Workers,
		Origin:          r.opts.Origin,
		Iterations:      iterations,
	}
}
