package scheduling

import (
	"container/heap"

	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// readyQueue implements heap.Interface over ready jobs; the best job by the
// heuristic's total order is popped first
type readyQueue struct {
	items     []*runtimeJob
	heuristic Heuristic
}

func newReadyQueue(h Heuristic) *readyQueue {
	return &readyQueue{heuristic: h}
}

func (q *readyQueue) Len() int { return len(q.items) }

// Less orders by priority, then duration (direction set by the heuristic), earliest
// start, instance identifier and insertion index. In-progress jobs skip the duration
// comparison and keep first-come order.
func (q *readyQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]

	if a.job.Priority() != b.job.Priority() {
		return a.job.Priority() < b.job.Priority()
	}
	if a.job.Priority() == upgrade.PriorityInProgress {
		if a.earliestStart != b.earliestStart {
			return a.earliestStart < b.earliestStart
		}
		return a.index < b.index
	}

	da, db := a.job.DurationSeconds(), b.job.DurationSeconds()
	if da != db {
		if q.heuristic == HeuristicLPT {
			return da > db
		}
		return da < db
	}
	if a.earliestStart != b.earliestStart {
		return a.earliestStart < b.earliestStart
	}
	if c := upgrade.CompareIters(a.job.InstanceIter(), b.job.InstanceIter()); c != 0 {
		return c < 0
	}
	return a.index < b.index
}

func (q *readyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

// Push is called by heap.Push
func (q *readyQueue) Push(x any) { q.items = append(q.items, x.(*runtimeJob)) }

// Pop is called by heap.Pop
func (q *readyQueue) Pop() any {
	n := len(q.items)
	rt := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return rt
}

func (q *readyQueue) push(rt *runtimeJob) { heap.Push(q, rt) }
func (q *readyQueue) pop() *runtimeJob    { return heap.Pop(q).(*runtimeJob) }
func (q *readyQueue) peek() *runtimeJob   { return q.items[0] }

// runningQueue pops the job that finishes first, lowest worker on ties
type runningQueue []*runtimeJob

func (q runningQueue) Len() int { return len(q) }

func (q runningQueue) Less(i, j int) bool {
	if q[i].end != q[j].end {
		return q[i].end < q[j].end
	}
	return q[i].worker < q[j].worker
}

func (q runningQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *runningQueue) Push(x any) { *q = append(*q, x.(*runtimeJob)) }

func (q *runningQueue) Pop() any {
	old := *q
	n := len(old)
	rt := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return rt
}

func (q *runningQueue) nextEnd() int64 { return (*q)[0].end }
