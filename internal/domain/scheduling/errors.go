package scheduling

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// DeadlockError indicates jobs that can never become ready: a predecessor cycle
// or a predecessor key that is not part of the job set
type DeadlockError struct {
	Time    int64
	Blocked []upgrade.JobKey
	Missing []upgrade.JobKey
}

func (e *DeadlockError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("deadlock: unknown predecessors %s", joinKeys(e.Missing))
	}
	return fmt.Sprintf("deadlock at t=%d: %d jobs have unmet predecessors (%s)", e.Time, len(e.Blocked), joinKeys(e.Blocked))
}

// LoopOverflowError indicates the simulation exceeded its iteration cap
type LoopOverflowError struct {
	Limit     int
	Completed int
	Total     int
}

func (e *LoopOverflowError) Error() string {
	return fmt.Sprintf("scheduling exceeded %d iterations with %d/%d jobs completed", e.Limit, e.Completed, e.Total)
}

// ErrInvalidJobTransition indicates an illegal runtime state change of a job
type ErrInvalidJobTransition struct {
	Key  upgrade.JobKey
	From JobState
	To   JobState
}

func (e *ErrInvalidJobTransition) Error() string {
	return fmt.Sprintf("invalid job transition for %s: %s -> %s", e.Key, e.From, e.To)
}

func joinKeys(keys []upgrade.JobKey) string {
	const shown = 5
	parts := make([]string, 0, shown+1)
	for i, k := range keys {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(keys)-shown))
			break
		}
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}
