package upgrade

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// Priority ranks jobs for scheduling; lower values are scheduled first
type Priority int

const (
	// PriorityInProgress - the in-game timer is already running, resume immediately
	PriorityInProgress Priority = 1

	// PriorityNewConstruction - first step of a structure that does not exist yet
	PriorityNewConstruction Priority = 2

	// PriorityDefault - ordinary upgrade
	PriorityDefault Priority = 100
)

// IsReserved returns true for the values with special scheduling meaning
func (p Priority) IsReserved() bool {
	return p == PriorityInProgress || p == PriorityNewConstruction
}

const keySeparator = "|"

// JobKey identifies a job inside one job set: itemId|instanceIter|targetLevel
type JobKey string

// NewJobKey builds the key for an item instance at a target level
func NewJobKey(itemID, instanceIter string, targetLevel int) JobKey {
	return JobKey(fmt.Sprintf("%s%s%s%s%d", itemID, keySeparator, instanceIter, keySeparator, targetLevel))
}

// Job is one level-upgrade step for one structure or hero instance.
//
// Jobs are built once per planning run from a snapshot and are never mutated by the
// scheduler; scheduling output is carried separately.
type Job struct {
	itemID          string
	instanceIter    string
	targetLevel     int
	durationSeconds int64
	priority        Priority
	hero            bool
	predecessors    []JobKey
}

// NewJob validates and creates a job.
// Item and instance identifiers may not contain the key separator so keys never collide.
func NewJob(itemID, instanceIter string, targetLevel int, durationSeconds int64, priority Priority, predecessors ...JobKey) (*Job, error) {
	if itemID == "" {
		return nil, shared.NewValidationError("itemId", "must not be empty")
	}
	if strings.Contains(itemID, keySeparator) {
		return nil, shared.NewValidationError("itemId", fmt.Sprintf("must not contain %q", keySeparator))
	}
	if instanceIter == "" {
		return nil, shared.NewValidationError("instanceIter", "must not be empty")
	}
	if strings.Contains(instanceIter, keySeparator) {
		return nil, shared.NewValidationError("instanceIter", fmt.Sprintf("must not contain %q", keySeparator))
	}
	if targetLevel < 1 {
		return nil, shared.NewValidationError("targetLevel", fmt.Sprintf("must be >= 1, got %d", targetLevel))
	}
	if durationSeconds < 0 {
		return nil, shared.NewValidationError("durationSeconds", fmt.Sprintf("must be >= 0, got %d", durationSeconds))
	}
	if priority < PriorityInProgress {
		return nil, shared.NewValidationError("priority", fmt.Sprintf("must be >= %d, got %d", PriorityInProgress, priority))
	}

	job := &Job{
		itemID:          itemID,
		instanceIter:    instanceIter,
		targetLevel:     targetLevel,
		durationSeconds: durationSeconds,
		priority:        priority,
	}
	for _, p := range predecessors {
		job.addPredecessor(p)
	}
	return job, nil
}

// MustNewJob is NewJob for fixtures with known-good arguments
func MustNewJob(itemID, instanceIter string, targetLevel int, durationSeconds int64, priority Priority, predecessors ...JobKey) *Job {
	job, err := NewJob(itemID, instanceIter, targetLevel, durationSeconds, priority, predecessors...)
	if err != nil {
		panic(err)
	}
	return job
}

// Getters
func (j *Job) ItemID() string         { return j.itemID }
func (j *Job) InstanceIter() string   { return j.instanceIter }
func (j *Job) TargetLevel() int       { return j.targetLevel }
func (j *Job) DurationSeconds() int64 { return j.durationSeconds }
func (j *Job) Priority() Priority     { return j.priority }
func (j *Job) IsHero() bool           { return j.hero }

// Key returns the job identity within its set
func (j *Job) Key() JobKey {
	return NewJobKey(j.itemID, j.instanceIter, j.targetLevel)
}

// PreviousLevelKey is the key of the same-instance step this job follows
func (j *Job) PreviousLevelKey() JobKey {
	return NewJobKey(j.itemID, j.instanceIter, j.targetLevel-1)
}

// Predecessors returns a copy of the explicit predecessor keys
func (j *Job) Predecessors() []JobKey {
	out := make([]JobKey, len(j.predecessors))
	copy(out, j.predecessors)
	return out
}

// IsInProgress returns true if the job resumes a running in-game timer
func (j *Job) IsInProgress() bool {
	return j.priority == PriorityInProgress
}

func (j *Job) String() string {
	return fmt.Sprintf("%s %s L%d (%ds, p%d)", j.itemID, j.instanceIter, j.targetLevel, j.durationSeconds, j.priority)
}

func (j *Job) addPredecessor(key JobKey) {
	if key == "" || key == j.Key() {
		return
	}
	for _, existing := range j.predecessors {
		if existing == key {
			return
		}
	}
	j.predecessors = append(j.predecessors, key)
}
