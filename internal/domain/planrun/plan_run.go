package planrun

import (
	"fmt"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
)

// ScheduledEntry is one stored line of a plan. Offsets are seconds from the run origin.
type ScheduledEntry struct {
	ItemID       string
	InstanceIter string
	TargetLevel  int
	Priority     int
	Hero         bool
	Worker       int
	StartOffset  int64
	EndOffset    int64
}

// DurationSeconds returns the entry's length
func (e ScheduledEntry) DurationSeconds() int64 {
	return e.EndOffset - e.StartOffset
}

// EntriesFromResult converts a schedule into origin-relative entries
func EntriesFromResult(result *scheduling.Result) []ScheduledEntry {
	out := make([]ScheduledEntry, 0, len(result.Jobs))
	for _, s := range result.Jobs {
		out = append(out, ScheduledEntry{
			ItemID:       s.Job.ItemID(),
			InstanceIter: s.Job.InstanceIter(),
			TargetLevel:  s.Job.TargetLevel(),
			Priority:     int(s.Job.Priority()),
			Hero:         s.Job.IsHero(),
			Worker:       s.Worker,
			StartOffset:  s.Start - result.Origin,
			EndOffset:    s.End - result.Origin,
		})
	}
	return out
}

// NewPlanRunParams carries the values of a freshly generated plan
type NewPlanRunParams struct {
	ID              string
	Label           string
	PlayerTag       string
	Village         string
	Heuristic       string
	Workers         int
	HallLevel       int
	TargetHallLevel int
	BoostFraction   float64
	ActiveWindow    string
	Origin          time.Time
	MakespanSeconds int64
	Warnings        []string
	Entries         []ScheduledEntry
	CreatedAt       time.Time

	// JobCount is only read when Entries is empty, for runs listed without their schedule
	JobCount int
}

// PlanRun is a stored planning result, kept so earlier plans can be compared and reviewed
type PlanRun struct {
	id              string
	label           string
	playerTag       string
	village         string
	heuristic       string
	workers         int
	hallLevel       int
	targetHallLevel int
	boostFraction   float64
	activeWindow    string
	origin          time.Time
	makespanSeconds int64
	warnings        []string
	entries         []ScheduledEntry
	jobCount        int
	createdAt       time.Time
}

// NewPlanRun validates and creates a plan run
func NewPlanRun(p NewPlanRunParams) (*PlanRun, error) {
	run := ReconstructPlanRun(p)
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return run, nil
}

// ReconstructPlanRun rebuilds a plan run from persistence without validation
func ReconstructPlanRun(p NewPlanRunParams) *PlanRun {
	jobCount := p.JobCount
	if len(p.Entries) > 0 {
		jobCount = len(p.Entries)
	}
	return &PlanRun{
		id:              p.ID,
		label:           p.Label,
		playerTag:       p.PlayerTag,
		village:         p.Village,
		heuristic:       p.Heuristic,
		workers:         p.Workers,
		hallLevel:       p.HallLevel,
		targetHallLevel: p.TargetHallLevel,
		boostFraction:   p.BoostFraction,
		activeWindow:    p.ActiveWindow,
		origin:          p.Origin,
		makespanSeconds: p.MakespanSeconds,
		warnings:        append([]string(nil), p.Warnings...),
		entries:         append([]ScheduledEntry(nil), p.Entries...),
		jobCount:        jobCount,
		createdAt:       p.CreatedAt,
	}
}

// Validate checks the run is internally consistent
func (r *PlanRun) Validate() error {
	if r.id == "" {
		return &ErrInvalidPlanRun{Field: "id", Reason: "id cannot be empty"}
	}
	if r.heuristic == "" {
		return &ErrInvalidPlanRun{Field: "heuristic", Reason: "heuristic cannot be empty"}
	}
	if r.workers < 1 && len(r.entries) > 0 {
		return &ErrInvalidPlanRun{Field: "workers", Reason: fmt.Sprintf("a plan with jobs needs workers, got %d", r.workers)}
	}
	if r.makespanSeconds < 0 {
		return &ErrInvalidPlanRun{Field: "makespan", Reason: "makespan cannot be negative"}
	}

	var last int64
	for i, e := range r.entries {
		if e.EndOffset < e.StartOffset {
			return &ErrInvalidPlanRun{Field: "entries", Reason: fmt.Sprintf("entry %d ends before it starts", i)}
		}
		if e.EndOffset > last {
			last = e.EndOffset
		}
	}
	if last != r.makespanSeconds {
		return &ErrInvalidPlanRun{
			Field:  "makespan",
			Reason: fmt.Sprintf("makespan %d does not match last entry end %d", r.makespanSeconds, last),
		}
	}
	return nil
}

// Getters

func (r *PlanRun) ID() string             { return r.id }
func (r *PlanRun) Label() string          { return r.label }
func (r *PlanRun) PlayerTag() string      { return r.playerTag }
func (r *PlanRun) Village() string        { return r.village }
func (r *PlanRun) Heuristic() string      { return r.heuristic }
func (r *PlanRun) Workers() int           { return r.workers }
func (r *PlanRun) HallLevel() int         { return r.hallLevel }
func (r *PlanRun) TargetHallLevel() int   { return r.targetHallLevel }
func (r *PlanRun) BoostFraction() float64 { return r.boostFraction }
func (r *PlanRun) ActiveWindow() string   { return r.activeWindow }
func (r *PlanRun) Origin() time.Time      { return r.origin }
func (r *PlanRun) MakespanSeconds() int64 { return r.makespanSeconds }
func (r *PlanRun) CreatedAt() time.Time   { return r.createdAt }
func (r *PlanRun) JobCount() int          { return r.jobCount }

func (r *PlanRun) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

func (r *PlanRun) Entries() []ScheduledEntry {
	return append([]ScheduledEntry(nil), r.entries...)
}

// FinishesAt returns the wall-clock time the last job completes
func (r *PlanRun) FinishesAt() time.Time {
	return r.origin.Add(time.Duration(r.makespanSeconds) * time.Second)
}
