package planning

import (
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// ScheduledJobDTO is one scheduled upgrade. Offsets are seconds from the plan origin.
type ScheduledJobDTO struct {
	ItemID       string `json:"item_id"`
	InstanceIter string `json:"instance_iter"`
	TargetLevel  int    `json:"target_level"`
	Priority     int    `json:"priority"`
	Hero         bool   `json:"hero,omitempty"`
	Worker       int    `json:"worker"`

	StartSeconds    int64 `json:"start_seconds"`
	EndSeconds      int64 `json:"end_seconds"`
	DurationSeconds int64 `json:"duration_seconds"`

	StartISO    string `json:"start_iso"`
	EndISO      string `json:"end_iso"`
	DurationISO string `json:"duration_iso"`

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// NewScheduledJobDTO converts a stored plan entry
func NewScheduledJobDTO(e planrun.ScheduledEntry, origin time.Time) *ScheduledJobDTO {
	return &ScheduledJobDTO{
		ItemID:          e.ItemID,
		InstanceIter:    e.InstanceIter,
		TargetLevel:     e.TargetLevel,
		Priority:        e.Priority,
		Hero:            e.Hero,
		Worker:          e.Worker,
		StartSeconds:    e.StartOffset,
		EndSeconds:      e.EndOffset,
		DurationSeconds: e.DurationSeconds(),
		StartISO:        utils.FormatISO8601(e.StartOffset),
		EndISO:          utils.FormatISO8601(e.EndOffset),
		DurationISO:     utils.FormatISO8601(e.DurationSeconds()),
		StartAt:         origin.Add(time.Duration(e.StartOffset) * time.Second),
		EndAt:           origin.Add(time.Duration(e.EndOffset) * time.Second),
	}
}

// JobDTOsFromResult converts a fresh schedule
func JobDTOsFromResult(result *scheduling.Result, origin time.Time) []*ScheduledJobDTO {
	entries := planrun.EntriesFromResult(result)
	return JobDTOsFromEntries(entries, origin)
}

// JobDTOsFromEntries converts stored plan entries
func JobDTOsFromEntries(entries []planrun.ScheduledEntry, origin time.Time) []*ScheduledJobDTO {
	out := make([]*ScheduledJobDTO, len(entries))
	for i, e := range entries {
		out[i] = NewScheduledJobDTO(e, origin)
	}
	return out
}

// PlanRunSummaryDTO is a plan-history listing row
type PlanRunSummaryDTO struct {
	ID              string    `json:"id"`
	Label           string    `json:"label,omitempty"`
	PlayerTag       string    `json:"player_tag,omitempty"`
	Village         string    `json:"village"`
	Heuristic       string    `json:"heuristic"`
	Workers         int       `json:"workers"`
	HallLevel       int       `json:"hall_level"`
	TargetHallLevel int       `json:"target_hall_level"`
	BoostFraction   float64   `json:"boost_fraction"`
	ActiveWindow    string    `json:"active_window,omitempty"`
	Jobs            int       `json:"jobs"`
	MakespanSeconds int64     `json:"makespan_seconds"`
	Makespan        string    `json:"makespan"`
	Origin          time.Time `json:"origin"`
	FinishesAt      time.Time `json:"finishes_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// PlanRunDTO is a stored plan with its schedule
type PlanRunDTO struct {
	PlanRunSummaryDTO
	Warnings []string           `json:"warnings,omitempty"`
	Entries  []*ScheduledJobDTO `json:"jobs"`
}

// NewPlanRunSummaryDTO converts a plan run without its entries
func NewPlanRunSummaryDTO(run *planrun.PlanRun) *PlanRunSummaryDTO {
	return &PlanRunSummaryDTO{
		ID:              run.ID(),
		Label:           run.Label(),
		PlayerTag:       run.PlayerTag(),
		Village:         run.Village(),
		Heuristic:       run.Heuristic(),
		Workers:         run.Workers(),
		HallLevel:       run.HallLevel(),
		TargetHallLevel: run.TargetHallLevel(),
		BoostFraction:   run.BoostFraction(),
		ActiveWindow:    run.ActiveWindow(),
		Jobs:            run.JobCount(),
		MakespanSeconds: run.MakespanSeconds(),
		Makespan:        utils.FormatCompact(run.MakespanSeconds()),
		Origin:          run.Origin(),
		FinishesAt:      run.FinishesAt(),
		CreatedAt:       run.CreatedAt(),
	}
}

// NewPlanRunDTO converts a plan run with its entries
func NewPlanRunDTO(run *planrun.PlanRun) *PlanRunDTO {
	return &PlanRunDTO{
		PlanRunSummaryDTO: *NewPlanRunSummaryDTO(run),
		Warnings:          run.Warnings(),
		Entries:           JobDTOsFromEntries(run.Entries(), run.Origin()),
	}
}
