package planning

import (
	"errors"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// Outcome of a planning request
const (
	OutcomeScheduled         = "SCHEDULED"
	OutcomeNothingToSchedule = "NOTHING_TO_SCHEDULE"
)

// WindowSettings is an active-time window as entered by the user
type WindowSettings struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone,omitempty"`
}

// PlanSettings are the user-facing knobs of one planning run
type PlanSettings struct {
	Heuristic        string         `json:"heuristic"`
	BoostFraction    float64        `json:"boost_fraction"`
	UseFixedPriority bool           `json:"fixed_priority"`
	PriorityTable    map[string]int `json:"priority_table,omitempty"`
	DefaultPriority  int            `json:"default_priority,omitempty"`
	TargetHallLevel  int            `json:"target_hall_level,omitempty"`

	// WorkerOverride replaces the worker count derived from the inventory when positive
	WorkerOverride  int `json:"worker_override,omitempty"`
	IterationFactor int `json:"iteration_factor,omitempty"`

	// Window is nil when the active-time gate is off
	Window *WindowSettings `json:"window,omitempty"`
}

// ActiveWindow converts the window settings into the scheduler's gate
func (s PlanSettings) ActiveWindow() (*scheduling.ActiveWindow, error) {
	if s.Window == nil {
		return nil, nil
	}
	location := time.UTC
	if tz := strings.TrimSpace(s.Window.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, shared.NewConfigurationError("active window timezone", err.Error())
		}
		location = loc
	}
	return scheduling.NewActiveWindow(s.Window.Start, s.Window.End, location)
}

// WindowLabel renders the window for storage and display ("" when off)
func (s PlanSettings) WindowLabel() string {
	if s.Window == nil {
		return ""
	}
	label := s.Window.Start + "-" + s.Window.End
	if s.Window.Timezone != "" {
		label += " " + s.Window.Timezone
	}
	return label
}

// ResolvePriorityTable maps priority-table keys onto catalog item ids ignoring case.
// Config loaders lowercase map keys, so "cannon" must still find "Cannon".
// Keys that match no catalog item are kept as given.
func ResolvePriorityTable(c catalog.Catalog, table map[string]int) map[string]int {
	if len(table) == 0 {
		return nil
	}

	known := make(map[string]string)
	for _, village := range []catalog.Village{catalog.VillageHome, catalog.VillageBuilder} {
		for _, item := range c.Items(village) {
			known[strings.ToLower(item.ID)] = item.ID
		}
	}

	resolved := make(map[string]int, len(table))
	for key, priority := range table {
		if _, exact := c.Item(key); exact {
			resolved[key] = priority
			continue
		}
		if id, ok := known[strings.ToLower(strings.TrimSpace(key))]; ok {
			if _, taken := resolved[id]; !taken {
				resolved[id] = priority
			}
			continue
		}
		resolved[key] = priority
	}
	return resolved
}

// FailureReason classifies a planning error for metrics and logs
func FailureReason(err error) string {
	var (
		deadlock     *scheduling.DeadlockError
		overflow     *scheduling.LoopOverflowError
		config       *shared.ConfigurationError
		inconsistent *upgrade.DataInconsistencyError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &deadlock):
		return "deadlock"
	case errors.As(err, &overflow):
		return "loop_overflow"
	case errors.As(err, &config):
		return "configuration"
	case errors.As(err, &inconsistent):
		return "data_inconsistency"
	default:
		return "internal"
	}
}

// DescribeSettings returns log metadata for a run's settings
func DescribeSettings(s PlanSettings, heuristic scheduling.Heuristic) map[string]interface{} {
	meta := map[string]interface{}{
		"heuristic":      string(heuristic),
		"boost_fraction": s.BoostFraction,
		"fixed_priority": s.UseFixedPriority,
	}
	if s.WorkerOverride > 0 {
		meta["worker_override"] = s.WorkerOverride
	}
	if s.TargetHallLevel > 0 {
		meta["target_hall_level"] = s.TargetHallLevel
	}
	if s.Window != nil {
		meta["active_window"] = s.WindowLabel()
	}
	return meta
}
