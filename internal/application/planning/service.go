package planning

import (
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/catalog"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// PlanningService runs the two planning stages shared by the plan commands:
// expanding a snapshot into jobs, then scheduling those jobs.
type PlanningService struct {
	catalog catalog.Catalog
	builder *upgrade.JobBuilder
}

// NewPlanningService creates a service backed by the given catalog
func NewPlanningService(c catalog.Catalog) *PlanningService {
	return &PlanningService{
		catalog: c,
		builder: upgrade.NewJobBuilder(c),
	}
}

// Catalog returns the catalog the service plans against
func (s *PlanningService) Catalog() catalog.Catalog {
	return s.catalog
}

// BuildJobs expands a snapshot into the job set described by settings
func (s *PlanningService) BuildJobs(snapshot *upgrade.Snapshot, settings PlanSettings) (*upgrade.BuildResult, error) {
	return s.builder.Build(snapshot, upgrade.BuildOptions{
		BoostFraction:    settings.BoostFraction,
		UseFixedPriority: settings.UseFixedPriority,
		PriorityTable:    ResolvePriorityTable(s.catalog, settings.PriorityTable),
		DefaultPriority:  upgrade.Priority(settings.DefaultPriority),
		TargetHallLevel:  settings.TargetHallLevel,
	})
}

// Workers returns the worker pool size for a build, honouring the override
func (s *PlanningService) Workers(build *upgrade.BuildResult, settings PlanSettings) int {
	if settings.WorkerOverride > 0 {
		return settings.WorkerOverride
	}
	return build.Workers
}

// Schedule places a build's jobs on the worker pool starting at origin
func (s *PlanningService) Schedule(
	build *upgrade.BuildResult,
	settings PlanSettings,
	heuristic scheduling.Heuristic,
	origin time.Time,
) (*scheduling.Result, error) {
	window, err := settings.ActiveWindow()
	if err != nil {
		return nil, err
	}

	scheduler := scheduling.NewScheduler()
	if settings.IterationFactor > 0 {
		scheduler = scheduler.WithIterationFactor(settings.IterationFactor)
	}

	return scheduler.Schedule(build.Jobs, scheduling.Options{
		Workers:   s.Workers(build, settings),
		Heuristic: heuristic,
		Window:    window,
		Origin:    origin.Unix(),
	})
}
