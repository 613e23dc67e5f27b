package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/adapters/metrics"
	"github.com/andrescamacho/upgrade-planner/internal/application/logging"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// CompareHeuristicsCommand schedules one job set with every heuristic.
// Settings.Heuristic is ignored.
type CompareHeuristicsCommand struct {
	Snapshot *upgrade.Snapshot
	Settings planning.PlanSettings
	Origin   time.Time
}

// HeuristicSummary is one heuristic's result in a comparison
type HeuristicSummary struct {
	Heuristic       string                      `json:"heuristic"`
	MakespanSeconds int64                       `json:"makespan_seconds"`
	Makespan        string                      `json:"makespan"`
	Jobs            []*planning.ScheduledJobDTO `json:"jobs"`
}

// CompareHeuristicsResponse lists every heuristic's makespan and names the shortest
type CompareHeuristicsResponse struct {
	Outcome  string              `json:"outcome"`
	Reason   string              `json:"reason,omitempty"`
	Workers  int                 `json:"workers"`
	Origin   time.Time           `json:"origin"`
	Results  []*HeuristicSummary `json:"results"`
	Best     string              `json:"best,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

// CompareHeuristicsHandler handles the CompareHeuristics command
type CompareHeuristicsHandler struct {
	service *planning.PlanningService
	clock   shared.Clock
}

// NewCompareHeuristicsHandler creates a new CompareHeuristicsHandler
func NewCompareHeuristicsHandler(service *planning.PlanningService, clock shared.Clock) *CompareHeuristicsHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CompareHeuristicsHandler{service: service, clock: clock}
}

// Handle executes the CompareHeuristics command.
// Ties go to the heuristic listed first by scheduling.AllHeuristics.
func (h *CompareHeuristicsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*CompareHeuristicsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CompareHeuristicsCommand")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.LoggerFromContext(ctx)
	origin := cmd.Origin
	if origin.IsZero() {
		origin = h.clock.Now()
	}
	origin = origin.Truncate(time.Second)

	response := &CompareHeuristicsResponse{Origin: origin, Results: []*HeuristicSummary{}}

	build, err := h.service.BuildJobs(cmd.Snapshot, cmd.Settings)
	if err != nil {
		var invalid *upgrade.InvalidInputError
		if errors.As(err, &invalid) {
			response.Outcome = planning.OutcomeNothingToSchedule
			response.Reason = invalid.Reason
			return response, nil
		}
		return nil, fmt.Errorf("job build failed: %w", err)
	}
	response.Warnings = warningMessages(build.Warnings)
	response.Workers = h.service.Workers(build, cmd.Settings)

	if len(build.Jobs) == 0 {
		response.Outcome = planning.OutcomeNothingToSchedule
		response.Reason = "every structure is already at its maximum level"
		return response, nil
	}

	var best *HeuristicSummary
	for _, heuristic := range scheduling.AllHeuristics() {
		result, err := h.service.Schedule(build, cmd.Settings, heuristic, origin)
		if err != nil {
			metrics.RecordPlanFailure(string(heuristic), planning.FailureReason(err))
			return nil, fmt.Errorf("%s scheduling failed: %w", heuristic, err)
		}
		metrics.RecordPlanRun(metrics.PlanRunInfo{
			Heuristic:       string(heuristic),
			Outcome:         planning.OutcomeScheduled,
			MakespanSeconds: result.MakespanSeconds,
			Jobs:            len(result.Jobs),
			Warnings:        len(build.Warnings),
			Iterations:      result.Iterations,
		})

		summary := &HeuristicSummary{
			Heuristic:       string(heuristic),
			MakespanSeconds: result.MakespanSeconds,
			Makespan:        utils.FormatCompact(result.MakespanSeconds),
			Jobs:            planning.JobDTOsFromResult(result, origin),
		}
		response.Results = append(response.Results, summary)
		if best == nil || summary.MakespanSeconds < best.MakespanSeconds {
			best = summary
		}
	}

	response.Outcome = planning.OutcomeScheduled
	response.Best = best.Heuristic
	logger.Log(logging.LevelInfo, "Heuristic comparison finished", map[string]interface{}{
		"best":     response.Best,
		"makespan": best.Makespan,
		"jobs":     len(build.Jobs),
	})
	return response, nil
}
