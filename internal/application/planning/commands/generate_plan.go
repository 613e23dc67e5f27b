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
	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
	"github.com/andrescamacho/upgrade-planner/internal/domain/scheduling"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
	"github.com/andrescamacho/upgrade-planner/pkg/utils"
)

// GeneratePlanCommand builds and schedules the upgrades of one inventory snapshot
type GeneratePlanCommand struct {
	Snapshot *upgrade.Snapshot
	Settings planning.PlanSettings

	// Origin is the wall-clock start of the plan; zero means now
	Origin time.Time

	Label string
	Save  bool
}

// GeneratePlanResponse is the outcome of a planning run
type GeneratePlanResponse struct {
	RunID           string                      `json:"run_id"`
	Outcome         string                      `json:"outcome"`
	Reason          string                      `json:"reason,omitempty"`
	Heuristic       string                      `json:"heuristic"`
	Workers         int                         `json:"workers"`
	HallLevel       int                         `json:"hall_level"`
	TargetHallLevel int                         `json:"target_hall_level"`
	Origin          time.Time                   `json:"origin"`
	MakespanSeconds int64                       `json:"makespan_seconds"`
	Makespan        string                      `json:"makespan"`
	MakespanISO     string                      `json:"makespan_iso"`
	Jobs            []*planning.ScheduledJobDTO `json:"jobs"`
	Warnings        []string                    `json:"warnings,omitempty"`
	Saved           bool                        `json:"saved"`
}

// GeneratePlanHandler handles the GeneratePlan command
type GeneratePlanHandler struct {
	service *planning.PlanningService
	runRepo planrun.PlanRunRepository
	clock   shared.Clock
}

// NewGeneratePlanHandler creates a new GeneratePlanHandler.
// runRepo may be nil when plan history is not available; Save is then rejected.
func NewGeneratePlanHandler(
	service *planning.PlanningService,
	runRepo planrun.PlanRunRepository,
	clock shared.Clock,
) *GeneratePlanHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GeneratePlanHandler{
		service: service,
		runRepo: runRepo,
		clock:   clock,
	}
}

// Handle executes the GeneratePlan command
func (h *GeneratePlanHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*GeneratePlanCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GeneratePlanCommand")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cmd.Save && h.runRepo == nil {
		return nil, fmt.Errorf("plan history is not configured, cannot save the plan")
	}

	heuristic, err := scheduling.ParseHeuristic(cmd.Settings.Heuristic)
	if err != nil {
		return nil, err
	}

	runID := utils.GenerateRunID(string(heuristic))
	logger := logging.WithRunID(logging.LoggerFromContext(ctx), runID)
	logger.Log(logging.LevelInfo, "Planning run started", planning.DescribeSettings(cmd.Settings, heuristic))

	origin := cmd.Origin
	if origin.IsZero() {
		origin = h.clock.Now()
	}
	origin = origin.Truncate(time.Second)

	response := &GeneratePlanResponse{
		RunID:     runID,
		Heuristic: string(heuristic),
		Origin:    origin,
	}

	build, err := h.service.BuildJobs(cmd.Snapshot, cmd.Settings)
	if err != nil {
		var invalid *upgrade.InvalidInputError
		if errors.As(err, &invalid) {
			logger.Log(logging.LevelWarning, "Nothing to schedule", map[string]interface{}{"reason": invalid.Reason})
			return h.nothingToSchedule(response, invalid.Reason), nil
		}
		return nil, h.fail(logger, heuristic, "job build failed", err)
	}

	response.Warnings = warningMessages(build.Warnings)
	response.HallLevel = build.HallLevel
	response.TargetHallLevel = build.TargetHallLevel
	response.Workers = h.service.Workers(build, cmd.Settings)
	for _, w := range response.Warnings {
		logger.Log(logging.LevelWarning, w, nil)
	}

	if len(build.Jobs) == 0 {
		logger.Log(logging.LevelInfo, "Nothing to schedule", map[string]interface{}{"hall_level": build.HallLevel})
		return h.nothingToSchedule(response, "every structure is already at its maximum level"), nil
	}

	result, err := h.service.Schedule(build, cmd.Settings, heuristic, origin)
	if err != nil {
		return nil, h.fail(logger, heuristic, "scheduling failed", err)
	}

	response.Outcome = planning.OutcomeScheduled
	response.MakespanSeconds = result.MakespanSeconds
	response.Makespan = utils.FormatCompact(result.MakespanSeconds)
	response.MakespanISO = utils.FormatISO8601(result.MakespanSeconds)
	response.Jobs = planning.JobDTOsFromResult(result, origin)

	if cmd.Save {
		if err := h.save(ctx, cmd, response, result); err != nil {
			return nil, h.fail(logger, heuristic, "saving plan failed", err)
		}
		response.Saved = true
	}

	metrics.RecordPlanRun(metrics.PlanRunInfo{
		Heuristic:       response.Heuristic,
		Outcome:         response.Outcome,
		MakespanSeconds: response.MakespanSeconds,
		Jobs:            len(response.Jobs),
		Warnings:        len(response.Warnings),
		Iterations:      result.Iterations,
	})
	logger.Log(logging.LevelInfo, "Planning run finished", map[string]interface{}{
		"jobs":     len(response.Jobs),
		"workers":  response.Workers,
		"makespan": response.Makespan,
		"saved":    response.Saved,
	})
	return response, nil
}

func (h *GeneratePlanHandler) nothingToSchedule(response *GeneratePlanResponse, reason string) *GeneratePlanResponse {
	response.Outcome = planning.OutcomeNothingToSchedule
	response.Reason = reason
	response.Makespan = utils.FormatCompact(0)
	response.MakespanISO = utils.FormatISO8601(0)
	response.Jobs = []*planning.ScheduledJobDTO{}
	metrics.RecordPlanRun(metrics.PlanRunInfo{
		Heuristic: response.Heuristic,
		Outcome:   response.Outcome,
		Warnings:  len(response.Warnings),
	})
	return response
}

func (h *GeneratePlanHandler) fail(logger logging.RunLogger, heuristic scheduling.Heuristic, message string, err error) error {
	reason := planning.FailureReason(err)
	metrics.RecordPlanFailure(string(heuristic), reason)
	logger.Log(logging.LevelError, message, map[string]interface{}{
		"reason": reason,
		"error":  err.Error(),
	})
	return fmt.Errorf("%s: %w", message, err)
}

func (h *GeneratePlanHandler) save(
	ctx context.Context,
	cmd *GeneratePlanCommand,
	response *GeneratePlanResponse,
	result *scheduling.Result,
) error {
	run, err := planrun.NewPlanRun(planrun.NewPlanRunParams{
		ID:              response.RunID,
		Label:           cmd.Label,
		PlayerTag:       cmd.Snapshot.PlayerTag,
		Village:         string(cmd.Snapshot.VillageOrHome()),
		Heuristic:       response.Heuristic,
		Workers:         response.Workers,
		HallLevel:       response.HallLevel,
		TargetHallLevel: response.TargetHallLevel,
		BoostFraction:   cmd.Settings.BoostFraction,
		ActiveWindow:    cmd.Settings.WindowLabel(),
		Origin:          response.Origin,
		MakespanSeconds: response.MakespanSeconds,
		Warnings:        response.Warnings,
		Entries:         planrun.EntriesFromResult(result),
		CreatedAt:       h.clock.Now(),
	})
	if err != nil {
		return err
	}
	return h.runRepo.Save(ctx, run)
}

func warningMessages(warnings []error) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}
