package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
)

// ListPlanRunsQuery represents a query to list stored plans, newest first
type ListPlanRunsQuery struct {
	PlayerTag string
	Heuristic string
	Limit     int
	Offset    int
}

// ListPlanRunsResponse represents the result of the query
type ListPlanRunsResponse struct {
	Runs []*planning.PlanRunSummaryDTO `json:"runs"`
}

// ListPlanRunsHandler handles the ListPlanRuns query
type ListPlanRunsHandler struct {
	runRepo planrun.PlanRunRepository
}

// NewListPlanRunsHandler creates a new ListPlanRunsHandler
func NewListPlanRunsHandler(runRepo planrun.PlanRunRepository) *ListPlanRunsHandler {
	return &ListPlanRunsHandler{runRepo: runRepo}
}

// Handle executes the ListPlanRuns query
func (h *ListPlanRunsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListPlanRunsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListPlanRunsQuery")
	}

	opts := planrun.DefaultQueryOptions()
	opts.PlayerTag = query.PlayerTag
	opts.Heuristic = strings.ToUpper(strings.TrimSpace(query.Heuristic))
	if query.Limit > 0 {
		opts.Limit = query.Limit
	}
	if query.Offset > 0 {
		opts.Offset = query.Offset
	}

	runs, err := h.runRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}

	dtos := make([]*planning.PlanRunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = planning.NewPlanRunSummaryDTO(run)
	}
	return &ListPlanRunsResponse{Runs: dtos}, nil
}
