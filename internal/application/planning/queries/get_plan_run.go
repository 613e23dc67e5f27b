package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
)

// GetPlanRunQuery retrieves one stored plan with its schedule
type GetPlanRunQuery struct {
	ID string
}

// GetPlanRunResponse represents the result of the query
type GetPlanRunResponse struct {
	Run *planning.PlanRunDTO `json:"run"`
}

// GetPlanRunHandler handles the GetPlanRun query
type GetPlanRunHandler struct {
	runRepo planrun.PlanRunRepository
}

// NewGetPlanRunHandler creates a new GetPlanRunHandler
func NewGetPlanRunHandler(runRepo planrun.PlanRunRepository) *GetPlanRunHandler {
	return &GetPlanRunHandler{runRepo: runRepo}
}

// Handle executes the GetPlanRun query. Unknown ids fail with *planrun.ErrPlanRunNotFound.
func (h *GetPlanRunHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetPlanRunQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetPlanRunQuery")
	}
	if query.ID == "" {
		return nil, fmt.Errorf("plan run id is required")
	}

	run, err := h.runRepo.FindByID(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	return &GetPlanRunResponse{Run: planning.NewPlanRunDTO(run)}, nil
}
