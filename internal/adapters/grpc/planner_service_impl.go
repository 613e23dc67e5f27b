package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
)

// plannerServiceImpl bridges gRPC requests to the mediator
type plannerServiceImpl struct {
	daemon *DaemonServer
}

func newPlannerServiceImpl(daemon *DaemonServer) *plannerServiceImpl {
	return &plannerServiceImpl{daemon: daemon}
}

func (s *plannerServiceImpl) GeneratePlan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req PlanRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	release, err := s.daemon.acquirePlanSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := s.daemon.mediator.Send(ctx, &commands.GeneratePlanCommand{
		Snapshot: req.Snapshot,
		Settings: req.Settings,
		Origin:   req.Origin,
		Label:    req.Label,
		Save:     req.Save,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(resp)
}

func (s *plannerServiceImpl) CompareHeuristics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req PlanRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	release, err := s.daemon.acquirePlanSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := s.daemon.mediator.Send(ctx, &commands.CompareHeuristicsCommand{
		Snapshot: req.Snapshot,
		Settings: req.Settings,
		Origin:   req.Origin,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(resp)
}

func (s *plannerServiceImpl) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListRunsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	resp, err := s.daemon.mediator.Send(ctx, &queries.ListPlanRunsQuery{
		PlayerTag: req.PlayerTag,
		Heuristic: req.Heuristic,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(resp)
}

func (s *plannerServiceImpl) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetRunRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}

	resp, err := s.daemon.mediator.Send(ctx, &queries.GetPlanRunQuery{ID: req.ID})
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(resp)
}

func (s *plannerServiceImpl) Health(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(s.daemon.health())
}

func (s *plannerServiceImpl) reply(v interface{}) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}
