package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning"
	"github.com/andrescamacho/upgrade-planner/internal/domain/planrun"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
	"github.com/andrescamacho/upgrade-planner/internal/domain/upgrade"
)

// PlanRequest is the GeneratePlan and CompareHeuristics payload
type PlanRequest struct {
	Snapshot *upgrade.Snapshot     `json:"snapshot"`
	Settings planning.PlanSettings `json:"settings"`
	Origin   time.Time             `json:"origin"`
	Label    string                `json:"label,omitempty"`
	Save     bool                  `json:"save,omitempty"`
}

// ListRunsRequest is the ListRuns payload
type ListRunsRequest struct {
	PlayerTag string `json:"player_tag,omitempty"`
	Heuristic string `json:"heuristic,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// GetRunRequest is the GetRun payload
type GetRunRequest struct {
	ID string `json:"id"`
}

// HealthResponse reports daemon status
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	PID          int    `json:"pid"`
	ActivePlans  int    `json:"active_plans"`
	MaxPlans     int    `json:"max_plans"`
	UptimeSecond int64  `json:"uptime_seconds"`
}

// toStruct converts a JSON-serialisable value into a protobuf Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return s, nil
}

// fromStruct decodes a protobuf Struct into out
func fromStruct(s *structpb.Struct, out interface{}) error {
	if s == nil {
		return fmt.Errorf("empty payload")
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// toStatus maps application errors onto gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var cfgErr *shared.ConfigurationError
	var notFound *planrun.ErrPlanRunNotFound
	var inconsistent *upgrade.DataInconsistencyError
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &cfgErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &notFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &inconsistent):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
