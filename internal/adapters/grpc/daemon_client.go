package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/upgrade-planner/internal/application/planning/commands"
	"github.com/andrescamacho/upgrade-planner/internal/application/planning/queries"
)

// DaemonClient talks to a running planner daemon
type DaemonClient struct {
	conn   *grpc.ClientConn
	target string
}

// NewDaemonClient creates a client for the daemon's Unix socket
func NewDaemonClient(socketPath string) (*DaemonClient, error) {
	return NewDaemonClientWithOptions("unix:"+socketPath, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// NewDaemonClientWithOptions dials an arbitrary target (used by tests with bufconn)
func NewDaemonClientWithOptions(target string, opts ...grpc.DialOption) (*DaemonClient, error) {
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}
	return &DaemonClient{conn: conn, target: target}, nil
}

// Close releases the connection
func (c *DaemonClient) Close() error {
	return c.conn.Close()
}

// GeneratePlan asks the daemon to build and schedule a plan
func (c *DaemonClient) GeneratePlan(ctx context.Context, req *PlanRequest) (*commands.GeneratePlanResponse, error) {
	var out commands.GeneratePlanResponse
	if err := c.invoke(ctx, methodGeneratePlan, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompareHeuristics asks the daemon to schedule with every heuristic
func (c *DaemonClient) CompareHeuristics(ctx context.Context, req *PlanRequest) (*commands.CompareHeuristicsResponse, error) {
	var out commands.CompareHeuristicsResponse
	if err := c.invoke(ctx, methodCompareHeuristics, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRuns lists stored plans
func (c *DaemonClient) ListRuns(ctx context.Context, req *ListRunsRequest) (*queries.ListPlanRunsResponse, error) {
	var out queries.ListPlanRunsResponse
	if err := c.invoke(ctx, methodListRuns, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRun fetches one stored plan with its schedule
func (c *DaemonClient) GetRun(ctx context.Context, id string) (*queries.GetPlanRunResponse, error) {
	var out queries.GetPlanRunResponse
	if err := c.invoke(ctx, methodGetRun, &GetRunRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the daemon is serving
func (c *DaemonClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.invoke(ctx, methodHealth, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DaemonClient) invoke(ctx context.Context, method string, req, out interface{}) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, reply); err != nil {
		return err
	}
	return fromStruct(reply, out)
}
