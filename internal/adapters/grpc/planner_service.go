package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// PlannerServiceName is the fully qualified gRPC service name
const PlannerServiceName = "upgradeplanner.v1.PlannerService"

// Method paths used by the client
const (
	methodGeneratePlan      = "/" + PlannerServiceName + "/GeneratePlan"
	methodCompareHeuristics = "/" + PlannerServiceName + "/CompareHeuristics"
	methodListRuns          = "/" + PlannerServiceName + "/ListRuns"
	methodGetRun            = "/" + PlannerServiceName + "/GetRun"
	methodHealth            = "/" + PlannerServiceName + "/Health"
)

// PlannerServiceServer is the daemon's RPC surface. Payloads travel as
// google.protobuf.Struct holding the JSON form of the application DTOs.
type PlannerServiceServer interface {
	GeneratePlan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompareHeuristics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPlannerServiceServer registers the service implementation with a gRPC server
func RegisterPlannerServiceServer(s grpc.ServiceRegistrar, srv PlannerServiceServer) {
	s.RegisterService(&plannerServiceDesc, srv)
}

func unaryHandler(method string, call func(PlannerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlannerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PlannerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var plannerServiceDesc = grpc.ServiceDesc{
	ServiceName: PlannerServiceName,
	HandlerType: (*PlannerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GeneratePlan",
			Handler:    unaryHandler(methodGeneratePlan, PlannerServiceServer.GeneratePlan),
		},
		{
			MethodName: "CompareHeuristics",
			Handler:    unaryHandler(methodCompareHeuristics, PlannerServiceServer.CompareHeuristics),
		},
		{
			MethodName: "ListRuns",
			Handler:    unaryHandler(methodListRuns, PlannerServiceServer.ListRuns),
		},
		{
			MethodName: "GetRun",
			Handler:    unaryHandler(methodGetRun, PlannerServiceServer.GetRun),
		},
		{
			MethodName: "Health",
			Handler:    unaryHandler(methodHealth, PlannerServiceServer.Health),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "upgradeplanner/v1/planner.proto",
}
