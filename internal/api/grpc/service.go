package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "worklog.v1.ActivityService"

// ActivityServiceServer is the server API for the activity service. Messages
// are google.protobuf.Struct values carrying the same JSON shapes as the HTTP API.
type ActivityServiceServer interface {
	SubmitActivity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransitionActivity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListActivities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetActivity(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterActivityServiceServer(s grpc.ServiceRegistrar, srv ActivityServiceServer) {
	s.RegisterService(&ActivityServiceDesc, srv)
}

func unaryHandler(method string, call func(ActivityServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ActivityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ActivityServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ActivityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ActivityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitActivity",
			Handler:    unaryHandler("SubmitActivity", ActivityServiceServer.SubmitActivity),
		},
		{
			MethodName: "TransitionActivity",
			Handler:    unaryHandler("TransitionActivity", ActivityServiceServer.TransitionActivity),
		},
		{
			MethodName: "ListActivities",
			Handler:    unaryHandler("ListActivities", ActivityServiceServer.ListActivities),
		},
		{
			MethodName: "GetActivity",
			Handler:    unaryHandler("GetActivity", ActivityServiceServer.GetActivity),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "worklog/v1/activity.proto",
}
