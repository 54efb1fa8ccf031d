// Package rpc describes the meetings.v1.MeetingService gRPC contract. Messages
// are google.protobuf.Struct values carrying the JSON shapes in messages.go.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "meetings.v1.MeetingService"

const (
	MethodIngest      = "/" + ServiceName + "/Ingest"
	MethodProcess     = "/" + ServiceName + "/Process"
	MethodGet         = "/" + ServiceName + "/Get"
	MethodListRecent  = "/" + ServiceName + "/ListRecent"
	MethodExportTasks = "/" + ServiceName + "/ExportTasks"
)

// Audio travels base64 encoded inside the Struct, so messages are larger than
// the raw upload limit.
const MaxMessageSize = 64 * 1024 * 1024

type MeetingServiceServer interface {
	Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListRecent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ExportTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterMeetingServiceServer(s grpc.ServiceRegistrar, srv MeetingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeetingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ingest", Handler: unaryHandler(MethodIngest, MeetingServiceServer.Ingest)},
		{MethodName: "Process", Handler: unaryHandler(MethodProcess, MeetingServiceServer.Process)},
		{MethodName: "Get", Handler: unaryHandler(MethodGet, MeetingServiceServer.Get)},
		{MethodName: "ListRecent", Handler: unaryHandler(MethodListRecent, MeetingServiceServer.ListRecent)},
		{MethodName: "ExportTasks", Handler: unaryHandler(MethodExportTasks, MeetingServiceServer.ExportTasks)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meetings/v1/meetings.proto",
}

type unaryMethod func(MeetingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MeetingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MeetingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
