package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ExtractionServiceName is the fully qualified gRPC service name.
const ExtractionServiceName = "gscan.v1.ExtractionService"

// ExtractionServiceServer is the server API for gscan.v1.ExtractionService.
// Requests and responses are JSON-shaped structs:
//
//	request:  {filename, content (base64), fields?, profile?}
//	response: {documento, texto} | {documento, extraido}
type ExtractionServiceServer interface {
	Transcribe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterExtractionServiceServer(s grpc.ServiceRegistrar, srv ExtractionServiceServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

type unaryMethod func(ExtractionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ExtractionServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ExtractionServiceDesc is the grpc.ServiceDesc for gscan.v1.ExtractionService.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Transcribe", Handler: unaryHandler("Transcribe", ExtractionServiceServer.Transcribe)},
		{MethodName: "Extract", Handler: unaryHandler("Extract", ExtractionServiceServer.Extract)},
		{MethodName: "ExtractFields", Handler: unaryHandler("ExtractFields", ExtractionServiceServer.ExtractFields)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gscan/v1/extraction.proto",
}

// ExtractionServiceClient is the client API for gscan.v1.ExtractionService.
type ExtractionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionServiceClient(cc grpc.ClientConnInterface) *ExtractionServiceClient {
	return &ExtractionServiceClient{cc: cc}
}

func (c *ExtractionServiceClient) Transcribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Transcribe", in, opts...)
}

func (c *ExtractionServiceClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Extract", in, opts...)
}

func (c *ExtractionServiceClient) ExtractFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExtractFields", in, opts...)
}

func (c *ExtractionServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ExtractionServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
