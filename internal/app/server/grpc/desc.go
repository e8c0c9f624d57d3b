package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "amethyst.v1.LinkService"

const (
	createMethod  = "/" + ServiceName + "/Create"
	resolveMethod = "/" + ServiceName + "/Resolve"
)

// LinkServiceServer is implemented by the link gRPC service. Messages are
// protobuf well-known types so no generated code is needed.
type LinkServiceServer interface {
	// Create takes {"url": string, "path"?: string} and returns the short URL.
	Create(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// Resolve returns the destination stored under a slug.
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

func createHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinkServiceServer).Create(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: createMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LinkServiceServer).Create(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LinkServiceServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: resolveMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LinkServiceServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// LinkServiceDesc describes the service for grpc.Server.RegisterService.
var LinkServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: createHandler},
		{MethodName: "Resolve", Handler: resolveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "amethyst/v1/link.proto",
}

// RegisterLinkServiceServer registers srv on s.
func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&LinkServiceDesc, srv)
}

// Client is a thin typed client for LinkService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Create asks the server to shorten destination, optionally under slug.
func (c *Client) Create(ctx context.Context, destination, slug string, opts ...grpc.CallOption) (string, error) {
	fields := map[string]any{"url": destination}
	if slug != "" {
		fields["path"] = slug
	}

	in, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}

	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, createMethod, in, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Resolve(ctx context.Context, slug string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, resolveMethod, wrapperspb.String(slug), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
