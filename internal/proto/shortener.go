// Package proto declares the golinks.Shortener gRPC service. Requests and
// responses are google.protobuf.StringValue, so no code generation step is needed.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName          = "golinks.Shortener"
	ShortenFullMethod    = "/" + ServiceName + "/Shorten"
	ExpandFullMethod     = "/" + ServiceName + "/Expand"
	shortenerServiceFile = "golinks/shortener.proto"
)

// ShortenerServer is the server API for the Shortener service.
//
//	Shorten: target URL -> short URL
//	Expand:  short code -> target URL
type ShortenerServer interface {
	Shorten(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Expand(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// UnimplementedShortenerServer can be embedded to have forward compatible implementations.
type UnimplementedShortenerServer struct{}

func (UnimplementedShortenerServer) Shorten(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Shorten not implemented")
}

func (UnimplementedShortenerServer) Expand(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Expand not implemented")
}

func RegisterShortenerServer(s grpc.ServiceRegistrar, srv ShortenerServer) {
	s.RegisterService(&shortenerServiceDesc, srv)
}

func shortenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShortenerServer).Shorten(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ShortenFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ShortenerServer).Shorten(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func expandHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShortenerServer).Expand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ExpandFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ShortenerServer).Expand(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var shortenerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    shortenHandler,
		},
		{
			MethodName: "Expand",
			Handler:    expandHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: shortenerServiceFile,
}

// ShortenerClient is the client API for the Shortener service.
type ShortenerClient struct {
	cc grpc.ClientConnInterface
}

func NewShortenerClient(cc grpc.ClientConnInterface) *ShortenerClient {
	return &ShortenerClient{cc: cc}
}

func (c *ShortenerClient) Shorten(ctx context.Context, targetURL string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ShortenFullMethod, wrapperspb.String(targetURL), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *ShortenerClient) Expand(ctx context.Context, code string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ExpandFullMethod, wrapperspb.String(code), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
