// Package fluidrpc defines the FluidManager gRPC service. Messages are protobuf well known types so no generated
// message code is needed
package fluidrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "fluidrpc.FluidManager"
	sendCommandMethod = "/fluidrpc.FluidManager/SendCommand"
	getStatusMethod   = "/fluidrpc.FluidManager/GetStatus"
	stopDaemonMethod  = "/fluidrpc.FluidManager/StopDaemon"
)

// FluidManagerClient is the client API for the FluidManager service
type FluidManagerClient interface {
	// SendCommand delivers a command string, for example [SYS]START_FLUIDICS, to the module
	SendCommand(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// GetStatus returns the latest module snapshot
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// StopDaemon gracefully shuts down the daemon
	StopDaemon(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type fluidManagerClient struct {
	cc grpc.ClientConnInterface
}

func NewFluidManagerClient(cc grpc.ClientConnInterface) FluidManagerClient {
	return &fluidManagerClient{cc}
}

func (c *fluidManagerClient) SendCommand(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	err := c.cc.Invoke(ctx, sendCommandMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fluidManagerClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, getStatusMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fluidManagerClient) StopDaemon(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	err := c.cc.Invoke(ctx, stopDaemonMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FluidManagerServer is the server API for the FluidManager service.
// All implementations must embed UnimplementedFluidManagerServer for forward compatibility
type FluidManagerServer interface {
	SendCommand(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StopDaemon(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	mustEmbedUnimplementedFluidManagerServer()
}

// UnimplementedFluidManagerServer must be embedded to have forward compatible implementations
type UnimplementedFluidManagerServer struct{}

func (UnimplementedFluidManagerServer) SendCommand(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendCommand not implemented")
}
func (UnimplementedFluidManagerServer) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedFluidManagerServer) StopDaemon(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StopDaemon not implemented")
}
func (UnimplementedFluidManagerServer) mustEmbedUnimplementedFluidManagerServer() {}

func RegisterFluidManagerServer(s grpc.ServiceRegistrar, srv FluidManagerServer) {
	s.RegisterService(&FluidManager_ServiceDesc, srv)
}

func _FluidManager_SendCommand_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FluidManagerServer).SendCommand(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: sendCommandMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FluidManagerServer).SendCommand(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _FluidManager_GetStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FluidManagerServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getStatusMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FluidManagerServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _FluidManager_StopDaemon_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FluidManagerServer).StopDaemon(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: stopDaemonMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FluidManagerServer).StopDaemon(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// FluidManager_ServiceDesc is the grpc.ServiceDesc for the FluidManager service
var FluidManager_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FluidManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendCommand",
			Handler:    _FluidManager_SendCommand_Handler,
		},
		{
			MethodName: "GetStatus",
			Handler:    _FluidManager_GetStatus_Handler,
		},
		{
			MethodName: "StopDaemon",
			Handler:    _FluidManager_StopDaemon_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fluidrpc/fluidrpc.go",
}
