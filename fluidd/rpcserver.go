/*
Copyright (C) 2015-2018 Lightning Labs and The Lightning Network Developers

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package fluidd

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/SSSOC-CAN/fluidd/fluidrpc"
	"github.com/SSSOC-CAN/fluidd/intercept"
	"github.com/SSSOC-CAN/fluidd/status"
	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/SSSOCPaulCote/gux"
	e "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ErrEmptyCommand = bg.Error("empty command")
)

// CommandHandler handles operator command strings
type CommandHandler interface {
	OnCommand(ctx context.Context, text string)
}

// RpcServer is the gRPC front end of the fluid manager
type RpcServer struct {
	Active int32
	fluidrpc.UnimplementedFluidManagerServer
	interceptor *intercept.Interceptor
	commands    CommandHandler
	store       *gux.Store
	cfg         *Config
	SubLogger   *zerolog.Logger
	Listener    net.Listener
}

// NewRpcServer creates an instance of the RpcServer struct listening on the configured gRPC port
func NewRpcServer(interceptor *intercept.Interceptor, config *Config, log *zerolog.Logger, commands CommandHandler, store *gux.Store) (*RpcServer, error) {
	logger := &NewSubLogger(log, "RPCS").SubLogger
	listener, err := net.Listen("tcp", ":"+strconv.FormatInt(config.GrpcPort, 10))
	if err != nil {
		logger.Error().Msgf("Couldn't open tcp listener on port %v: %v", config.GrpcPort, err)
		return nil, err
	}
	return &RpcServer{
		interceptor: interceptor,
		commands:    commands,
		store:       store,
		cfg:         config,
		SubLogger:   logger,
		Listener:    listener,
	}, nil
}

// RegisterWithGrpcServer registers the rpcServer with the root gRPC server
func (s *RpcServer) RegisterWithGrpcServer(grpcServer *grpc.Server) error {
	fluidrpc.RegisterFluidManagerServer(grpcServer, s)
	return nil
}

// Start starts the RPC server
func (s *RpcServer) Start() error {
	s.SubLogger.Info().Msg("Starting RPC server...")
	if ok := atomic.CompareAndSwapInt32(&s.Active, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	s.SubLogger.Info().Msg("RPC server started")
	return nil
}

// Stop stops the RPC server and closes its listener
func (s *RpcServer) Stop() error {
	if ok := atomic.CompareAndSwapInt32(&s.Active, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	err := s.Listener.Close()
	if err != nil {
		s.SubLogger.Error().Msgf("Could not stop listening at %v: %v", s.Listener.Addr(), err)
		return e.Wrapf(err, "could not stop listening at %v", s.Listener.Addr())
	}
	return nil
}

// Name satisfies the Service interface
func (s *RpcServer) Name() string {
	return "rpc"
}

// Ping satisfies the health.RegisteredHealthService interface
func (s *RpcServer) Ping(_ context.Context) error {
	if atomic.LoadInt32(&s.Active) != 1 {
		return errors.ErrServiceNotRunning
	}
	return nil
}

// SendCommand passes an operator command to the command handler. Unknown commands are accepted and ignored
func (s *RpcServer) SendCommand(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, ErrEmptyCommand.Error())
	}
	s.SubLogger.Debug().Msgf("Received command %q", req.GetValue())
	s.commands.OnCommand(ctx, req.GetValue())
	return &emptypb.Empty{}, nil
}

// GetStatus returns the latest module snapshot
func (s *RpcServer) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := status.CurrentSnapshot(s.store)
	if err != nil {
		return nil, grpcstatus.Error(codes.Internal, e.Wrap(err, "could not read module state").Error())
	}
	resp, err := structpb.NewStruct(snapshotToMap(snap))
	if err != nil {
		return nil, grpcstatus.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// StopDaemon will send a shutdown request to the interrupt handler, triggering a graceful shutdown
func (s *RpcServer) StopDaemon(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.interceptor.RequestShutdown()
	return &emptypb.Empty{}, nil
}

func snapshotToMap(snap status.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"module_id":       snap.Description.ModuleID,
		"module_name":     snap.Description.Name,
		"module_version":  snap.Description.ModuleVersion,
		"status":          snap.Module.String(),
		"blood_supply":    snap.BloodSupply.String(),
		"clear_supply":    snap.ClearSupply.String(),
		"state":           snap.Control.State,
		"blood_empty":     snap.Control.BloodEmpty,
		"clear_empty":     snap.Control.ClearEmpty,
		"air_pressure":    snap.Control.AirPressure,
		"target_pressure": snap.Control.TargetPressure,
		"target_known":    snap.Control.TargetKnown,
		"configured_at":   snap.Configuration.Timestamp,
	}
}
