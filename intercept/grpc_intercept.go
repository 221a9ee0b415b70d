package intercept

import (
	"context"
	"sync/atomic"

	bg "github.com/SSSOCPaulCote/blunderguard"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ErrDaemonNotReady = bg.Error("daemon is not ready to accept commands")
)

var (
	readyWhitelist = map[string]struct{}{
		"/fluidrpc.FluidManager/StopDaemon": {},
		"/fluidrpc.FluidManager/GetStatus":  {},
		"/grpc.health.v1.Health/Check":      {},
		"/grpc.health.v1.Health/Watch":      {},
	}
)

// GrpcInterceptor struct is a data structure with attributes relevant to creating the gRPC interceptor
type GrpcInterceptor struct {
	ready int32
	log   *zerolog.Logger
}

// NewGrpcInterceptor instantiates a new GrpcInterceptor struct. RPCs outside the whitelist are refused until SetReady is called
func NewGrpcInterceptor(log *zerolog.Logger) *GrpcInterceptor {
	return &GrpcInterceptor{
		log: log,
	}
}

// SetReady toggles whether non whitelisted RPCs are served
func (i *GrpcInterceptor) SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&i.ready, 1)
		return
	}
	atomic.StoreInt32(&i.ready, 0)
}

// CreateGrpcOptions creates a array of gRPC interceptors
func (i *GrpcInterceptor) CreateGrpcOptions() []grpc.ServerOption {
	recoveryOpt := grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
		i.log.Error().Msgf("Recovered from panic in RPC handler: %v", p)
		return status.Errorf(codes.Internal, "%v", p)
	})
	// Create server options from the interceptors we just set up.
	chainedUnary := grpc_middleware.WithUnaryServerChain(
		logUnaryServerInterceptor(i.log),
		grpc_recovery.UnaryServerInterceptor(recoveryOpt),
		i.readyUnaryServerInterceptor(),
	)
	chainedStream := grpc_middleware.WithStreamServerChain(
		logStreamServerInterceptor(i.log),
		grpc_recovery.StreamServerInterceptor(recoveryOpt),
		i.readyStreamServerInterceptor(),
	)
	return []grpc.ServerOption{chainedUnary, chainedStream}
}

// checkReady returns an Unavailable error if the daemon is still starting
func (i *GrpcInterceptor) checkReady(fullMethod string) error {
	if _, ok := readyWhitelist[fullMethod]; ok {
		return nil
	}
	if atomic.LoadInt32(&i.ready) != 1 {
		return status.Error(codes.Unavailable, ErrDaemonNotReady.Error())
	}
	return nil
}

// logUnaryServerInterceptor is a simple UnaryServerInterceptor that will
// automatically log any errors that occur when serving a client's unary
// request.
func logUnaryServerInterceptor(log *zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			log.Error().Msgf("[%v]: %v", info.FullMethod, err)
		}
		return resp, err
	}
}

// logStreamServerInterceptor is a simple StreamServerInterceptor that
// will log any errors that occur while processing a client or server streaming
// RPC.
func logStreamServerInterceptor(log *zerolog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		if err != nil {
			log.Error().Msgf("[%v]: %v", info.FullMethod, err)
		}
		return err
	}
}

// readyUnaryServerInterceptor refuses unary RPCs until the daemon is ready
func (i *GrpcInterceptor) readyUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler) (interface{}, error) {
		if err := i.checkReady(info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// readyStreamServerInterceptor refuses streaming RPCs until the daemon is ready
func (i *GrpcInterceptor) readyStreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream,
		info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := i.checkReady(info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
