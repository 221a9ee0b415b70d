package fluidd

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/SSSOC-CAN/fluidd/fluidrpc"
	"github.com/SSSOC-CAN/fluidd/intercept"
	"github.com/SSSOC-CAN/fluidd/status"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var bufSize = 1 * 1024 * 1024

type recordingHandler struct {
	sync.Mutex
	commands []string
}

func (r *recordingHandler) OnCommand(_ context.Context, text string) {
	r.Lock()
	defer r.Unlock()
	r.commands = append(r.commands, text)
}

// initInterceptor waits for any previous interceptor to finish shutting down
func initInterceptor(t *testing.T) *intercept.Interceptor {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		interceptor, err := intercept.InitInterceptor()
		if err == nil {
			interceptor.SetLogger(zerolog.Nop())
			return interceptor
		}
		if err != intercept.ErrInterceptorStarted || time.Now().After(deadline) {
			t.Fatalf("Could not initialize interceptor: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// initRpcServer is a helper function to initialize the RPC server struct
func initRpcServer(t *testing.T) (*RpcServer, *intercept.Interceptor, *recordingHandler, func()) {
	interceptor := initInterceptor(t)
	cfg := Config{GrpcPort: 0}
	log := zerolog.Nop()
	handler := &recordingHandler{}
	store := status.NewStore()
	rpcServer, err := NewRpcServer(interceptor, &cfg, &log, handler, store)
	if err != nil {
		t.Fatalf("Could not initialize RPC server: %v", err)
	}
	cleanUp := func() {
		_ = rpcServer.Listener.Close()
		interceptor.RequestShutdown()
		<-interceptor.ShutdownChannel()
	}
	return rpcServer, interceptor, handler, cleanUp
}

// dialBufconn serves the RPC server over an in-memory listener and returns a client
func dialBufconn(t *testing.T, rpcServer *RpcServer) (fluidrpc.FluidManagerClient, func()) {
	lis := bufconn.Listen(bufSize)
	grpcServer := grpc.NewServer()
	_ = rpcServer.RegisterWithGrpcServer(grpcServer)
	if err := startGrpcListen(grpcServer, lis); err != nil {
		t.Fatalf("Could not start gRPC listen: %v", err)
	}
	conn, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithInsecure(),
	)
	if err != nil {
		t.Fatalf("Failed to dial bufnet: %v", err)
	}
	return fluidrpc.NewFluidManagerClient(conn), func() {
		conn.Close()
		grpcServer.Stop()
	}
}

// TestStartStopRpcServer tests if we can initialize, start and stop a new RPC server
func TestStartStopRpcServer(t *testing.T) {
	rpcServer, _, _, cleanUp := initRpcServer(t)
	defer cleanUp()
	t.Run("Ping before start", func(t *testing.T) {
		if err := rpcServer.Ping(context.Background()); err != errors.ErrServiceNotRunning {
			t.Errorf("Unexpected ping result: %v", err)
		}
	})
	t.Run("Start RPC server", func(t *testing.T) {
		err := rpcServer.Start()
		if err != nil {
			t.Fatalf("Could not start RPC server: %v", err)
		}
		if err := rpcServer.Ping(context.Background()); err != nil {
			t.Errorf("Unexpected ping result: %v", err)
		}
	})
	t.Run("Start RPC server invalid", func(t *testing.T) {
		err := rpcServer.Start()
		if err != errors.ErrServiceAlreadyStarted {
			t.Errorf("Unexpected error when starting RPC server: %v", err)
		}
	})
	t.Run("Stop RPC server", func(t *testing.T) {
		err := rpcServer.Stop()
		if err != nil {
			t.Fatalf("Could not stop RPC server: %v", err)
		}
	})
	t.Run("Stop RPC server invalid", func(t *testing.T) {
		err := rpcServer.Stop()
		if err != errors.ErrServiceAlreadyStopped {
			t.Errorf("Unexpected error when stopping RPC server: %v", err)
		}
	})
}

// TestSendCommand tests that commands reach the command handler
func TestSendCommand(t *testing.T) {
	rpcServer, _, handler, cleanUp := initRpcServer(t)
	defer cleanUp()
	client, closeConn := dialBufconn(t, rpcServer)
	defer closeConn()
	ctx := context.Background()
	t.Run("empty command", func(t *testing.T) {
		_, err := client.SendCommand(ctx, &wrapperspb.StringValue{})
		if st, ok := grpcstatus.FromError(err); !ok || st.Code() != codes.InvalidArgument {
			t.Errorf("Expected InvalidArgument, received %v", err)
		}
	})
	t.Run("forwarded commands", func(t *testing.T) {
		for _, cmd := range []string{"[SYS]START_FLUIDICS", "[SYS]SOMETHING_ELSE"} {
			if _, err := client.SendCommand(ctx, &wrapperspb.StringValue{Value: cmd}); err != nil {
				t.Fatalf("Could not send command %q: %v", cmd, err)
			}
		}
		handler.Lock()
		defer handler.Unlock()
		if len(handler.commands) != 2 || handler.commands[0] != "[SYS]START_FLUIDICS" {
			t.Errorf("Unexpected commands received: %v", handler.commands)
		}
	})
}

// TestGetStatus tests that the status snapshot reflects the store
func TestGetStatus(t *testing.T) {
	rpcServer, _, _, cleanUp := initRpcServer(t)
	defer cleanUp()
	client, closeConn := dialBufconn(t, rpcServer)
	defer closeConn()
	id := status.Identity{ID: "abc", Name: "AMM_FluidManager"}
	logger := zerolog.Nop()
	sink := status.NewStoreSink(&logger, rpcServer.store)
	sink.WriteOperationalDescription(status.NewOperationalDescription(id, ""))
	sink.WriteStatus(id.Event(status.BloodSupply, status.Operational, ""))
	if err := rpcServer.store.Dispatch(status.UpdateControlAction(status.ControlSnapshot{
		State:          "operational",
		AirPressure:    5.1,
		TargetPressure: 5,
		TargetKnown:    true,
	})); err != nil {
		t.Fatalf("Could not update control snapshot: %v", err)
	}
	resp, err := client.GetStatus(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("Could not get status: %v", err)
	}
	fields := resp.AsMap()
	expected := map[string]interface{}{
		"module_id":       "abc",
		"module_name":     "AMM_FluidManager",
		"status":          status.Inoperative.String(),
		"blood_supply":    status.Operational.String(),
		"state":           "operational",
		"target_pressure": float64(5),
		"target_known":    true,
	}
	for k, v := range expected {
		if fields[k] != v {
			t.Errorf("Expected %s to be %v, received %v", k, v, fields[k])
		}
	}
}

// TestStopDaemon tests that StopDaemon triggers a graceful shutdown
func TestStopDaemon(t *testing.T) {
	rpcServer, interceptor, _, cleanUp := initRpcServer(t)
	defer cleanUp()
	client, closeConn := dialBufconn(t, rpcServer)
	defer closeConn()
	if _, err := client.StopDaemon(context.Background(), &emptypb.Empty{}); err != nil {
		t.Fatalf("Could not stop daemon: %v", err)
	}
	select {
	case <-interceptor.ShutdownChannel():
	case <-time.After(time.Second):
		t.Errorf("Shutdown channel was not closed")
	}
}
