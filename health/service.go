// Package health serves the standard gRPC health protocol. Serving status follows module and capability status events
// and the liveness of registered services
package health

import (
	"context"
	"sync"
	"time"

	"github.com/SSSOC-CAN/fluidd/status"
	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	ErrHealthServiceAlreadyRegistered = bg.Error("health service already registered")
	// FluidicsServiceName mirrors the module level status
	FluidicsServiceName = "fluidics"
)

var (
	defaultCheckTimeout time.Duration = 5 * time.Second
	// DefaultPingInterval is how often registered services are pinged
	DefaultPingInterval time.Duration = 5 * time.Second
)

type HealthService struct {
	sync.Mutex
	server             *grpchealth.Server
	registeredServices map[string]RegisteredHealthService
	logger             *zerolog.Logger
}

// Compile time check that HealthService is a status sink
var _ status.Sink = (*HealthService)(nil)

// NewHealthService instantiates a new HealthService. Everything starts NOT_SERVING
func NewHealthService(logger *zerolog.Logger) *HealthService {
	srv := grpchealth.NewServer()
	for _, name := range []string{"", FluidicsServiceName, string(status.BloodSupply), string(status.ClearSupply)} {
		srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &HealthService{
		server:             srv,
		registeredServices: make(map[string]RegisteredHealthService),
		logger:             logger,
	}
}

// RegisterWithGrpcServer registers the health service with the gRPC server
func (h *HealthService) RegisterWithGrpcServer(grpcServer *grpc.Server) error {
	healthpb.RegisterHealthServer(grpcServer, h.server)
	return nil
}

// RegisterHealthService registers a given service that we want to perform health checks on
func (h *HealthService) RegisterHealthService(name string, s RegisteredHealthService) error {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.registeredServices[name]; ok {
		return ErrHealthServiceAlreadyRegistered
	}
	h.registeredServices[name] = s
	h.server.SetServingStatus(name, healthpb.HealthCheckResponse_UNKNOWN)
	return nil
}

// WriteStatus implements the status.Sink interface
func (h *HealthService) WriteStatus(ev status.Event) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ev.Value == status.Operational {
		st = healthpb.HealthCheckResponse_SERVING
	}
	if ev.Capability == status.ModuleLevel {
		h.server.SetServingStatus("", st)
		h.server.SetServingStatus(FluidicsServiceName, st)
		return
	}
	h.server.SetServingStatus(string(ev.Capability), st)
}

// Check returns the serving status of service
func (h *HealthService) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, err
	}
	return resp.Status, nil
}

// PingAll pings every registered service and records the result
func (h *HealthService) PingAll(ctx context.Context) {
	h.Lock()
	services := make(map[string]RegisteredHealthService, len(h.registeredServices))
	for name, s := range h.registeredServices {
		services[name] = s
	}
	h.Unlock()
	for name, service := range services {
		h.server.SetServingStatus(name, h.ping(ctx, name, service))
	}
}

func (h *HealthService) ping(ctx context.Context, name string, service RegisteredHealthService) healthpb.HealthCheckResponse_ServingStatus {
	newCtx, cancel := context.WithTimeout(ctx, defaultCheckTimeout)
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- service.Ping(newCtx)
	}()
	select {
	case err := <-errChan:
		if err != nil {
			h.logger.Warn().Msgf("%s health check failed: %v", name, err)
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
		return healthpb.HealthCheckResponse_SERVING
	case <-newCtx.Done():
		return healthpb.HealthCheckResponse_UNKNOWN
	}
}

// Run pings registered services every interval until ctx is done
func (h *HealthService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	h.PingAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.PingAll(ctx)
		}
	}
}

// Shutdown sets every service to NOT_SERVING
func (h *HealthService) Shutdown() {
	h.server.Shutdown()
}
