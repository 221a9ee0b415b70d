package health

import (
	"context"
	"testing"

	"github.com/SSSOC-CAN/fluidd/status"
	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/rs/zerolog"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingService struct {
	err error
}

func (p *pingService) Ping(context.Context) error {
	return p.err
}

func expectStatus(t *testing.T, h *HealthService, service string, expected healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	st, err := h.Check(context.Background(), service)
	if err != nil {
		t.Fatalf("Could not check %q: %v", service, err)
	}
	if st != expected {
		t.Errorf("Expected %q to be %v, received %v", service, expected, st)
	}
}

// TestWriteStatus tests that status events drive serving status
func TestWriteStatus(t *testing.T) {
	logger := zerolog.Nop()
	h := NewHealthService(&logger)
	id := status.Identity{ID: "id", Name: "AMM_FluidManager"}
	expectStatus(t, h, "", healthpb.HealthCheckResponse_NOT_SERVING)
	h.WriteStatus(id.Event(status.ModuleLevel, status.Operational, ""))
	expectStatus(t, h, "", healthpb.HealthCheckResponse_SERVING)
	expectStatus(t, h, FluidicsServiceName, healthpb.HealthCheckResponse_SERVING)
	h.WriteStatus(id.Event(status.BloodSupply, status.Operational, ""))
	h.WriteStatus(id.Event(status.ClearSupply, status.Inoperative, "Clear supply empty"))
	expectStatus(t, h, string(status.BloodSupply), healthpb.HealthCheckResponse_SERVING)
	expectStatus(t, h, string(status.ClearSupply), healthpb.HealthCheckResponse_NOT_SERVING)
	h.WriteStatus(id.Event(status.ModuleLevel, status.Inoperative, ""))
	expectStatus(t, h, FluidicsServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	if _, err := h.Check(context.Background(), "unknown"); err == nil {
		t.Error("Expected an error for an unknown service")
	}
}

// TestRegisteredServices tests that pings update the serving status of registered services
func TestRegisteredServices(t *testing.T) {
	logger := zerolog.Nop()
	h := NewHealthService(&logger)
	ok, failing := &pingService{}, &pingService{err: bg.Error("down")}
	if err := h.RegisterHealthService("rpc", ok); err != nil {
		t.Fatalf("Could not register service: %v", err)
	}
	if err := h.RegisterHealthService("rpc", ok); err != ErrHealthServiceAlreadyRegistered {
		t.Errorf("Expected %v, received %v", ErrHealthServiceAlreadyRegistered, err)
	}
	if err := h.RegisterHealthService("telemetry", failing); err != nil {
		t.Fatalf("Could not register service: %v", err)
	}
	expectStatus(t, h, "rpc", healthpb.HealthCheckResponse_UNKNOWN)
	h.PingAll(context.Background())
	expectStatus(t, h, "rpc", healthpb.HealthCheckResponse_SERVING)
	expectStatus(t, h, "telemetry", healthpb.HealthCheckResponse_NOT_SERVING)
}
