package telemetry

import (
	"testing"
	"time"

	"github.com/SSSOC-CAN/fluidd/fluidics"
	"github.com/rs/zerolog"
)

// TestNewPressurePoint tests the conversion of diagnostics samples into InfluxDB points
func TestNewPressurePoint(t *testing.T) {
	now := time.Unix(1650000000, 0)
	p := newPressurePoint("AMM_FluidManager", fluidics.Diagnostics{
		Time:           now,
		State:          fluidics.Operational,
		AirPressure:    19.9,
		TargetPressure: 20,
		Drive:          512,
	})
	if p.Name() != PressureMeasurement {
		t.Errorf("Unexpected measurement: %v", p.Name())
	}
	if !p.Time().Equal(now) {
		t.Errorf("Unexpected timestamp: %v", p.Time())
	}
	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["state"] != "operational" || tags["module"] != "AMM_FluidManager" {
		t.Errorf("Unexpected tags: %v", tags)
	}
	fields := make(map[string]interface{})
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["air"] != 19.9 || fields["drive"] != int64(512) {
		t.Errorf("Unexpected fields: %v", fields)
	}
}

// TestRecordNotRunning tests that recording before start neither blocks nor buffers
func TestRecordNotRunning(t *testing.T) {
	logger := zerolog.Nop()
	s := NewTelemetryService(&logger, "AMM_FluidManager", "http://localhost:8086", "token", "org", "bucket")
	defer s.idb.Close()
	for i := 0; i < 2*DefaultSampleBuffer; i++ {
		s.Record(fluidics.Diagnostics{})
	}
	if len(s.samples) != 0 {
		t.Errorf("Samples buffered while not running: %v", len(s.samples))
	}
	if err := s.Stop(); err == nil {
		t.Error("Stopped a service that was never started")
	}
}

// TestStopUnreachableInflux tests that Stop returns when every write to InfluxDB fails
func TestStopUnreachableInflux(t *testing.T) {
	logger := zerolog.Nop()
	s := NewTelemetryService(&logger, "AMM_FluidManager", "http://127.0.0.1:1", "token", "org", "bucket")
	if err := s.Start(); err != nil {
		t.Fatalf("Could not start telemetry service: %v", err)
	}
	s.Record(fluidics.Diagnostics{Time: time.Now(), State: fluidics.Operational, AirPressure: 5})
	time.Sleep(50 * time.Millisecond)
	stopped := make(chan error)
	go func() {
		stopped <- s.Stop()
	}()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Could not stop telemetry service: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return with InfluxDB unreachable")
	}
	if err := s.Stop(); err == nil {
		t.Error("Stopped a service that was already stopped")
	}
}
