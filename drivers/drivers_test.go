package drivers

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type rawCall struct {
	kind  ChannelKind
	index int
	value uint16
}

type fakeRawIO struct {
	calls []rawCall
	adc   map[int]uint32
}

func (f *fakeRawIO) SetGPIO(pin int, high bool) error {
	var v uint16
	if high {
		v = 1
	}
	f.calls = append(f.calls, rawCall{GPIO, pin, v})
	return nil
}

func (f *fakeRawIO) SetDAC(channel int, value uint16) error {
	f.calls = append(f.calls, rawCall{DAC, channel, value})
	return nil
}

func (f *fakeRawIO) ReadADC(channel int) (uint32, error) {
	return f.adc[channel], nil
}

// TestTopologyPort tests that logical actuators and sensors land on the expected physical channels
func TestTopologyPort(t *testing.T) {
	raw := &fakeRawIO{adc: map[int]uint32{0: 100, 1: 200, 2: 300, 3: 400}}
	port := NewTopologyPort(raw)
	cases := []struct {
		id       Actuator
		value    uint16
		expected rawCall
	}{
		{PurgeSolenoid, 1, rawCall{GPIO, 7, 1}},
		{SupplySolenoid, 1, rawCall{GPIO, 8, 1}},
		{AuxSolenoid, 0, rawCall{GPIO, 9, 0}},
		{Rail24V, 5, rawCall{GPIO, 15, 1}},
		{MotorEnable, 1, rawCall{GPIO, 16, 1}},
		{MotorDrive, 2000, rawCall{DAC, 1, 2000}},
		{MotorDrive, 0xffff, rawCall{DAC, 1, MaxDrive}},
	}
	for _, c := range cases {
		t.Run(c.id.String(), func(t *testing.T) {
			raw.calls = nil
			if err := port.SetActuator(c.id, c.value); err != nil {
				t.Fatalf("Could not set actuator: %v", err)
			}
			if len(raw.calls) != 1 || raw.calls[0] != c.expected {
				t.Errorf("Unexpected raw calls: %v", raw.calls)
			}
		})
	}
	if err := port.SetActuator(Actuator(99), 1); err != ErrUnknownActuator {
		t.Errorf("Expected %v, received %v", ErrUnknownActuator, err)
	}
	for sensor, expected := range map[Sensor]uint32{AirSupply: 100, BloodSupply: 200, ClearSupply: 300, PostPurge: 400} {
		v, err := port.ReadSensor(sensor)
		if err != nil {
			t.Fatalf("Could not read sensor: %v", err)
		}
		if v != expected {
			t.Errorf("Unexpected read for %v: %v", sensor, v)
		}
	}
	if _, err := port.ReadSensor(Sensor(42)); err != ErrUnknownSensor {
		t.Errorf("Expected %v, received %v", ErrUnknownSensor, err)
	}
}

// TestRawFromPressure tests that the inverse transfer function round trips within one quantization step
func TestRawFromPressure(t *testing.T) {
	for _, psi := range []float64{0, 0.1, 5, 19.75, 20, 30} {
		raw := RawFromPressure(psi)
		back := float64(raw)*PressureScale - PressureOffset
		if diff := back - psi; diff > PressureScale || diff < -PressureScale {
			t.Errorf("Round trip of %v psi gave %v", psi, back)
		}
	}
	if RawFromPressure(-10) != 0 {
		t.Error("Expected negative pressure to floor at zero")
	}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func psi(raw uint32) float64 {
	return float64(raw)*PressureScale - PressureOffset
}

// TestSimPlant tests that the simulated plant pressurizes when driven and vents when the supply closes
func TestSimPlant(t *testing.T) {
	logger := zerolog.Nop()
	clock := &fakeClock{t: time.Unix(0, 0)}
	plant := newSimPlantWithClock(&logger, clock.now)
	port := NewTopologyPort(plant)
	for _, a := range []Actuator{Rail24V, MotorEnable, SupplySolenoid} {
		if err := port.SetActuator(a, 1); err != nil {
			t.Fatalf("Could not set %v: %v", a, err)
		}
	}
	if err := port.SetActuator(MotorDrive, MaxDrive); err != nil {
		t.Fatalf("Could not set drive: %v", err)
	}
	for i := 0; i < 100; i++ {
		clock.advance(10 * time.Millisecond)
		if _, err := port.ReadSensor(AirSupply); err != nil {
			t.Fatalf("Could not read air: %v", err)
		}
	}
	raw, _ := port.ReadSensor(AirSupply)
	air := psi(raw)
	if air < 5 {
		t.Errorf("Expected air pressure to rise, received %v", air)
	}
	raw, _ = port.ReadSensor(BloodSupply)
	if blood := psi(raw); blood <= 0 {
		t.Errorf("Expected blood reservoir to follow air supply, received %v", blood)
	}
	t.Run("empty reservoir", func(t *testing.T) {
		plant.SetReservoirEmpty(ClearSupply, true)
		for i := 0; i < 200; i++ {
			clock.advance(10 * time.Millisecond)
			port.ReadSensor(ClearSupply)
		}
		raw, _ := port.ReadSensor(ClearSupply)
		if clear := psi(raw); clear > 1 {
			t.Errorf("Expected empty clear reservoir to drop, received %v", clear)
		}
	})
	t.Run("vent", func(t *testing.T) {
		port.SetActuator(MotorEnable, 0)
		port.SetActuator(SupplySolenoid, 0)
		for i := 0; i < 300; i++ {
			clock.advance(10 * time.Millisecond)
			port.ReadSensor(AirSupply)
		}
		raw, _ := port.ReadSensor(AirSupply)
		if vented := psi(raw); vented >= 0.1 {
			t.Errorf("Expected air supply to vent below 0.1 psi, received %v", vented)
		}
	})
	t.Run("closed", func(t *testing.T) {
		plant.Close()
		if _, err := port.ReadSensor(AirSupply); err != ErrPortClosed {
			t.Errorf("Expected %v, received %v", ErrPortClosed, err)
		}
	})
}
