package drivers

import (
	"math"
)

type ChannelKind int

const (
	GPIO ChannelKind = iota
	DAC
	ADC
)

// Channel is a physical hardware channel
type Channel struct {
	Kind  ChannelKind
	Index int
}

var (
	// ActuatorTopology maps logical actuators onto the board's physical outputs
	ActuatorTopology = map[Actuator]Channel{
		MotorEnable:    {Kind: GPIO, Index: 16},
		MotorDrive:     {Kind: DAC, Index: 1},
		Rail24V:        {Kind: GPIO, Index: 15},
		SupplySolenoid: {Kind: GPIO, Index: 8},
		PurgeSolenoid:  {Kind: GPIO, Index: 7},
		AuxSolenoid:    {Kind: GPIO, Index: 9},
	}
	// SensorTopology maps logical sensors onto ADC channels
	SensorTopology = map[Sensor]Channel{
		AirSupply:   {Kind: ADC, Index: 0},
		BloodSupply: {Kind: ADC, Index: 1},
		ClearSupply: {Kind: ADC, Index: 2},
		PostPurge:   {Kind: ADC, Index: 3},
	}
)

// RawIO is the pin level interface exposed by a board driver
type RawIO interface {
	SetGPIO(pin int, high bool) error
	SetDAC(channel int, value uint16) error
	ReadADC(channel int) (uint32, error)
}

// TopologyPort translates logical actuators and sensors into raw channel operations
type TopologyPort struct {
	raw RawIO
}

// Compile time check that TopologyPort satisfies Port
var _ Port = (*TopologyPort)(nil)

// NewTopologyPort wraps a RawIO with the fluidics board topology
func NewTopologyPort(raw RawIO) *TopologyPort {
	return &TopologyPort{raw: raw}
}

// SetActuator writes value to the channel wired to id. DAC writes are clamped to MaxDrive
func (p *TopologyPort) SetActuator(id Actuator, value uint16) error {
	ch, ok := ActuatorTopology[id]
	if !ok {
		return ErrUnknownActuator
	}
	switch ch.Kind {
	case GPIO:
		return p.raw.SetGPIO(ch.Index, value != 0)
	case DAC:
		if value > MaxDrive {
			value = MaxDrive
		}
		return p.raw.SetDAC(ch.Index, value)
	}
	return ErrUnknownActuator
}

// ReadSensor reads the raw ADC value of the channel wired to id
func (p *TopologyPort) ReadSensor(id Sensor) (uint32, error) {
	ch, ok := SensorTopology[id]
	if !ok || ch.Kind != ADC {
		return 0, ErrUnknownSensor
	}
	return p.raw.ReadADC(ch.Index)
}

// RawFromPressure inverts the transducer transfer function. Negative results floor at zero
func RawFromPressure(psi float64) uint32 {
	raw := math.Round((psi + PressureOffset) / PressureScale)
	if raw < 0 || math.IsNaN(raw) {
		return 0
	}
	if raw > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(raw)
}
