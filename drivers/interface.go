// Package drivers contains the hardware port abstraction used by the fluidics control loop and its simulated plant
package drivers

import (
	"fmt"

	bg "github.com/SSSOCPaulCote/blunderguard"
)

const (
	ErrUnknownActuator = bg.Error("unknown actuator")
	ErrUnknownSensor   = bg.Error("unknown sensor")
	ErrPortClosed      = bg.Error("hardware port closed")
)

// Actuator identifies a logical output of the fluidics module
type Actuator int

const (
	MotorEnable Actuator = iota
	MotorDrive
	Rail24V
	SupplySolenoid
	PurgeSolenoid
	AuxSolenoid
)

func (a Actuator) String() string {
	switch a {
	case MotorEnable:
		return "motor enable"
	case MotorDrive:
		return "motor drive"
	case Rail24V:
		return "24V rail"
	case SupplySolenoid:
		return "supply solenoid"
	case PurgeSolenoid:
		return "purge solenoid"
	case AuxSolenoid:
		return "aux solenoid"
	}
	return fmt.Sprintf("actuator(%d)", int(a))
}

// Sensor identifies a logical pressure input of the fluidics module
type Sensor int

const (
	AirSupply Sensor = iota
	BloodSupply
	ClearSupply
	PostPurge
)

func (s Sensor) String() string {
	switch s {
	case AirSupply:
		return "air supply"
	case BloodSupply:
		return "blood supply"
	case ClearSupply:
		return "clear supply"
	case PostPurge:
		return "post purge"
	}
	return fmt.Sprintf("sensor(%d)", int(s))
}

const (
	// MaxDrive is the largest value accepted by the motor DAC
	MaxDrive uint16 = 0xfff
	// PressureScale and PressureOffset describe the pressure transducer transfer function. psi = raw*scale - offset
	PressureScale  float64 = 3.0 / 10280.0 * 16.0
	PressureOffset float64 = 15.0 / 8.0
)

// Port is the hardware I/O port driven by the control loop. Binary actuators treat any nonzero value as on
type Port interface {
	SetActuator(id Actuator, value uint16) error
	ReadSensor(id Sensor) (uint32, error)
}

// DriverConnection interface defines a generic type with a Close() function
type DriverConnection interface {
	Close()
}
