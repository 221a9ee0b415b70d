package fluidics

import (
	"math"

	"github.com/SSSOC-CAN/fluidd/drivers"
)

const (
	// StallThreshold is the highest drive command at which the motor does not turn
	StallThreshold uint16 = 0x100
	driveScale    float64 = 1000
)

// ToPressure converts a raw transducer sample to psi. Out of range samples give out of range pressures
func ToPressure(raw uint32) float64 {
	return float64(raw)*drivers.PressureScale - drivers.PressureOffset
}

// DriveCommand scales a regulator output into the motor DAC range
func DriveCommand(output float64) uint16 {
	v := math.Floor(output * driveScale)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= float64(drivers.MaxDrive):
		return drivers.MaxDrive
	}
	return uint16(v)
}

// Stalled reports whether the motor cannot turn at cmd
func Stalled(cmd uint16) bool {
	return cmd <= StallThreshold
}
