package command

import (
	"math"
	"os"

	bg "github.com/SSSOCPaulCote/blunderguard"
	e "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	ErrNoFluidicsCapability     = bg.Error("no fluidics capability configured")
	ErrFluidicsDisabled         = bg.Error("fluidics capability disabled")
	ErrMissingOperatingPressure = bg.Error("missing operating pressure")
	ErrInvalidOperatingPressure = bg.Error("invalid operating pressure")
)

// ConfigSource provides the operating pressure on demand
type ConfigSource interface {
	OperatingPressure() (float64, error)
}

// FluidicsCapability is the fluidics section of the capability configuration
type FluidicsCapability struct {
	Enable            *bool    `yaml:"Enable"`
	OperatingPressure *float64 `yaml:"OperatingPressure"`
}

// CapabilityConfig is the capability configuration document
type CapabilityConfig struct {
	Fluidics *FluidicsCapability `yaml:"Fluidics"`
}

// ParseOperatingPressure extracts the operating pressure from a capability configuration document.
// A missing Enable field counts as enabled
func ParseOperatingPressure(data []byte) (float64, error) {
	var cfg CapabilityConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return 0, e.Wrap(err, "could not parse capability configuration")
	}
	if cfg.Fluidics == nil {
		return 0, ErrNoFluidicsCapability
	}
	if cfg.Fluidics.Enable != nil && !*cfg.Fluidics.Enable {
		return 0, ErrFluidicsDisabled
	}
	if cfg.Fluidics.OperatingPressure == nil {
		return 0, ErrMissingOperatingPressure
	}
	p := *cfg.Fluidics.OperatingPressure
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, ErrInvalidOperatingPressure
	}
	return p, nil
}

// FileConfigSource reads the capability configuration from a file every time it is asked
type FileConfigSource struct {
	Path string
}

func NewFileConfigSource(path string) *FileConfigSource {
	return &FileConfigSource{Path: path}
}

// OperatingPressure implements the ConfigSource interface
func (f *FileConfigSource) OperatingPressure() (float64, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, e.Wrap(err, "could not read capability configuration")
	}
	return ParseOperatingPressure(data)
}
