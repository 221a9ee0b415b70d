package status

import (
	"time"

	"github.com/SSSOC-CAN/fluidd/utils"
)

var (
	DefaultModel        = "Fluid Manager"
	DefaultManufacturer = "Entropic"
	DefaultSerialNumber = "1.0.0"
)

// OperationalDescription announces what the module is
type OperationalDescription struct {
	Name               string
	Model              string
	Manufacturer       string
	SerialNumber       string
	ModuleID           string
	ModuleVersion      string
	CapabilitiesSchema string
}

// ModuleConfiguration announces how the module is configured
type ModuleConfiguration struct {
	Timestamp                 int64
	ModuleID                  string
	Name                      string
	CapabilitiesConfiguration string
}

// Announcer receives module identity and configuration announcements
type Announcer interface {
	WriteOperationalDescription(d OperationalDescription)
	WriteModuleConfiguration(c ModuleConfiguration)
}

// NewOperationalDescription returns the description of this module
func NewOperationalDescription(id Identity, schema string) OperationalDescription {
	return OperationalDescription{
		Name:               id.Name,
		Model:              DefaultModel,
		Manufacturer:       DefaultManufacturer,
		SerialNumber:       DefaultSerialNumber,
		ModuleID:           id.ID,
		ModuleVersion:      utils.AppVersion,
		CapabilitiesSchema: schema,
	}
}

// NewModuleConfiguration returns a configuration announcement stamped with now in milliseconds
func NewModuleConfiguration(id Identity, cfg string, now time.Time) ModuleConfiguration {
	return ModuleConfiguration{
		Timestamp:                 now.UnixNano() / int64(time.Millisecond),
		ModuleID:                  id.ID,
		Name:                      id.Name,
		CapabilitiesConfiguration: cfg,
	}
}
