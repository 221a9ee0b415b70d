// Package status carries fluidics module and capability status from the control loop to whatever is listening
package status

import (
	"github.com/rs/zerolog"
)

// Value is the status of the module or one of its capabilities
type Value int32

const (
	Inoperative Value = iota
	Operational
)

func (v Value) String() string {
	if v == Operational {
		return "OPERATIONAL"
	}
	return "INOPERATIVE"
}

// Capability names a sub function of the module which reports status on its own. ModuleLevel is the module itself
type Capability string

const (
	ModuleLevel Capability = ""
	BloodSupply Capability = "blood_supply"
	ClearSupply Capability = "clear_supply"
)

// Event is a fire and forget status announcement
type Event struct {
	ModuleID   string
	ModuleName string
	Capability Capability
	Value      Value
	Message    string
}

// Sink receives status events. Implementations must not block the caller for long
type Sink interface {
	WriteStatus(ev Event)
}

// Identity identifies the module in every event it emits
type Identity struct {
	ID   string
	Name string
}

// Event builds an Event stamped with this identity
func (i Identity) Event(c Capability, v Value, msg string) Event {
	return Event{
		ModuleID:   i.ID,
		ModuleName: i.Name,
		Capability: c,
		Value:      v,
		Message:    msg,
	}
}

// MultiSink fans events and announcements out to every member
type MultiSink []Sink

// WriteStatus implements the Sink interface
func (m MultiSink) WriteStatus(ev Event) {
	for _, s := range m {
		s.WriteStatus(ev)
	}
}

// WriteOperationalDescription implements the Announcer interface for members which also announce
func (m MultiSink) WriteOperationalDescription(d OperationalDescription) {
	for _, s := range m {
		if a, ok := s.(Announcer); ok {
			a.WriteOperationalDescription(d)
		}
	}
}

// WriteModuleConfiguration implements the Announcer interface for members which also announce
func (m MultiSink) WriteModuleConfiguration(c ModuleConfiguration) {
	for _, s := range m {
		if a, ok := s.(Announcer); ok {
			a.WriteModuleConfiguration(c)
		}
	}
}

// LogSink writes every event and announcement to a logger
type LogSink struct {
	logger *zerolog.Logger
}

func NewLogSink(logger *zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// WriteStatus implements the Sink interface
func (l *LogSink) WriteStatus(ev Event) {
	entry := l.logger.Info()
	if ev.Value == Inoperative && ev.Capability != ModuleLevel {
		entry = l.logger.Warn()
	}
	entry = entry.Str("module_id", ev.ModuleID).Str("value", ev.Value.String())
	if ev.Capability != ModuleLevel {
		entry = entry.Str("capability", string(ev.Capability))
	}
	if ev.Message != "" {
		entry = entry.Str("message", ev.Message)
	}
	entry.Msgf("%s status", ev.ModuleName)
}

// WriteOperationalDescription implements the Announcer interface
func (l *LogSink) WriteOperationalDescription(d OperationalDescription) {
	l.logger.Info().Str("module_id", d.ModuleID).Str("model", d.Model).Str("version", d.ModuleVersion).Msgf("%s operational description", d.Name)
}

// WriteModuleConfiguration implements the Announcer interface
func (l *LogSink) WriteModuleConfiguration(c ModuleConfiguration) {
	l.logger.Info().Str("module_id", c.ModuleID).Int64("timestamp", c.Timestamp).Msgf("%s module configuration", c.Name)
}
