package status

import (
	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/SSSOCPaulCote/gux"
	"github.com/rs/zerolog"
)

// ControlSnapshot is the part of the snapshot owned by the control loop
type ControlSnapshot struct {
	State          string
	BloodEmpty     bool
	ClearEmpty     bool
	AirPressure    float64
	TargetPressure float64
	TargetKnown    bool
}

// Snapshot is the latest known state of the module, served to RPC clients
type Snapshot struct {
	Control       ControlSnapshot
	Module        Value
	BloodSupply   Value
	ClearSupply   Value
	Description   OperationalDescription
	Configuration ModuleConfiguration
}

var (
	InitialState = Snapshot{
		Control: ControlSnapshot{State: "startup"},
	}
	Reducer gux.Reducer = func(s interface{}, a gux.Action) (interface{}, error) {
		// assert type of s
		oldState, ok := s.(Snapshot)
		if !ok {
			return nil, errors.ErrInvalidType
		}
		// switch case action
		switch a.Type {
		case "control/update":
			ctrl, ok := a.Payload.(ControlSnapshot)
			if !ok {
				return nil, errors.ErrInvalidType
			}
			oldState.Control = ctrl
			return oldState, nil
		case "status/update":
			ev, ok := a.Payload.(Event)
			if !ok {
				return nil, errors.ErrInvalidType
			}
			switch ev.Capability {
			case ModuleLevel:
				oldState.Module = ev.Value
			case BloodSupply:
				oldState.BloodSupply = ev.Value
			case ClearSupply:
				oldState.ClearSupply = ev.Value
			}
			return oldState, nil
		case "description/update":
			d, ok := a.Payload.(OperationalDescription)
			if !ok {
				return nil, errors.ErrInvalidType
			}
			oldState.Description = d
			return oldState, nil
		case "configuration/update":
			c, ok := a.Payload.(ModuleConfiguration)
			if !ok {
				return nil, errors.ErrInvalidType
			}
			oldState.Configuration = c
			return oldState, nil
		default:
			return nil, errors.ErrInvalidAction
		}
	}
)

// NewStore returns a snapshot store in its initial state
func NewStore() *gux.Store {
	return gux.CreateStore(InitialState, Reducer)
}

// UpdateControlAction returns the action replacing the control portion of the snapshot
func UpdateControlAction(c ControlSnapshot) gux.Action {
	return gux.Action{
		Type:    "control/update",
		Payload: c,
	}
}

// CurrentSnapshot reads the snapshot from store
func CurrentSnapshot(store *gux.Store) (Snapshot, error) {
	snap, ok := store.GetState().(Snapshot)
	if !ok {
		return Snapshot{}, errors.ErrInvalidType
	}
	return snap, nil
}

// StoreSink records events and announcements into a snapshot store
type StoreSink struct {
	store  *gux.Store
	logger *zerolog.Logger
}

func NewStoreSink(logger *zerolog.Logger, store *gux.Store) *StoreSink {
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) dispatch(a gux.Action) {
	if err := s.store.Dispatch(a); err != nil {
		s.logger.Error().Msgf("Could not update state with %s: %v", a.Type, err)
	}
}

// WriteStatus implements the Sink interface
func (s *StoreSink) WriteStatus(ev Event) {
	s.dispatch(gux.Action{Type: "status/update", Payload: ev})
}

// WriteOperationalDescription implements the Announcer interface
func (s *StoreSink) WriteOperationalDescription(d OperationalDescription) {
	s.dispatch(gux.Action{Type: "description/update", Payload: d})
}

// WriteModuleConfiguration implements the Announcer interface
func (s *StoreSink) WriteModuleConfiguration(c ModuleConfiguration) {
	s.dispatch(gux.Action{Type: "configuration/update", Payload: c})
}
