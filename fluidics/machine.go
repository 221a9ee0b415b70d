package fluidics

import (
	"context"
	"fmt"
	"time"

	"github.com/SSSOC-CAN/fluidd/drivers"
	"github.com/SSSOC-CAN/fluidd/pid"
	"github.com/SSSOC-CAN/fluidd/status"
	"github.com/SSSOCPaulCote/gux"
	e "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is a control state of the fluidics module
type State int

const (
	Startup State = iota
	Pressurizing
	Operational
	Purging
	Error
)

func (s State) String() string {
	switch s {
	case Startup:
		return "startup"
	case Pressurizing:
		return "pressurizing"
	case Operational:
		return "operational"
	case Purging:
		return "purging"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	// PressurizedMargin is how close to target the air supply must get before pressurization completes
	PressurizedMargin float64 = 0.25
	// PurgeVentedPressure is the air pressure below which purge drives air through the lines
	PurgeVentedPressure float64 = 0.1
	// PurgeInterlockPressure is the air pressure above which purge cuts the motor
	PurgeInterlockPressure float64 = 0.5
)

var (
	DefaultStartupInterval = 100 * time.Millisecond
	DefaultControlInterval = time.Millisecond
)

var (
	DefaultGainP float64 = 48
	DefaultGainI float64 = 0
	DefaultGainD float64 = 0
)

// Diagnostics is a rate limited sample of the control loop
type Diagnostics struct {
	Time           time.Time
	State          State
	AirPressure    float64
	BloodPressure  float64
	ClearPressure  float64
	PostPurge      float64
	TargetPressure float64
	Drive          uint16
}

// DiagnosticsRecorder receives diagnostics samples. Record must not block
type DiagnosticsRecorder interface {
	Record(d Diagnostics)
}

// ModuleReporter receives module level status changes
type ModuleReporter interface {
	SetModuleStatus(v status.Value)
}

// MachineConfig holds the collaborators and tuning of a Machine
type MachineConfig struct {
	Port            drivers.Port
	Intents         *IntentQueue
	Monitor         *ReservoirMonitor
	Reporter        ModuleReporter
	Store           *gux.Store
	Recorder        DiagnosticsRecorder
	GainP           float64
	GainI           float64
	GainD           float64
	StartupInterval time.Duration
	ControlInterval time.Duration
}

type nopReporter struct{}

func (nopReporter) SetModuleStatus(status.Value) {}

type output struct {
	id    drivers.Actuator
	value uint16
}

var (
	startupOutputs = []output{
		{drivers.SupplySolenoid, 0},
		{drivers.PurgeSolenoid, 0},
		{drivers.AuxSolenoid, 0},
		{drivers.MotorEnable, 0},
		{drivers.MotorDrive, 0},
		{drivers.Rail24V, 1},
	}
	pressurizeOutputs = []output{
		{drivers.Rail24V, 1},
		{drivers.MotorEnable, 1},
		{drivers.SupplySolenoid, 1},
		{drivers.PurgeSolenoid, 0},
		{drivers.AuxSolenoid, 0},
	}
	purgeOutputs = []output{
		{drivers.PurgeSolenoid, 0},
		{drivers.SupplySolenoid, 0},
		{drivers.AuxSolenoid, 0},
		{drivers.MotorEnable, 0},
		{drivers.MotorDrive, 0},
	}
	safeOutputs = []output{
		{drivers.MotorEnable, 0},
		{drivers.MotorDrive, 0},
		{drivers.Rail24V, 0},
		{drivers.SupplySolenoid, 0},
		{drivers.PurgeSolenoid, 0},
		{drivers.AuxSolenoid, 0},
	}
)

// Machine is the fluidics control state machine. Everything except its IntentQueue is owned by the goroutine calling
// Boot, Tick and Run
type Machine struct {
	port            drivers.Port
	intents         *IntentQueue
	monitor         *ReservoirMonitor
	reporter        ModuleReporter
	store           *gux.Store
	recorder        DiagnosticsRecorder
	pid             *pid.Regulator
	limiter         *RateLimiter
	startupInterval time.Duration
	controlInterval time.Duration
	logger          *zerolog.Logger

	state      State
	signals    Signals
	reservoirs ReservoirState
	air        float64
}

// NewMachine returns a Machine in Startup. Call Boot before the first Tick
func NewMachine(logger *zerolog.Logger, cfg MachineConfig) *Machine {
	if cfg.StartupInterval <= 0 {
		cfg.StartupInterval = DefaultStartupInterval
	}
	if cfg.ControlInterval <= 0 {
		cfg.ControlInterval = DefaultControlInterval
	}
	if cfg.Intents == nil {
		cfg.Intents = NewIntentQueue(DefaultIntentQueueSize)
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	return &Machine{
		port:            cfg.Port,
		intents:         cfg.Intents,
		monitor:         cfg.Monitor,
		reporter:        cfg.Reporter,
		store:           cfg.Store,
		recorder:        cfg.Recorder,
		pid:             pid.New(cfg.GainP, cfg.GainI, cfg.GainD),
		limiter:         NewRateLimiter(DefaultRateLimitModulus),
		startupInterval: cfg.StartupInterval,
		controlInterval: cfg.ControlInterval,
		logger:          logger,
		state:           Startup,
	}
}

// Intents returns the queue used to submit intents to this machine
func (m *Machine) Intents() *IntentQueue {
	return m.intents
}

// State returns the current control state
func (m *Machine) State() State {
	return m.state
}

// Signals returns the control signals as of the last tick
func (m *Machine) Signals() Signals {
	return m.signals
}

// Reservoirs returns the supply depletion flags
func (m *Machine) Reservoirs() ReservoirState {
	return m.reservoirs
}

// Interval returns the time to wait before the next tick
func (m *Machine) Interval() time.Duration {
	if m.state == Startup {
		return m.startupInterval
	}
	return m.controlInterval
}

// Boot drives the actuators to the startup baseline
func (m *Machine) Boot() {
	m.transition(Startup)
}

// Tick applies pending intents and runs one step of the current state
func (m *Machine) Tick() State {
	m.signals = m.intents.Drain(m.signals)
	next, err := m.step()
	if err != nil {
		m.logger.Error().Msgf("%v: %v", m.state, err)
		next = Error
	}
	if next != m.state {
		m.transition(next)
	}
	return m.state
}

// Run boots the machine and ticks it until ctx is done, then drives the actuators safe
func (m *Machine) Run(ctx context.Context) {
	m.Boot()
	timer := time.NewTimer(m.Interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Stopping control loop...")
			m.applySafe()
			m.reporter.SetModuleStatus(status.Inoperative)
			return
		case <-timer.C:
			m.Tick()
			timer.Reset(m.Interval())
		}
	}
}

func (m *Machine) step() (State, error) {
	switch m.state {
	case Startup:
		return m.stepStartup(), nil
	case Pressurizing:
		return m.stepPressurizing()
	case Operational:
		return m.stepOperational()
	case Purging:
		return m.stepPurging()
	}
	return Startup, nil
}

// transition enters next. A failed entry falls through to Error, whose entry cannot fail
func (m *Machine) transition(next State) {
	m.logger.Debug().Msgf("%v -> %v", m.state, next)
	if err := m.enter(next); err != nil {
		m.logger.Error().Msgf("Could not enter %v: %v", next, err)
		m.enter(Error)
	}
	m.publish()
}

func (m *Machine) enter(s State) error {
	m.state = s
	switch s {
	case Startup:
		m.logger.Info().Msg("Awaiting configuration...")
		return m.apply(startupOutputs...)
	case Pressurizing:
		m.logger.Info().Msgf("Pressurizing to %.2f psi...", m.signals.TargetPressure)
		return m.apply(pressurizeOutputs...)
	case Operational:
		m.logger.Info().Msg("System operational")
		return m.apply(pressurizeOutputs...)
	case Purging:
		m.logger.Info().Msg("Purging fluid lines...")
		return m.apply(purgeOutputs...)
	case Error:
		m.logger.Info().Msg("Disabling motor and resetting valves")
		m.applySafe()
		m.reporter.SetModuleStatus(status.Inoperative)
		m.signals.TargetKnown = false
		m.signals.StopRequested = false
		m.signals.PurgeRequested = false
	}
	return nil
}

func (m *Machine) apply(outs ...output) error {
	for _, o := range outs {
		if err := m.port.SetActuator(o.id, o.value); err != nil {
			return e.Wrapf(err, "could not set %v", o.id)
		}
	}
	return nil
}

// applySafe writes every safe output, logging rather than stopping on failures
func (m *Machine) applySafe() {
	for _, o := range safeOutputs {
		if err := m.port.SetActuator(o.id, o.value); err != nil {
			m.logger.Error().Msgf("Could not set %v: %v", o.id, err)
		}
	}
}

func (m *Machine) read(id drivers.Sensor) (float64, error) {
	raw, err := m.port.ReadSensor(id)
	if err != nil {
		return 0, e.Wrapf(err, "could not read %v", id)
	}
	return ToPressure(raw), nil
}

func (m *Machine) readAll(ids ...drivers.Sensor) ([]float64, error) {
	values := make([]float64, len(ids))
	for i, id := range ids {
		v, err := m.read(id)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// regulate runs one PID tick on the air supply and drives the motor. The integral is frozen while the motor stalls
func (m *Machine) regulate(air float64) (uint16, error) {
	m.pid.SetTarget(m.signals.TargetPressure)
	p := m.pid.Predict(air)
	cmd := DriveCommand(p.Output)
	if Stalled(cmd) {
		m.pid.CommitFrozen(p)
	} else {
		m.pid.Commit(p)
	}
	if err := m.port.SetActuator(drivers.MotorDrive, cmd); err != nil {
		return cmd, e.Wrap(err, "could not set motor drive")
	}
	return cmd, nil
}

func (m *Machine) refusePurge() {
	if m.signals.PurgeRequested {
		m.logger.Warn().Msg("Stop fluidics and connect the flushing adapter before starting a purge")
		m.signals.PurgeRequested = false
	}
}

func (m *Machine) stepStartup() State {
	if m.signals.TargetKnown {
		return Pressurizing
	}
	if m.signals.PurgeRequested {
		return Purging
	}
	return Startup
}

func (m *Machine) stepPressurizing() (State, error) {
	if m.signals.StopRequested {
		return Error, nil
	}
	m.refusePurge()
	air, err := m.read(drivers.AirSupply)
	if err != nil {
		return Error, err
	}
	m.air = air
	cmd, err := m.regulate(air)
	if err != nil {
		return Error, err
	}
	post, err := m.read(drivers.PostPurge)
	if err != nil {
		return Error, err
	}
	m.diagnose(Diagnostics{AirPressure: air, PostPurge: post, Drive: cmd})
	if air <= m.signals.TargetPressure-PressurizedMargin {
		return Pressurizing, nil
	}
	m.logger.Info().Msgf("Pressurization complete at %.2f psi", air)
	p, err := m.readAll(drivers.BloodSupply, drivers.ClearSupply)
	if err != nil {
		return Error, err
	}
	m.reservoirs = m.monitor.EvaluateAtPressurizationComplete(p[0], p[1], m.signals.TargetPressure)
	m.reporter.SetModuleStatus(status.Operational)
	return Operational, nil
}

func (m *Machine) stepOperational() (State, error) {
	if m.signals.StopRequested {
		return Error, nil
	}
	m.refusePurge()
	p, err := m.readAll(drivers.AirSupply, drivers.BloodSupply, drivers.ClearSupply, drivers.PostPurge)
	if err != nil {
		return Error, err
	}
	m.air = p[0]
	cmd, err := m.regulate(p[0])
	if err != nil {
		return Error, err
	}
	m.diagnose(Diagnostics{AirPressure: p[0], BloodPressure: p[1], ClearPressure: p[2], PostPurge: p[3], Drive: cmd})
	before := m.reservoirs
	m.reservoirs = m.monitor.EvaluateDuringOperation(p[1], p[2], m.signals.TargetPressure, m.reservoirs)
	if m.reservoirs != before {
		m.publish()
	}
	return Operational, nil
}

func (m *Machine) stepPurging() (State, error) {
	if m.signals.StopRequested || !m.signals.PurgeRequested {
		return Error, nil
	}
	p, err := m.readAll(drivers.AirSupply, drivers.BloodSupply, drivers.ClearSupply, drivers.PostPurge)
	if err != nil {
		return Error, err
	}
	m.air = p[0]
	var cmd uint16
	if p[0] < PurgeVentedPressure {
		cmd = drivers.MaxDrive
		if err := m.apply(output{drivers.PurgeSolenoid, 1}, output{drivers.MotorEnable, 1}, output{drivers.MotorDrive, cmd}); err != nil {
			return Error, err
		}
	}
	if p[0] > PurgeInterlockPressure {
		cmd = 0
		if err := m.apply(output{drivers.MotorDrive, 0}); err != nil {
			return Error, err
		}
	}
	m.diagnose(Diagnostics{AirPressure: p[0], BloodPressure: p[1], ClearPressure: p[2], PostPurge: p[3], Drive: cmd})
	return Purging, nil
}

// diagnose emits one in every DefaultRateLimitModulus samples
func (m *Machine) diagnose(d Diagnostics) {
	if !m.limiter.ShouldEmit() {
		return
	}
	d.Time = time.Now()
	d.State = m.state
	d.TargetPressure = m.signals.TargetPressure
	m.logger.Debug().
		Str("state", d.State.String()).
		Float64("air", d.AirPressure).
		Float64("blood", d.BloodPressure).
		Float64("clear", d.ClearPressure).
		Float64("post_purge", d.PostPurge).
		Uint16("drive", d.Drive).
		Msg("diagnostics")
	if m.recorder != nil {
		m.recorder.Record(d)
	}
	m.publish()
}

// publish writes the control snapshot to the store
func (m *Machine) publish() {
	if m.store == nil {
		return
	}
	err := m.store.Dispatch(status.UpdateControlAction(status.ControlSnapshot{
		State:          m.state.String(),
		BloodEmpty:     m.reservoirs.BloodEmpty,
		ClearEmpty:     m.reservoirs.ClearEmpty,
		AirPressure:    m.air,
		TargetPressure: m.signals.TargetPressure,
		TargetKnown:    m.signals.TargetKnown,
	}))
	if err != nil {
		m.logger.Error().Msgf("Could not update state: %v", err)
	}
}
