package drivers

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// pressure gained per second at full motor drive
	simPumpRate float64 = 8.0
	// fraction of air pressure lost per second with the supply solenoid open
	simLeakRate float64 = 0.05
	// fraction of air pressure lost per second with the supply solenoid closed
	simVentRate float64 = 2.0
	// rate at which a connected reservoir tracks the air supply
	simFollowRate float64 = 5.0
)

// SimPlant is a first order model of the pneumatic plant. It satisfies RawIO so it can sit behind a TopologyPort
type SimPlant struct {
	sync.Mutex
	gpio       map[int]bool
	dac        map[int]uint16
	air        float64
	blood      float64
	clear      float64
	post       float64
	bloodEmpty bool
	clearEmpty bool
	closed     bool
	last       time.Time
	now        func() time.Time
	logger     *zerolog.Logger
}

// Compile time checks
var _ RawIO = (*SimPlant)(nil)
var _ DriverConnection = (*SimPlant)(nil)

// NewSimPlant returns a simulated plant at atmospheric pressure
func NewSimPlant(logger *zerolog.Logger) *SimPlant {
	return newSimPlantWithClock(logger, time.Now)
}

func newSimPlantWithClock(logger *zerolog.Logger, now func() time.Time) *SimPlant {
	return &SimPlant{
		gpio:   make(map[int]bool),
		dac:    make(map[int]uint16),
		last:   now(),
		now:    now,
		logger: logger,
	}
}

// SetReservoirEmpty drains a simulated reservoir so the reservoir monitor can be exercised
func (s *SimPlant) SetReservoirEmpty(sensor Sensor, empty bool) {
	s.Lock()
	defer s.Unlock()
	s.advance()
	switch sensor {
	case BloodSupply:
		s.bloodEmpty = empty
	case ClearSupply:
		s.clearEmpty = empty
	}
	s.logger.Info().Msgf("%v reservoir empty set to %v", sensor, empty)
}

// SetGPIO implements the RawIO interface
func (s *SimPlant) SetGPIO(pin int, high bool) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return ErrPortClosed
	}
	s.advance()
	s.gpio[pin] = high
	return nil
}

// SetDAC implements the RawIO interface
func (s *SimPlant) SetDAC(channel int, value uint16) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return ErrPortClosed
	}
	s.advance()
	if value > MaxDrive {
		value = MaxDrive
	}
	s.dac[channel] = value
	return nil
}

// ReadADC implements the RawIO interface
func (s *SimPlant) ReadADC(channel int) (uint32, error) {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return 0, ErrPortClosed
	}
	s.advance()
	var p float64
	switch channel {
	case SensorTopology[AirSupply].Index:
		p = s.air
	case SensorTopology[BloodSupply].Index:
		p = s.blood
	case SensorTopology[ClearSupply].Index:
		p = s.clear
	case SensorTopology[PostPurge].Index:
		p = s.post
	default:
		return 0, ErrUnknownSensor
	}
	return RawFromPressure(p), nil
}

// Close implements the DriverConnection interface
func (s *SimPlant) Close() {
	s.Lock()
	defer s.Unlock()
	s.closed = true
}

func (s *SimPlant) output(id Actuator) bool {
	return s.gpio[ActuatorTopology[id].Index]
}

// advance integrates the plant from the last update to now. Caller must hold the lock
func (s *SimPlant) advance() {
	now := s.now()
	dt := now.Sub(s.last).Seconds()
	s.last = now
	if dt <= 0 {
		return
	}
	s.step(dt)
}

func (s *SimPlant) step(dt float64) {
	supplyOpen := s.output(SupplySolenoid)
	purgeOpen := s.output(PurgeSolenoid)
	if s.output(Rail24V) && s.output(MotorEnable) {
		drive := float64(s.dac[ActuatorTopology[MotorDrive].Index]) / float64(MaxDrive)
		s.air += simPumpRate * drive * dt
	}
	loss := simLeakRate
	if !supplyOpen {
		loss = simVentRate
	}
	s.air -= s.air * clampUnit(loss*dt)
	if s.air < 0 {
		s.air = 0
	}
	s.blood = s.reservoir(s.blood, supplyOpen, s.bloodEmpty, dt)
	s.clear = s.reservoir(s.clear, supplyOpen, s.clearEmpty, dt)
	if purgeOpen {
		s.post += (s.air - s.post) * clampUnit(simFollowRate*dt)
	} else {
		s.post -= s.post * clampUnit(simVentRate*dt)
	}
}

func (s *SimPlant) reservoir(p float64, supplyOpen, empty bool, dt float64) float64 {
	switch {
	case empty:
		return p - p*clampUnit(simVentRate*dt)
	case supplyOpen:
		return p + (s.air-p)*clampUnit(simFollowRate*dt)
	}
	return p
}

func clampUnit(f float64) float64 {
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}
