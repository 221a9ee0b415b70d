package fluidics

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/rs/zerolog"
)

var (
	ServiceName = "fluidics"
)

// FluidicsService runs the control state machine on its own goroutine
type FluidicsService struct {
	Running int32
	machine *Machine
	logger  *zerolog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFluidicsService wraps a Machine in a startable service
func NewFluidicsService(logger *zerolog.Logger, machine *Machine) *FluidicsService {
	return &FluidicsService{
		machine: machine,
		logger:  logger,
	}
}

// Start starts the control loop. Returns an error if the service is already running
func (s *FluidicsService) Start() error {
	s.logger.Info().Msg("Starting Fluidics Service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.machine.Run(ctx)
	}()
	s.logger.Info().Msg("Fluidics Service started.")
	return nil
}

// Stop cancels the control loop and waits for it to drive the actuators safe
func (s *FluidicsService) Stop() error {
	s.logger.Info().Msg("Stopping Fluidics Service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Fluidics Service stopped.")
	return nil
}

// Name satisfies the service interface
func (s *FluidicsService) Name() string {
	return ServiceName
}

// Submit forwards an intent to the control loop
func (s *FluidicsService) Submit(ctx context.Context, i Intent) error {
	return s.machine.Intents().Submit(ctx, i)
}

// Ping reports whether the control loop is running
func (s *FluidicsService) Ping(ctx context.Context) error {
	if atomic.LoadInt32(&s.Running) != 1 {
		return errors.ErrServiceNotRunning
	}
	return ctx.Err()
}
