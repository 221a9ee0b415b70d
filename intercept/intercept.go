// Package intercept watches for operating system signals and shutdown requests and fans them out to the daemon
package intercept

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	bg "github.com/SSSOCPaulCote/blunderguard"
	"github.com/rs/zerolog"
)

const (
	ErrInterceptorStarted = bg.Error("interceptor already initialized")
)

var (
	started int32
)

// Interceptor is the object controlling application shutdown requests
type Interceptor struct {
	interruptChannel       chan os.Signal
	shutdownChannel        chan struct{}
	shutdownRequestChannel chan struct{}
	quit                   chan struct{}
	logger                 zerolog.Logger
}

// mainInterruptHandler listens for interrupt signals on the interruptChannel and shutdown requests on the
// shutdownRequestChannel.
func (interceptor *Interceptor) mainInterruptHandler() {
	defer atomic.StoreInt32(&started, 0)
	var isShutdown bool
	shutdown := func() {
		if isShutdown {
			interceptor.logger.Info().Msg("Already shutting down...")
			return
		}
		isShutdown = true
		interceptor.logger.Info().Msg("Shutting down...")
		close(interceptor.quit)
	}
	for {
		select {
		case sig := <-interceptor.interruptChannel:
			interceptor.logger.Info().Msgf("Received %v", sig)
			shutdown()
		case <-interceptor.shutdownRequestChannel:
			interceptor.logger.Info().Msg("Received shutdown request.")
			shutdown()
		case <-interceptor.quit:
			interceptor.logger.Info().Msg("Gracefully shutting down.")
			close(interceptor.shutdownChannel)
			signal.Stop(interceptor.interruptChannel)
			return
		}
	}
}

// RequestShutdown initiates a graceful shutdown from the application.
func (interceptor *Interceptor) RequestShutdown() {
	select {
	case interceptor.shutdownRequestChannel <- struct{}{}:
	case <-interceptor.quit:
	}
}

// ShutdownChannel returns the channel that will be closed once the main
// interrupt handler has exited.
func (interceptor *Interceptor) ShutdownChannel() <-chan struct{} {
	return interceptor.shutdownChannel
}

// Context returns a context which is cancelled once shutdown completes
func (interceptor *Interceptor) Context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-interceptor.shutdownChannel:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// SetLogger replaces the logger used to report shutdown progress
func (interceptor *Interceptor) SetLogger(logger zerolog.Logger) {
	interceptor.logger = logger
}

// InitInterceptor initializes the shutdown and interrupt interceptor
func InitInterceptor() (*Interceptor, error) {
	if !atomic.CompareAndSwapInt32(&started, 0, 1) {
		return nil, ErrInterceptorStarted
	}
	interceptor := &Interceptor{
		interruptChannel:       make(chan os.Signal, 1),
		shutdownChannel:        make(chan struct{}),
		shutdownRequestChannel: make(chan struct{}),
		quit:                   make(chan struct{}),
		logger:                 zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
	signalsToCatch := []os.Signal{
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	}
	signal.Notify(interceptor.interruptChannel, signalsToCatch...)
	go interceptor.mainInterruptHandler()
	return interceptor, nil
}
