/*
Copyright (C) 2015-2018 Lightning Labs and The Lightning Network Developers

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package fluidd

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/SSSOC-CAN/fluidd/command"
	"github.com/SSSOC-CAN/fluidd/drivers"
	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/SSSOC-CAN/fluidd/fluidics"
	"github.com/SSSOC-CAN/fluidd/health"
	"github.com/SSSOC-CAN/fluidd/intercept"
	"github.com/SSSOC-CAN/fluidd/status"
	"github.com/SSSOC-CAN/fluidd/telemetry"
	"github.com/SSSOC-CAN/fluidd/utils"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

var (
	// settleDelay lets subscribers connect before the module announces itself
	settleDelay           = 250 * time.Millisecond
	controlLoopHealthName = "control_loop"
)

// Main is the true entry point for fluidd. It's called in a nested manner for proper defer execution
func Main(interceptor *intercept.Interceptor, server *Server) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := server.Start()
	if err != nil {
		server.logger.Fatal().Msg("Could not start server")
		return err
	}
	defer server.Stop()

	identity := status.Identity{ID: xid.New().String(), Name: server.cfg.ModuleName}
	NewSubLogger(server.logger, "FLUI").Log("INFO", "Module ID: "+identity.ID)

	statLogger := &NewSubLogger(server.logger, "STAT").SubLogger
	store := status.NewStore()
	healthChecker := health.NewHealthService(&NewSubLogger(server.logger, "HLTH").SubLogger)
	defer healthChecker.Shutdown()
	sink := status.MultiSink{
		status.NewLogSink(statLogger),
		status.NewStoreSink(statLogger, store),
		healthChecker,
	}
	reporter := status.NewReporter(statLogger, identity, sink, server.cfg.StatusInterval)

	server.logger.Info().Msgf("Opening %s hardware driver...", server.cfg.Driver)
	port, conn, err := openPort(server.cfg, &NewSubLogger(server.logger, "SIMU").SubLogger)
	if err != nil {
		server.logger.Error().Msgf("Could not open hardware driver: %v", err)
		return err
	}
	defer conn.Close()

	var (
		services []Service
		recorder fluidics.DiagnosticsRecorder
	)
	if server.cfg.InfluxURL != "" {
		telemetryService := telemetry.NewTelemetryService(
			&NewSubLogger(server.logger, "TELE").SubLogger,
			server.cfg.ModuleName,
			server.cfg.InfluxURL,
			server.cfg.InfluxAPIToken,
			server.cfg.InfluxOrg,
			server.cfg.InfluxBucket,
		)
		recorder = telemetryService
		services = append(services, telemetryService)
	}

	fluiLogger := &NewSubLogger(server.logger, "FLUI").SubLogger
	machine := fluidics.NewMachine(fluiLogger, fluidics.MachineConfig{
		Port:            port,
		Intents:         fluidics.NewIntentQueue(fluidics.DefaultIntentQueueSize),
		Monitor:         fluidics.NewReservoirMonitor(fluiLogger, identity, sink),
		Reporter:        reporter,
		Store:           store,
		Recorder:        recorder,
		GainP:           server.cfg.GainP,
		GainI:           server.cfg.GainI,
		GainD:           server.cfg.GainD,
		StartupInterval: server.cfg.StartupInterval,
		ControlInterval: server.cfg.ControlInterval,
	})
	fluidicsService := fluidics.NewFluidicsService(fluiLogger, machine)
	handler := command.NewHandler(
		&NewSubLogger(server.logger, "CMND").SubLogger,
		fluidicsService,
		command.NewFileConfigSource(server.cfg.FluidicsConfigPath),
	)

	rpcServer, err := NewRpcServer(interceptor, server.cfg, server.logger, handler, store)
	if err != nil {
		server.logger.Fatal().Msgf("Could not initialize RPC server: %v", err)
		return err
	}
	server.logger.Info().Msg("RPC Server Initialized.")
	grpcInterceptor := intercept.NewGrpcInterceptor(rpcServer.SubLogger)
	grpc_server := grpc.NewServer(grpcInterceptor.CreateGrpcOptions()...)
	defer grpc_server.Stop()
	rpcServer.RegisterWithGrpcServer(grpc_server)
	healthChecker.RegisterWithGrpcServer(grpc_server)
	for name, s := range map[string]health.RegisteredHealthService{
		rpcServer.Name():      rpcServer,
		controlLoopHealthName: fluidicsService,
	} {
		if err := healthChecker.RegisterHealthService(name, s); err != nil {
			server.logger.Error().Msgf("Could not register %s with health check server: %v", name, err)
			return err
		}
	}

	err = rpcServer.Start()
	if err != nil {
		server.logger.Fatal().Msgf("Could not start RPC server: %v", err)
		return err
	}
	defer rpcServer.Stop()
	err = startGrpcListen(grpc_server, rpcServer.Listener)
	if err != nil {
		rpcServer.SubLogger.Fatal().Msgf("Could not start gRPC listen on %v:%v", rpcServer.Listener.Addr(), err)
		return err
	}
	rpcServer.SubLogger.Info().Msgf("gRPC listening on %v", rpcServer.Listener.Addr())

	select {
	case <-time.After(settleDelay):
	case <-interceptor.ShutdownChannel():
		return nil
	}
	announce(sink, identity, server.cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reporter.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		healthChecker.Run(ctx, health.DefaultPingInterval)
	}()
	// services stop before the reporter publishes its final status
	defer func() {
		cancel()
		wg.Wait()
	}()

	services = append(services, fluidicsService)
	started := []Service{}
	cleanUpServices := func() {
		for i := len(started) - 1; i > -1; i-- {
			err := started[i].Stop()
			if err != nil {
				server.logger.Error().Msgf("Unable to stop %s service: %v", started[i].Name(), err)
			}
		}
	}
	defer cleanUpServices()
	for _, s := range services {
		err = s.Start()
		if err != nil {
			server.logger.Error().Msgf("Unable to start %s service: %v", s.Name(), err)
			return err
		}
		started = append(started, s)
	}

	grpcInterceptor.SetReady(true)
	defer grpcInterceptor.SetReady(false)
	server.logger.Info().Msg("fluidd started successfully and ready to use")
	<-interceptor.ShutdownChannel()
	return nil
}

// openPort opens the configured hardware driver and returns its port and connection
func openPort(cfg *Config, logger *zerolog.Logger) (drivers.Port, drivers.DriverConnection, error) {
	switch cfg.Driver {
	case "sim":
		plant := drivers.NewSimPlant(logger)
		return drivers.NewTopologyPort(plant), plant, nil
	}
	return nil, nil, errors.ErrUnknownDriver
}

// announce writes the operational description and module configuration
func announce(a status.Announcer, id status.Identity, cfg *Config) {
	a.WriteOperationalDescription(status.NewOperationalDescription(id, utils.ReadFileOrEmpty(cfg.CapabilitiesPath)))
	a.WriteModuleConfiguration(status.NewModuleConfiguration(id, utils.ReadFileOrEmpty(cfg.FluidicsConfigPath), time.Now()))
}

// startGrpcListen starts the gRPC server on the provided listener
func startGrpcListen(grpcServer *grpc.Server, listener net.Listener) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func(lis net.Listener) {
		wg.Done()
		_ = grpcServer.Serve(lis)
	}(listener)
	wg.Wait()
	return nil
}
