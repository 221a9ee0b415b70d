// Package telemetry records rate limited fluidics diagnostics to InfluxDB
package telemetry

import (
	"crypto/tls"
	"sync"
	"sync/atomic"

	"github.com/SSSOC-CAN/fluidd/errors"
	"github.com/SSSOC-CAN/fluidd/fluidics"
	influx "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

var (
	TelemetryName       = "TELEMETRY"
	PressureMeasurement = "pressure"
	DefaultSampleBuffer = 256
)

// TelemetryService writes diagnostics samples to InfluxDB without ever blocking the control loop
type TelemetryService struct {
	Running  int32
	Logger   *zerolog.Logger
	QuitChan chan struct{}
	name     string
	module   string
	org      string
	bucket   string
	idb      influx.Client
	writer   api.WriteAPI
	samples  chan fluidics.Diagnostics
	dropped  uint64
	wg       sync.WaitGroup
	errsDone chan struct{}
}

// Compile time check that TelemetryService is a diagnostics recorder
var _ fluidics.DiagnosticsRecorder = (*TelemetryService)(nil)

// NewTelemetryService creates a new Telemetry Service writing to the given InfluxDB org and bucket
func NewTelemetryService(
	logger *zerolog.Logger,
	moduleName string,
	influxUrl string,
	influxToken string,
	org string,
	bucket string,
) *TelemetryService {
	client := influx.NewClientWithOptions(influxUrl, influxToken, influx.DefaultOptions().SetTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	return &TelemetryService{
		Logger:   logger,
		QuitChan: make(chan struct{}),
		name:     TelemetryName,
		module:   moduleName,
		org:      org,
		bucket:   bucket,
		idb:      client,
		samples:  make(chan fluidics.Diagnostics, DefaultSampleBuffer),
	}
}

// Start starts the service. Returns an error if any issues occur
func (s *TelemetryService) Start() error {
	s.Logger.Info().Msg("Starting Telemetry Service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 0, 1); !ok {
		return errors.ErrServiceAlreadyStarted
	}
	s.writer = s.idb.WriteAPI(s.org, s.bucket)
	s.errsDone = make(chan struct{})
	go s.logWriteErrors(s.writer.Errors())
	s.wg.Add(1)
	go s.record()
	s.Logger.Info().Msg("Telemetry Service started.")
	return nil
}

// Stop stops the service. Returns an error if any issues occur
func (s *TelemetryService) Stop() error {
	s.Logger.Info().Msg("Stopping Telemetry Service...")
	if ok := atomic.CompareAndSwapInt32(&s.Running, 1, 0); !ok {
		return errors.ErrServiceAlreadyStopped
	}
	close(s.QuitChan)
	s.wg.Wait()
	// write errors are drained until Close closes the error channel
	s.writer.Flush()
	s.idb.Close()
	<-s.errsDone
	if d := atomic.LoadUint64(&s.dropped); d > 0 {
		s.Logger.Warn().Msgf("Dropped %v diagnostics samples", d)
	}
	s.Logger.Info().Msg("Telemetry Service stopped.")
	return nil
}

// Name satisfies the service interface
func (s *TelemetryService) Name() string {
	return s.name
}

// Record implements the fluidics.DiagnosticsRecorder interface. Samples are dropped when the buffer is full
func (s *TelemetryService) Record(d fluidics.Diagnostics) {
	if atomic.LoadInt32(&s.Running) != 1 {
		return
	}
	select {
	case s.samples <- d:
	default:
		atomic.AddUint64(&s.dropped, 1)
	}
}

func (s *TelemetryService) record() {
	defer s.wg.Done()
	for {
		select {
		case d := <-s.samples:
			s.writer.WritePoint(newPressurePoint(s.module, d))
		case <-s.QuitChan:
			return
		}
	}
}

func (s *TelemetryService) logWriteErrors(errs <-chan error) {
	defer close(s.errsDone)
	for err := range errs {
		s.Logger.Error().Msgf("Could not write to InfluxDB: %v", err)
	}
}

// newPressurePoint converts a diagnostics sample into an InfluxDB point
func newPressurePoint(module string, d fluidics.Diagnostics) *write.Point {
	return influx.NewPoint(
		PressureMeasurement,
		map[string]string{
			"module": module,
			"state":  d.State.String(),
		},
		map[string]interface{}{
			"air":        d.AirPressure,
			"blood":      d.BloodPressure,
			"clear":      d.ClearPressure,
			"post_purge": d.PostPurge,
			"target":     d.TargetPressure,
			"drive":      int64(d.Drive),
		},
		d.Time,
	)
}
