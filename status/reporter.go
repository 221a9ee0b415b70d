package status

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	DefaultStatusInterval = 50 * time.Millisecond
)

// Reporter holds the module level status and republishes it to a Sink whenever it changes.
// SetModuleStatus may be called from any goroutine
type Reporter struct {
	current  int32
	changed  int32
	identity Identity
	sink     Sink
	interval time.Duration
	logger   *zerolog.Logger
}

// NewReporter returns a Reporter starting Inoperative
func NewReporter(logger *zerolog.Logger, id Identity, sink Sink, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &Reporter{
		current:  int32(Inoperative),
		identity: id,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// SetModuleStatus records a new module status and flags it for publishing
func (r *Reporter) SetModuleStatus(v Value) {
	atomic.StoreInt32(&r.current, int32(v))
	atomic.StoreInt32(&r.changed, 1)
}

// Current returns the last recorded module status
func (r *Reporter) Current() Value {
	return Value(atomic.LoadInt32(&r.current))
}

// Publish writes the current module status to the sink if it changed since the last publish
func (r *Reporter) Publish() bool {
	if !atomic.CompareAndSwapInt32(&r.changed, 1, 0) {
		return false
	}
	v := r.Current()
	r.logger.Info().Msgf("Setting status to %v", v)
	r.sink.WriteStatus(r.identity.Event(ModuleLevel, v, ""))
	return true
}

// Run publishes status changes every interval until ctx is done
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Publish()
			return
		case <-ticker.C:
			r.Publish()
		}
	}
}
