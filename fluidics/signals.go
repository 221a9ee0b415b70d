package fluidics

import (
	"context"
)

// Signals are the control inputs of the state machine. They are owned by the control loop
type Signals struct {
	TargetKnown    bool
	StopRequested  bool
	PurgeRequested bool
	TargetPressure float64
}

type IntentKind int

const (
	IntentStartFluidics IntentKind = iota
	IntentStopFluidics
	IntentStartPurge
	IntentStopPurge
)

func (k IntentKind) String() string {
	switch k {
	case IntentStartFluidics:
		return "start fluidics"
	case IntentStopFluidics:
		return "stop fluidics"
	case IntentStartPurge:
		return "start purge"
	case IntentStopPurge:
		return "stop purge"
	}
	return "unknown"
}

// Intent is a request from the command interface to change the control signals
type Intent struct {
	Kind           IntentKind
	TargetPressure float64
}

// Apply returns s with the intent applied
func (s Signals) Apply(i Intent) Signals {
	switch i.Kind {
	case IntentStartFluidics:
		s.TargetPressure = i.TargetPressure
		s.TargetKnown = true
	case IntentStopFluidics:
		s.StopRequested = true
	case IntentStartPurge:
		s.PurgeRequested = true
	case IntentStopPurge:
		s.PurgeRequested = false
	}
	return s
}

var (
	DefaultIntentQueueSize = 16
)

// IntentQueue carries intents from any goroutine to the control loop
type IntentQueue struct {
	intents chan Intent
}

func NewIntentQueue(size int) *IntentQueue {
	if size <= 0 {
		size = DefaultIntentQueueSize
	}
	return &IntentQueue{intents: make(chan Intent, size)}
}

// Submit queues an intent, blocking until there is room or ctx is done
func (q *IntentQueue) Submit(ctx context.Context, i Intent) error {
	select {
	case q.intents <- i:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain applies every queued intent to s without blocking
func (q *IntentQueue) Drain(s Signals) Signals {
	for {
		select {
		case i := <-q.intents:
			s = s.Apply(i)
		default:
			return s
		}
	}
}
