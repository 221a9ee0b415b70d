package errors

import (
	bg "github.com/SSSOCPaulCote/blunderguard"
)

// Errors shared by every fluidd service. Declared as constants so they can be compared directly
const (
	ErrServiceAlreadyStarted = bg.Error("service already started")
	ErrServiceAlreadyStopped = bg.Error("service already stopped")
	ErrInvalidType           = bg.Error("invalid type")
	ErrInvalidAction         = bg.Error("invalid action")
	ErrUnknownDriver         = bg.Error("unknown hardware driver")
	ErrServiceNotRunning     = bg.Error("service not running")
)
