package intercept

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestInterceptor tests that a shutdown request closes the shutdown channel and cancels the derived context
func TestInterceptor(t *testing.T) {
	interceptor, err := InitInterceptor()
	if err != nil {
		t.Fatalf("Could not initialize interceptor: %v", err)
	}
	interceptor.SetLogger(zerolog.Nop())
	if _, err := InitInterceptor(); err != ErrInterceptorStarted {
		t.Errorf("Expected %v when initializing twice, received: %v", ErrInterceptorStarted, err)
	}
	ctx, cancel := interceptor.Context()
	defer cancel()
	interceptor.RequestShutdown()
	select {
	case <-interceptor.ShutdownChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown channel not closed")
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Context not cancelled after shutdown")
	}
	// requesting again after shutdown must not block
	interceptor.RequestShutdown()
}
