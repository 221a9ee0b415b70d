package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/SSSOC-CAN/fluidd/fluidics"
	"github.com/rs/zerolog"
)

type recordingSubmitter struct {
	intents []fluidics.Intent
}

func (r *recordingSubmitter) Submit(_ context.Context, i fluidics.Intent) error {
	r.intents = append(r.intents, i)
	return nil
}

type staticSource struct {
	pressure float64
	err      error
	calls    int
}

func (s *staticSource) OperatingPressure() (float64, error) {
	s.calls++
	return s.pressure, s.err
}

// TestOnCommand tests that each verb maps to its intent and everything else is ignored
func TestOnCommand(t *testing.T) {
	logger := zerolog.Nop()
	cases := []struct {
		text     string
		expected []fluidics.Intent
	}{
		{Format(StartFluidics), []fluidics.Intent{{Kind: fluidics.IntentStartFluidics, TargetPressure: 20}}},
		{Format(StopFluidics), []fluidics.Intent{{Kind: fluidics.IntentStopFluidics}}},
		{Format(StartPurge), []fluidics.Intent{{Kind: fluidics.IntentStartPurge}}},
		{Format(StopPurge), []fluidics.Intent{{Kind: fluidics.IntentStopPurge}}},
		{"START_PURGE", nil},
		{"[SYS]REBOOT", nil},
		{"[SYS]", nil},
		{"", nil},
		{"[ACT]START_FLUIDICS", nil},
		{"[SYS] START_FLUIDICS", nil},
		{"[SYS]STOP_PURGE\n", nil},
		{"[SYS]start_purge", nil},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			submitter := &recordingSubmitter{}
			h := NewHandler(&logger, submitter, &staticSource{pressure: 20})
			h.OnCommand(context.Background(), c.text)
			if len(submitter.intents) != len(c.expected) {
				t.Fatalf("Expected %v, received %v", c.expected, submitter.intents)
			}
			for i := range c.expected {
				if submitter.intents[i] != c.expected[i] {
					t.Errorf("Expected %v, received %v", c.expected[i], submitter.intents[i])
				}
			}
		})
	}
}

// TestStartFluidicsConfigFault tests that configuration faults submit nothing
func TestStartFluidicsConfigFault(t *testing.T) {
	logger := zerolog.Nop()
	for _, err := range []error{ErrFluidicsDisabled, ErrMissingOperatingPressure, ErrNoFluidicsCapability} {
		t.Run(err.Error(), func(t *testing.T) {
			submitter := &recordingSubmitter{}
			source := &staticSource{err: err}
			NewHandler(&logger, submitter, source).OnCommand(context.Background(), Format(StartFluidics))
			if source.calls != 1 {
				t.Errorf("Expected configuration to be loaded once, loaded %v times", source.calls)
			}
			if len(submitter.intents) != 0 {
				t.Errorf("Intent submitted despite configuration fault: %v", submitter.intents)
			}
		})
	}
}

// TestParseOperatingPressure tests parsing of capability configuration documents
func TestParseOperatingPressure(t *testing.T) {
	cases := []struct {
		name     string
		doc      string
		pressure float64
		err      error
	}{
		{"enabled", "Fluidics:\n  Enable: true\n  OperatingPressure: 20.5\n", 20.5, nil},
		{"implicit enable", "Fluidics:\n  OperatingPressure: 12\n", 12, nil},
		{"disabled", "Fluidics:\n  Enable: false\n  OperatingPressure: 20\n", 0, ErrFluidicsDisabled},
		{"missing capability", "Other:\n  Enable: true\n", 0, ErrNoFluidicsCapability},
		{"missing pressure", "Fluidics:\n  Enable: true\n", 0, ErrMissingOperatingPressure},
		{"negative pressure", "Fluidics:\n  OperatingPressure: -3\n", 0, ErrInvalidOperatingPressure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := ParseOperatingPressure([]byte(c.doc))
			if err != c.err {
				t.Fatalf("Expected error %v, received %v", c.err, err)
			}
			if p != c.pressure {
				t.Errorf("Expected %v psi, received %v", c.pressure, p)
			}
		})
	}
	if _, err := ParseOperatingPressure([]byte("Fluidics: [")); err == nil {
		t.Error("Expected an error for malformed yaml")
	}
}

// TestFileConfigSource tests that the file is re-read on every request
func TestFileConfigSource(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fluidics.yaml")
	source := NewFileConfigSource(p)
	if _, err := source.OperatingPressure(); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if err := os.WriteFile(p, []byte("Fluidics:\n  OperatingPressure: 15\n"), 0644); err != nil {
		t.Fatalf("Could not write configuration: %v", err)
	}
	if v, err := source.OperatingPressure(); err != nil || v != 15 {
		t.Fatalf("Unexpected result: %v %v", v, err)
	}
	if err := os.WriteFile(p, []byte("Fluidics:\n  OperatingPressure: 18\n"), 0644); err != nil {
		t.Fatalf("Could not write configuration: %v", err)
	}
	if v, err := source.OperatingPressure(); err != nil || v != 18 {
		t.Errorf("Configuration not re-read: %v %v", v, err)
	}
}
