// Package command turns operator commands into fluidics intents
package command

import (
	"context"
	"strings"

	"github.com/SSSOC-CAN/fluidd/fluidics"
	"github.com/rs/zerolog"
)

const (
	SysPrefix     = "[SYS]"
	StartFluidics = "START_FLUIDICS"
	StopFluidics  = "STOP_FLUIDICS"
	StartPurge    = "START_PURGE"
	StopPurge     = "STOP_PURGE"
)

// IntentSubmitter accepts intents for the control loop
type IntentSubmitter interface {
	Submit(ctx context.Context, i fluidics.Intent) error
}

// Handler parses command text and submits the matching intent. It never reads control loop state
type Handler struct {
	intents IntentSubmitter
	source  ConfigSource
	logger  *zerolog.Logger
}

func NewHandler(logger *zerolog.Logger, intents IntentSubmitter, source ConfigSource) *Handler {
	return &Handler{
		intents: intents,
		source:  source,
		logger:  logger,
	}
}

// Format returns the command text for verb
func Format(verb string) string {
	return SysPrefix + verb
}

// OnCommand handles one inbound command. Text without the prefix and unknown verbs are ignored
func (h *Handler) OnCommand(ctx context.Context, text string) {
	if !strings.HasPrefix(text, SysPrefix) {
		return
	}
	verb := strings.TrimPrefix(text, SysPrefix)
	var intent fluidics.Intent
	switch verb {
	case StartFluidics:
		h.logger.Debug().Msg("Received start fluidics command")
		p, err := h.source.OperatingPressure()
		if err != nil {
			if err == ErrFluidicsDisabled {
				h.logger.Warn().Msg("Fluidics capability disabled, not starting")
			} else {
				h.logger.Error().Msgf("Could not load operating pressure: %v", err)
			}
			return
		}
		h.logger.Info().Msgf("Setting operating pressure to %.2f psi", p)
		intent = fluidics.Intent{Kind: fluidics.IntentStartFluidics, TargetPressure: p}
	case StopFluidics:
		h.logger.Debug().Msg("Received stop fluidics command")
		intent = fluidics.Intent{Kind: fluidics.IntentStopFluidics}
	case StartPurge:
		h.logger.Debug().Msg("Received start purge command")
		intent = fluidics.Intent{Kind: fluidics.IntentStartPurge}
	case StopPurge:
		h.logger.Debug().Msg("Received stop purge command")
		intent = fluidics.Intent{Kind: fluidics.IntentStopPurge}
	default:
		return
	}
	if err := h.intents.Submit(ctx, intent); err != nil {
		h.logger.Error().Msgf("Could not submit %v intent: %v", intent.Kind, err)
	}
}
