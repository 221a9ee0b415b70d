package fluidics

import (
	"github.com/SSSOC-CAN/fluidd/status"
	"github.com/rs/zerolog"
)

const (
	// ReservoirMargin is how far below target a reservoir may sit and still be available
	ReservoirMargin float64 = 1.0
)

// ReservoirState holds the latched supply depletion flags
type ReservoirState struct {
	BloodEmpty bool
	ClearEmpty bool
}

type reservoir struct {
	capability status.Capability
	emptyMsg   string
}

var (
	bloodReservoir = reservoir{capability: status.BloodSupply, emptyMsg: "Blood supply empty"}
	clearReservoir = reservoir{capability: status.ClearSupply, emptyMsg: "Clear supply empty"}
)

// ReservoirMonitor derives supply availability from reservoir pressure and reports capability status
type ReservoirMonitor struct {
	identity status.Identity
	sink     status.Sink
	logger   *zerolog.Logger
}

func NewReservoirMonitor(logger *zerolog.Logger, id status.Identity, sink status.Sink) *ReservoirMonitor {
	return &ReservoirMonitor{
		identity: id,
		sink:     sink,
		logger:   logger,
	}
}

// EvaluateAtPressurizationComplete recomputes both flags and reports one event per capability
func (m *ReservoirMonitor) EvaluateAtPressurizationComplete(pBlood, pClear, target float64) ReservoirState {
	return ReservoirState{
		BloodEmpty: m.evaluate(bloodReservoir, pBlood, target),
		ClearEmpty: m.evaluate(clearReservoir, pClear, target),
	}
}

func (m *ReservoirMonitor) evaluate(r reservoir, p, target float64) bool {
	if p > target-ReservoirMargin {
		m.sink.WriteStatus(m.identity.Event(r.capability, status.Operational, ""))
		return false
	}
	m.logger.Warn().Msgf("%s: %.3f psi", r.emptyMsg, p)
	m.sink.WriteStatus(m.identity.Event(r.capability, status.Inoperative, r.emptyMsg))
	return true
}

// EvaluateDuringOperation latches newly depleted supplies. Flags never clear here
func (m *ReservoirMonitor) EvaluateDuringOperation(pBlood, pClear, target float64, s ReservoirState) ReservoirState {
	s.BloodEmpty = m.latch(bloodReservoir, s.BloodEmpty, pBlood, target)
	s.ClearEmpty = m.latch(clearReservoir, s.ClearEmpty, pClear, target)
	return s
}

func (m *ReservoirMonitor) latch(r reservoir, empty bool, p, target float64) bool {
	if empty || p >= target-ReservoirMargin {
		return empty
	}
	m.logger.Warn().Msgf("%s: %.3f psi", r.emptyMsg, p)
	m.sink.WriteStatus(m.identity.Event(r.capability, status.Inoperative, r.emptyMsg))
	return true
}
