package strategy

import "github.com/alejandrodnm/ritmaker/internal/domain"

// PhaseSchedule is the startup sizing schedule. The phase is a pure function
// of elapsed ticks.
type PhaseSchedule struct {
	WarmupTicks    int
	RampTicks      int
	WarmupScale    float64
	RampStartScale float64
}

// At returns the phase and size scale after elapsed ticks.
func (s PhaseSchedule) At(elapsed int) (domain.Phase, float64) {
	switch {
	case elapsed < s.WarmupTicks:
		return domain.PhaseWarmup, s.WarmupScale
	case elapsed < s.WarmupTicks+s.RampTicks:
		progress := float64(elapsed-s.WarmupTicks) / float64(max(1, s.RampTicks))
		return domain.PhaseRamp, s.RampStartScale + (1.0-s.RampStartScale)*progress
	default:
		return domain.PhaseNormal, 1.0
	}
}
