package strategy

import "github.com/alejandrodnm/ritmaker/internal/domain"

// State is the cross-tick memory of one run. The caller owns it and threads it
// through every tick; nothing here survives the process.
type State struct {
	Started   bool
	StartTick int

	// Sizing.
	TargetQty    int
	SpreadScale  float64
	LastFillTick int
	Phase        domain.Phase
	phaseSeen    bool

	// Fill detection.
	LastPosition   map[string]int
	LastTransacted int

	// OrderAge maps resting order id → tick it was first observed.
	OrderAge map[domain.OrderID]int
}

// NewState returns an empty state; Start must be called on the first tick.
func NewState() *State {
	return &State{
		SpreadScale:  1.0,
		LastPosition: make(map[string]int),
		OrderAge:     make(map[domain.OrderID]int),
	}
}

// Start anchors the run at tick. Calling it again is a no-op.
func (s *State) Start(tick, targetQty, transacted int) {
	if s.Started {
		return
	}
	s.Started = true
	s.StartTick = tick
	s.LastFillTick = tick
	s.TargetQty = targetQty
	s.LastTransacted = transacted
}

// Elapsed returns ticks since Start, never negative.
func (s *State) Elapsed(tick int) int {
	return max(0, tick-s.StartTick)
}

// Clone returns a deep copy, used to stage a tick and commit it only if the
// tick is not skipped.
func (s *State) Clone() *State {
	c := *s
	c.LastPosition = make(map[string]int, len(s.LastPosition))
	for k, v := range s.LastPosition {
		c.LastPosition[k] = v
	}
	c.OrderAge = make(map[domain.OrderID]int, len(s.OrderAge))
	for k, v := range s.OrderAge {
		c.OrderAge[k] = v
	}
	return &c
}
