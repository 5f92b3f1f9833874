package strategy

import (
	"math"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// SizingModel picks how per-side quantities are derived.
type SizingModel string

const (
	// ModelFixed quotes BaseQty on both sides.
	ModelFixed SizingModel = "fixed"
	// ModelTarget adapts a single target quantity to fills and inventory.
	ModelTarget SizingModel = "target"
	// ModelLiquidity scales a base volume by edge, book depth and headroom.
	ModelLiquidity SizingModel = "liquidity"
)

// FillResponse is what the adaptive controller tunes.
type FillResponse string

const (
	ResponseSize   FillResponse = "size"
	ResponseSpread FillResponse = "spread"
)

// FillSignal is how fills are detected between ticks.
type FillSignal string

const (
	SignalPosition   FillSignal = "position"
	SignalTransacted FillSignal = "transacted"
)

// inventoryFloor is the smallest inventory multiplier at the hard cap.
const inventoryFloor = 0.2

// SizingConfig holds every size knob.
type SizingConfig struct {
	Model SizingModel

	BaseQty int
	MinQty  int
	MaxQty  int

	// Inventory throttling between SoftPosition and HardPosition.
	SoftPosition  int
	HardPosition  int
	InventoryTilt float64

	// Adaptive controller.
	Signal        FillSignal
	Response      FillResponse
	NoFillTicks   int
	UpFactor      float64
	DownFactor    float64
	WidenFactor   float64
	TightenFactor float64
	MinSpreadMult float64
	MaxSpreadMult float64

	LiquidityTarget int

	Schedule PhaseSchedule
}

// SizeInput is the per-tick market context for Sizes.
type SizeInput struct {
	Position     int
	Spread       float64
	Edge         float64
	TopLiquidity int
	LongCap      int
	ShortCap     int
	PhaseScale   float64
}

// Bounds are the phase-scaled base/min/max quantities.
type Bounds struct {
	Base int
	Min  int
	Max  int
}

// SizeCalculator adapts quantities across ticks. State lives in *State.
type SizeCalculator struct {
	cfg SizingConfig
}

// NewSizeCalculator returns a calculator for cfg.
func NewSizeCalculator(cfg SizingConfig) SizeCalculator {
	return SizeCalculator{cfg: cfg}
}

// Config returns the sizing configuration.
func (c SizeCalculator) Config() SizingConfig {
	return c.cfg
}

// Phase updates st.Phase for tick and reports whether it changed.
func (c SizeCalculator) Phase(st *State, tick int) (domain.Phase, float64, bool) {
	phase, scale := c.cfg.Schedule.At(st.Elapsed(tick))
	changed := !st.phaseSeen || phase != st.Phase
	st.Phase = phase
	st.phaseSeen = true
	return phase, scale, changed
}

// Observe detects a fill since the previous observation and runs the
// adaptive controller. The first observation of a ticker never counts as a
// fill. It returns whether a fill was seen.
func (c SizeCalculator) Observe(st *State, tick int, ticker string, position, transacted int) bool {
	filled := false
	switch c.cfg.Signal {
	case SignalTransacted:
		filled = transacted > st.LastTransacted
		st.LastTransacted = transacted
	default:
		last, seen := st.LastPosition[ticker]
		filled = seen && position != last
	}
	st.LastPosition[ticker] = position

	if filled {
		st.LastFillTick = tick
		switch c.cfg.Response {
		case ResponseSpread:
			st.SpreadScale = math.Min(c.cfg.MaxSpreadMult, st.SpreadScale*c.cfg.WidenFactor)
		default:
			st.TargetQty = max(c.cfg.MinQty, int(float64(st.TargetQty)*c.cfg.DownFactor))
		}
		return true
	}

	if c.cfg.NoFillTicks > 0 && tick-st.LastFillTick >= c.cfg.NoFillTicks {
		switch c.cfg.Response {
		case ResponseSpread:
			st.SpreadScale = math.Max(c.cfg.MinSpreadMult, st.SpreadScale*c.cfg.TightenFactor)
		default:
			st.TargetQty = min(c.cfg.MaxQty, int(float64(st.TargetQty)*c.cfg.UpFactor))
		}
		st.LastFillTick = tick
	}
	return false
}

// ScaledBounds applies a phase scale to the configured quantities.
func (c SizeCalculator) ScaledBounds(scale float64) Bounds {
	lo := max(1, int(float64(c.cfg.MinQty)*scale))
	return Bounds{
		Base: max(1, int(float64(c.cfg.BaseQty)*scale)),
		Min:  lo,
		Max:  max(lo, int(float64(c.cfg.MaxQty)*scale)),
	}
}

// InventoryScale is 1 below the soft threshold and falls linearly to
// inventoryFloor at the hard cap.
func (c SizeCalculator) InventoryScale(position int) float64 {
	inv := abs(position)
	if inv < c.cfg.SoftPosition {
		return 1.0
	}
	span := float64(max(1, c.cfg.HardPosition-c.cfg.SoftPosition))
	return math.Max(inventoryFloor, 1.0-float64(inv-c.cfg.SoftPosition)/span)
}

// Sizes returns the per-side quantities for this tick. Both are within the
// phase-scaled [Min, Max].
func (c SizeCalculator) Sizes(st *State, in SizeInput) (buy, sell int) {
	scale := in.PhaseScale
	if scale <= 0 {
		scale = 1.0
	}
	b := c.ScaledBounds(scale)

	switch c.cfg.Model {
	case ModelLiquidity:
		return c.liquiditySizes(b, in)
	case ModelTarget:
		return c.targetSizes(st, b, in, scale)
	default:
		q := clamp(b.Base, b.Min, b.Max)
		return q, q
	}
}

func (c SizeCalculator) targetSizes(st *State, b Bounds, in SizeInput, scale float64) (int, int) {
	q := int(float64(st.TargetQty) * scale * c.InventoryScale(in.Position))
	q = clamp(q, b.Min, b.Max)

	tilt := c.cfg.InventoryTilt
	heavy := min(b.Max, int(float64(q)*(1+tilt)))
	light := max(b.Min, int(float64(q)*(1-tilt)))
	switch {
	case in.Position > 0:
		return light, heavy
	case in.Position < 0:
		return heavy, light
	default:
		return q, q
	}
}

func (c SizeCalculator) liquiditySizes(b Bounds, in SizeInput) (int, int) {
	if in.Spread <= 0 {
		return b.Min, b.Min
	}

	edgeScale := 0.7 + 0.3*clampf(in.Edge/in.Spread, 0, 1)
	liqScale := 1.0
	if c.cfg.LiquidityTarget > 0 {
		liqScale = 0.7 + 0.3*clampf(float64(in.TopLiquidity)/float64(c.cfg.LiquidityTarget), 0, 2)
	}
	base := float64(b.Base) * edgeScale * liqScale

	longCap, shortCap := in.LongCap, in.ShortCap
	if longCap <= 0 {
		longCap = c.cfg.HardPosition
	}
	if shortCap <= 0 {
		shortCap = c.cfg.HardPosition
	}
	longScale, shortScale := 1.0, 1.0
	if longCap > 0 {
		longScale = clampf(float64(longCap-in.Position)/float64(longCap), 0, 1)
	}
	if shortCap > 0 {
		shortScale = clampf(float64(shortCap+in.Position)/float64(shortCap), 0, 1)
	}

	buy := base * (0.5 + 0.5*longScale)
	sell := base * (0.5 + 0.5*shortScale)

	switch {
	case in.Position > 0 && longCap > 0:
		t := math.Min(1, float64(in.Position)/float64(longCap))
		buy *= math.Max(0.2, 1-t)
		sell *= 1 + 0.3*t
	case in.Position < 0 && shortCap > 0:
		t := math.Min(1, float64(-in.Position)/float64(shortCap))
		sell *= math.Max(0.2, 1-t)
		buy *= 1 + 0.3*t
	}

	return clamp(int(buy), b.Min, b.Max), clamp(int(sell), b.Min, b.Max)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
