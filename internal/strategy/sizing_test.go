package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/alejandrodnm/ritmaker/internal/domain"
	"github.com/alejandrodnm/ritmaker/internal/strategy"
)

func targetSizing() strategy.SizingConfig {
	return strategy.SizingConfig{
		Model:         strategy.ModelTarget,
		BaseQty:       500,
		MinQty:        100,
		MaxQty:        3000,
		SoftPosition:  1000,
		HardPosition:  2000,
		InventoryTilt: 0.2,
		Signal:        strategy.SignalPosition,
		Response:      strategy.ResponseSize,
		NoFillTicks:   6,
		UpFactor:      1.5,
		DownFactor:    0.7,
	}
}

func TestPhaseSchedule(t *testing.T) {
	s := strategy.PhaseSchedule{WarmupTicks: 10, RampTicks: 20, WarmupScale: 0.25, RampStartScale: 0.4}

	phase, scale := s.At(0)
	assert.Equal(t, domain.PhaseWarmup, phase)
	assert.InDelta(t, 0.25, scale, 1e-9)

	phase, scale = s.At(10)
	assert.Equal(t, domain.PhaseRamp, phase)
	assert.InDelta(t, 0.4, scale, 1e-9)

	_, scale = s.At(20)
	assert.InDelta(t, 0.7, scale, 1e-9)

	phase, scale = s.At(30)
	assert.Equal(t, domain.PhaseNormal, phase)
	assert.InDelta(t, 1.0, scale, 1e-9)
}

func TestPhaseSchedule_EmptyIsNormal(t *testing.T) {
	phase, scale := strategy.PhaseSchedule{}.At(0)
	assert.Equal(t, domain.PhaseNormal, phase)
	assert.InDelta(t, 1.0, scale, 1e-9)
}

func TestSizeCalculator_PhaseChangeReported(t *testing.T) {
	cfg := targetSizing()
	cfg.Schedule = strategy.PhaseSchedule{WarmupTicks: 2, RampTicks: 2, WarmupScale: 0.25, RampStartScale: 0.5}
	c := strategy.NewSizeCalculator(cfg)
	st := strategy.NewState()
	st.Start(100, cfg.BaseQty, 0)

	var changes []domain.Phase
	for tick := 100; tick < 106; tick++ {
		if phase, _, changed := c.Phase(st, tick); changed {
			changes = append(changes, phase)
		}
	}
	assert.Equal(t, []domain.Phase{domain.PhaseWarmup, domain.PhaseRamp, domain.PhaseNormal}, changes)
}

func TestSizeCalculator_NoFillEscalatesOncePerWindow(t *testing.T) {
	cfg := targetSizing()
	c := strategy.NewSizeCalculator(cfg)
	st := strategy.NewState()
	st.Start(0, cfg.BaseQty, 0)
	c.Observe(st, 0, "ALGO", 0, 0)

	for tick := 1; tick < 6; tick++ {
		c.Observe(st, tick, "ALGO", 0, 0)
		require.Equal(t, 500, st.TargetQty, "tick %d", tick)
	}
	c.Observe(st, 6, "ALGO", 0, 0)
	assert.Equal(t, 750, st.TargetQty)
	assert.Equal(t, 6, st.LastFillTick, "clock reset")

	for tick := 7; tick < 12; tick++ {
		c.Observe(st, tick, "ALGO", 0, 0)
		require.Equal(t, 750, st.TargetQty, "tick %d", tick)
	}
	c.Observe(st, 12, "ALGO", 0, 0)
	assert.Equal(t, 1125, st.TargetQty)
}

func TestSizeCalculator_FillShrinksTarget(t *testing.T) {
	cfg := targetSizing()
	c := strategy.NewSizeCalculator(cfg)
	st := strategy.NewState()
	st.Start(0, 1000, 0)
	c.Observe(st, 0, "ALGO", 0, 0)

	assert.True(t, c.Observe(st, 1, "ALGO", 300, 0))
	assert.Equal(t, 700, st.TargetQty)
	assert.Equal(t, 1, st.LastFillTick)

	// floors at MinQty
	st.TargetQty = 120
	c.Observe(st, 2, "ALGO", 0, 0)
	assert.Equal(t, 100, st.TargetQty)
}

func TestSizeCalculator_FirstObservationIsNotAFill(t *testing.T) {
	c := strategy.NewSizeCalculator(targetSizing())
	st := strategy.NewState()
	st.Start(0, 500, 0)
	assert.False(t, c.Observe(st, 0, "ALGO", 1200, 0))
	assert.Equal(t, 500, st.TargetQty)
}

func TestSizeCalculator_SpreadResponse(t *testing.T) {
	cfg := targetSizing()
	cfg.Response = strategy.ResponseSpread
	cfg.Signal = strategy.SignalTransacted
	cfg.WidenFactor = 1.25
	cfg.TightenFactor = 0.9
	cfg.MinSpreadMult = 0.5
	cfg.MaxSpreadMult = 3.0
	c := strategy.NewSizeCalculator(cfg)
	st := strategy.NewState()
	st.Start(0, 500, 4)

	assert.True(t, c.Observe(st, 1, "ALGO", 0, 5))
	assert.InDelta(t, 1.25, st.SpreadScale, 1e-9)
	assert.Equal(t, 500, st.TargetQty, "size untouched")

	c.Observe(st, 7, "ALGO", 0, 5)
	assert.InDelta(t, 1.125, st.SpreadScale, 1e-9)
	assert.Equal(t, 7, st.LastFillTick)
}

func TestSizeCalculator_InventoryScale(t *testing.T) {
	c := strategy.NewSizeCalculator(targetSizing())
	assert.InDelta(t, 1.0, c.InventoryScale(999), 1e-9)
	assert.InDelta(t, 1.0, c.InventoryScale(1000), 1e-9)
	assert.InDelta(t, 0.5, c.InventoryScale(-1500), 1e-9)
	assert.InDelta(t, 0.2, c.InventoryScale(1800), 1e-9)
	assert.InDelta(t, 0.2, c.InventoryScale(5000), 1e-9)
}

func TestSizeCalculator_InventoryScaleMonotone(t *testing.T) {
	c := strategy.NewSizeCalculator(targetSizing())
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(1000, 10_000).Draw(t, "a")
		b := rapid.IntRange(a, 10_001).Draw(t, "b")
		sa, sb := c.InventoryScale(a), c.InventoryScale(-b)
		if sa < 0.2 || sa > 1.0 {
			t.Fatalf("scale %v out of [0.2, 1]", sa)
		}
		if sb > sa {
			t.Fatalf("scale grew from %v to %v as |p| went %d → %d", sa, sb, a, b)
		}
	})
}

func TestSizeCalculator_TargetAsymmetry(t *testing.T) {
	c := strategy.NewSizeCalculator(targetSizing())
	st := strategy.NewState()
	st.Start(0, 500, 0)

	buy, sell := c.Sizes(st, strategy.SizeInput{Position: 0, PhaseScale: 1})
	assert.Equal(t, 500, buy)
	assert.Equal(t, 500, sell)

	buy, sell = c.Sizes(st, strategy.SizeInput{Position: 400, PhaseScale: 1})
	assert.Equal(t, 400, buy)
	assert.Equal(t, 600, sell)

	buy, sell = c.Sizes(st, strategy.SizeInput{Position: -400, PhaseScale: 1})
	assert.Equal(t, 600, buy)
	assert.Equal(t, 400, sell)
}

func TestSizeCalculator_PhaseScalesBounds(t *testing.T) {
	c := strategy.NewSizeCalculator(targetSizing())
	b := c.ScaledBounds(0.25)
	assert.Equal(t, strategy.Bounds{Base: 125, Min: 25, Max: 750}, b)

	b = c.ScaledBounds(0.001)
	assert.Equal(t, 1, b.Base)
	assert.Equal(t, 1, b.Min)
	assert.GreaterOrEqual(t, b.Max, b.Min)
}

func liquiditySizing() strategy.SizingConfig {
	return strategy.SizingConfig{
		Model:           strategy.ModelLiquidity,
		BaseQty:         3500,
		MinQty:          1200,
		MaxQty:          6000,
		HardPosition:    7500,
		LiquidityTarget: 3000,
	}
}

func TestSizeCalculator_LiquidityFlat(t *testing.T) {
	c := strategy.NewSizeCalculator(liquiditySizing())
	buy, sell := c.Sizes(strategy.NewState(), strategy.SizeInput{
		Spread: 0.04, Edge: 0.04, TopLiquidity: 3000, PhaseScale: 1,
	})
	// edge and liquidity scales are both 1.0 at target depth
	assert.Equal(t, 3500, buy)
	assert.Equal(t, 3500, sell)
}

func TestSizeCalculator_LiquidityTiltWhenLong(t *testing.T) {
	c := strategy.NewSizeCalculator(liquiditySizing())
	buy, sell := c.Sizes(strategy.NewState(), strategy.SizeInput{
		Position: 3750, Spread: 0.04, Edge: 0.04, TopLiquidity: 3000,
		LongCap: 7500, ShortCap: 7500, PhaseScale: 1,
	})
	assert.Less(t, buy, sell)
	assert.GreaterOrEqual(t, buy, 1200)
	assert.LessOrEqual(t, sell, 6000)
}

func TestSizeCalculator_LiquidityZeroSpreadUsesMin(t *testing.T) {
	c := strategy.NewSizeCalculator(liquiditySizing())
	buy, sell := c.Sizes(strategy.NewState(), strategy.SizeInput{PhaseScale: 0.25})
	assert.Equal(t, 300, buy)
	assert.Equal(t, 300, sell)
}

func TestSizeCalculator_SizesAlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := liquiditySizing()
		if rapid.Bool().Draw(t, "target") {
			cfg = targetSizing()
		}
		c := strategy.NewSizeCalculator(cfg)
		st := strategy.NewState()
		st.Start(0, rapid.IntRange(cfg.MinQty, cfg.MaxQty).Draw(t, "target_qty"), 0)

		scale := rapid.Float64Range(0.1, 1).Draw(t, "scale")
		in := strategy.SizeInput{
			Position:     rapid.IntRange(-20_000, 20_000).Draw(t, "pos"),
			Spread:       rapid.Float64Range(0, 2).Draw(t, "spread"),
			Edge:         rapid.Float64Range(0, 2).Draw(t, "edge"),
			TopLiquidity: rapid.IntRange(0, 50_000).Draw(t, "liq"),
			LongCap:      rapid.IntRange(0, 10_000).Draw(t, "long"),
			ShortCap:     rapid.IntRange(0, 10_000).Draw(t, "short"),
			PhaseScale:   scale,
		}
		b := c.ScaledBounds(scale)
		buy, sell := c.Sizes(st, in)
		for _, q := range []int{buy, sell} {
			if q < b.Min || q > b.Max {
				t.Fatalf("size %d outside [%d, %d]", q, b.Min, b.Max)
			}
		}
	})
}
