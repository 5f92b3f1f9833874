package main

import (
	"log/slog"

	"github.com/alejandrodnm/ritmaker/config"
	"github.com/alejandrodnm/ritmaker/internal/adapters/paper"
	"github.com/alejandrodnm/ritmaker/internal/adapters/rit"
	"github.com/alejandrodnm/ritmaker/internal/application/engine"
	"github.com/alejandrodnm/ritmaker/internal/domain"
	"github.com/alejandrodnm/ritmaker/internal/ports"
	"github.com/alejandrodnm/ritmaker/internal/strategy"
)

// newExchange devuelve el cliente REST en modo live o el exchange en memoria
// en modo paper. El mismo valor implementa lectura y escritura.
func newExchange(cfg *config.Config) (ports.MarketData, ports.OrderGateway) {
	if cfg.Mode == config.ModePaper {
		slog.Info("paper mode: in-memory exchange", "seed", cfg.Paper.Seed, "start_price", cfg.Paper.StartPrice)
		ex := paper.New(paper.Config{
			Tickers:       cfg.Strategy.Tickers,
			Seed:          cfg.Paper.Seed,
			StartPrice:    cfg.Paper.StartPrice,
			Spread:        cfg.Paper.Spread,
			Volatility:    cfg.Paper.Volatility,
			Depth:         cfg.Paper.Depth,
			StartTick:     cfg.Paper.StartTick,
			PriceDecimals: cfg.API.PriceDecimals,
			AutoAdvance:   true,
		})
		return ex, ex
	}

	client := rit.NewClient(rit.Options{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.APIKey,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		MaxRetries:        cfg.API.MaxRetries,
		Timeout:           cfg.Timeout(),
		PriceDecimals:     cfg.API.PriceDecimals,
	})
	return client, client
}

// engineConfig traduce la configuración validada a los parámetros del engine.
func engineConfig(cfg *config.Config) engine.Config {
	s, z, r := cfg.Strategy, cfg.Sizing, cfg.Risk

	perTicker := make(map[string]domain.TickerLimits, len(r.PerTicker))
	for ticker, lim := range r.PerTicker {
		perTicker[ticker] = domain.TickerLimits{MaxLong: lim.MaxLong, MaxShort: lim.MaxShort}
	}

	return engine.Config{
		Variant:     engine.Variant(s.Variant),
		Tickers:     s.Tickers,
		StartTick:   s.StartTick,
		EndTick:     s.EndTick,
		Sleep:       cfg.SleepInterval(),
		BasicSpread: s.BasicSpread,
		Quote: strategy.QuoteConfig{
			MinEdge:         s.MinEdge,
			SkewK:           s.SkewK,
			MinMarketSpread: s.MinMarketSpread,
			Refine:          s.Refine,
			BuyPremium:      s.BuyPremium,
			SellDiscount:    s.SellDiscount,
			Cushion:         s.Cushion,
		},
		Sizing: strategy.SizingConfig{
			Model:           strategy.SizingModel(z.Model),
			BaseQty:         z.BaseQty,
			MinQty:          z.MinQty,
			MaxQty:          z.MaxQty,
			SoftPosition:    z.SoftPosition,
			HardPosition:    z.HardPosition,
			InventoryTilt:   z.InventoryTilt,
			Signal:          strategy.FillSignal(z.FillSignal),
			Response:        strategy.FillResponse(z.FillResponse),
			NoFillTicks:     z.NoFillTicks,
			UpFactor:        z.UpFactor,
			DownFactor:      z.DownFactor,
			WidenFactor:     z.WidenFactor,
			TightenFactor:   z.TightenFactor,
			MinSpreadMult:   z.MinSpreadScale,
			MaxSpreadMult:   z.MaxSpreadScale,
			LiquidityTarget: z.LiquidityTarget,
			Schedule: strategy.PhaseSchedule{
				WarmupTicks:    z.WarmupTicks,
				RampTicks:      z.RampTicks,
				WarmupScale:    z.WarmupScale,
				RampStartScale: z.RampStartScale,
			},
		},
		Reconcile: strategy.ReconcileConfig{
			RequoteTolerance: s.RequoteTolerance,
			OrderTTL:         s.TTL(),
		},
		Limits: domain.RiskLimits{
			MaxLong:   r.MaxLong,
			MaxShort:  r.MaxShort,
			MaxGross:  r.MaxGross,
			MaxNet:    r.MaxNet,
			PerTicker: perTicker,
		},
	}
}
