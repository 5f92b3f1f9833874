// Package engine drives one market-making run: it reads the market once per
// tick, runs the strategy core and hands the resulting actions to the gateway.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/ritmaker/internal/domain"
	"github.com/alejandrodnm/ritmaker/internal/ports"
	"github.com/alejandrodnm/ritmaker/internal/strategy"
)

// Variant selects the quoting and reconciliation policy.
type Variant string

const (
	// VariantBasic quotes last close ± a fixed offset and keeps a single pair.
	VariantBasic Variant = "basic"
	// VariantTarget quotes around mid with an adaptive target quantity.
	VariantTarget Variant = "target"
	// VariantLiquidity adds edge/liquidity/headroom sizing and book refinement.
	VariantLiquidity Variant = "liquidity"
)

// Config holds the run parameters for the engine.
type Config struct {
	Variant   Variant
	Tickers   []string
	StartTick int // inclusive
	EndTick   int // exclusive
	Sleep     time.Duration

	// BasicSpread is the per-side offset from last close in the basic variant.
	BasicSpread float64

	Quote     strategy.QuoteConfig
	Sizing    strategy.SizingConfig
	Reconcile strategy.ReconcileConfig
	Limits    domain.RiskLimits
}

// Engine runs the per-tick pipeline against a market and a gateway.
type Engine struct {
	market    ports.MarketData
	gateway   ports.OrderGateway
	journal   ports.Journal
	reporters []ports.Reporter
	cfg       Config

	governor   strategy.Governor
	quoter     strategy.QuoteCalculator
	sizer      strategy.SizeCalculator
	reconciler strategy.Reconciler
}

// New creates an engine. journal may be nil.
func New(
	market ports.MarketData,
	gateway ports.OrderGateway,
	journal ports.Journal,
	cfg Config,
	reporters ...ports.Reporter,
) *Engine {
	if cfg.Variant == "" {
		cfg.Variant = VariantLiquidity
	}
	return &Engine{
		market:     market,
		gateway:    gateway,
		journal:    journal,
		reporters:  reporters,
		cfg:        cfg,
		governor:   strategy.NewGovernor(cfg.Limits),
		quoter:     strategy.NewQuoteCalculator(cfg.Quote),
		sizer:      strategy.NewSizeCalculator(cfg.Sizing),
		reconciler: strategy.NewReconciler(cfg.Reconcile),
	}
}

// Run polls the current tick until the window closes or ctx is cancelled.
// The strategy runs once per new tick inside [StartTick, EndTick). Shutdown
// is only observed between ticks; calls already issued for a tick complete
// even if ctx is cancelled meanwhile. Any returned error is fatal.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine: starting",
		"variant", e.cfg.Variant,
		"tickers", e.cfg.Tickers,
		"window_start", e.cfg.StartTick,
		"window_end", e.cfg.EndTick,
		"sleep", e.cfg.Sleep,
	)

	st := strategy.NewState()
	calls := context.WithoutCancel(ctx)
	last := -1

	for {
		if ctx.Err() != nil {
			slog.Info("engine: shutdown requested", "last_tick", last)
			return nil
		}

		tick, err := e.market.CurrentTick(calls)
		if err != nil {
			return fmt.Errorf("engine.Run: current tick: %w", err)
		}

		switch {
		case tick >= e.cfg.EndTick:
			slog.Info("engine: tick window closed", "tick", tick)
			return nil
		case tick < e.cfg.StartTick:
			slog.Debug("engine: waiting for window", "tick", tick, "start", e.cfg.StartTick)
		case tick != last:
			last = tick
			report, err := e.Step(calls, st, tick)
			if err != nil {
				return err
			}
			e.publish(calls, report)
		}

		if !sleep(ctx, e.cfg.Sleep) {
			slog.Info("engine: shutdown requested", "last_tick", last)
			return nil
		}
	}
}

// Step runs the strategy for one tick. st is owned by the caller and must be
// the same value on every tick of a run. Read failures and ErrAuth are
// returned; a market that cannot be quoted is reported as a skip.
func (e *Engine) Step(ctx context.Context, st *strategy.State, tick int) (domain.TickReport, error) {
	report := domain.TickReport{Tick: tick, At: time.Now()}

	transacted := 0
	if e.cfg.Sizing.Signal == strategy.SignalTransacted {
		n, err := e.market.TransactedCount(ctx)
		if err != nil {
			return report, fmt.Errorf("engine.Step: transacted count: %w", err)
		}
		transacted = n
	}
	st.Start(tick, e.cfg.Sizing.BaseQty, transacted)

	phase, scale, changed := e.sizer.Phase(st, tick)
	report.Phase = phase
	if changed {
		slog.Info("engine: mode switch", "phase", phase, "tick", tick, "scale", scale)
	}

	snap, skip, err := e.selectTicker(ctx)
	if err != nil {
		return report, err
	}
	report.Ticker = snap.Ticker
	report.BestBid = snap.BestBid
	report.BestAsk = snap.BestAsk
	if skip != domain.SkipNone {
		report.Skip = skip
		return report, nil
	}
	ticker := snap.Ticker

	position, err := e.market.Position(ctx, ticker)
	if err != nil {
		return report, fmt.Errorf("engine.Step: position %s: %w", ticker, err)
	}
	all, err := e.market.AllPositions(ctx)
	if err != nil {
		return report, fmt.Errorf("engine.Step: all positions: %w", err)
	}
	if all == nil {
		all = domain.Positions{}
	}
	all[ticker] = position
	report.Position = position
	report.Gross = all.Gross()
	report.Net = all.Net()

	// The fill controller runs on a staged copy so a skipped quote leaves
	// st untouched; the quote still sees this tick's spread scale.
	staged := st.Clone()
	filled := e.sizer.Observe(staged, tick, ticker, position, transacted)
	perms := e.governor.Check(ticker, position, all)

	quote, skip, err := e.quote(ctx, snap, position, staged.SpreadScale)
	if err != nil {
		return report, err
	}
	if skip != domain.SkipNone {
		report.Skip = skip
		return report, nil
	}
	*st = *staged
	report.Filled = filled

	limits := e.governor.Limits()
	buyQty, sellQty := e.sizer.Sizes(st, strategy.SizeInput{
		Position:     position,
		Spread:       snap.Spread(),
		Edge:         e.quoter.Edge(snap.Spread(), st.SpreadScale),
		TopLiquidity: snap.TopLiquidity(),
		LongCap:      limits.LongCap(ticker),
		ShortCap:     limits.ShortCap(ticker),
		PhaseScale:   scale,
	})
	perms = e.governor.Project(perms, all, buyQty, sellQty)

	report.Bid, report.Ask = quote.Bid, quote.Ask
	report.BidQty, report.AskQty = buyQty, sellQty
	report.AllowBuy, report.AllowSell = perms.AllowBuy, perms.AllowSell

	open, err := e.market.Orders(ctx, domain.StatusOpen)
	if err != nil {
		return report, fmt.Errorf("engine.Step: open orders: %w", err)
	}

	target := strategy.Target{
		Ticker: ticker,
		Bid:    domain.Quote{Side: domain.SideBuy, Price: quote.Bid, Quantity: buyQty},
		Ask:    domain.Quote{Side: domain.SideSell, Price: quote.Ask, Quantity: sellQty},
		Perms:  perms,
	}

	var actions []strategy.Action
	if e.cfg.Variant == VariantBasic {
		actions = e.reconciler.PlanPair(st, tick, open, target)
	} else {
		actions = e.reconciler.Plan(st, tick, open, target)
	}

	out, err := e.reconciler.Execute(ctx, e.gateway, st, tick, actions)
	report.Placed = out.Placed
	report.Cancelled = out.Cancelled
	if err != nil {
		return report, fmt.Errorf("engine.Step: %w", err)
	}
	return report, nil
}

// selectTicker reads every configured book and picks the widest tradable
// spread. The basic variant always trades the first ticker, and only while
// its book is tradable.
func (e *Engine) selectTicker(ctx context.Context) (domain.MarketSnapshot, domain.SkipReason, error) {
	if len(e.cfg.Tickers) == 0 {
		return domain.MarketSnapshot{}, domain.SkipNoTicker, nil
	}
	if e.cfg.Variant == VariantBasic {
		ticker := e.cfg.Tickers[0]
		ob, err := e.market.OrderBook(ctx, ticker)
		if err != nil {
			return domain.MarketSnapshot{}, domain.SkipNone, fmt.Errorf("engine.selectTicker: book %s: %w", ticker, err)
		}
		snap := ob.Top()
		snap.Ticker = ticker
		switch {
		case !snap.Valid():
			return snap, domain.SkipNoTicker, nil
		case !e.quoter.Tradable(snap):
			return snap, domain.SkipSpreadTooThin, nil
		}
		return snap, domain.SkipNone, nil
	}

	var best, widestValid domain.MarketSnapshot
	found, anyValid := false, false
	for _, ticker := range e.cfg.Tickers {
		ob, err := e.market.OrderBook(ctx, ticker)
		if err != nil {
			return domain.MarketSnapshot{}, domain.SkipNone, fmt.Errorf("engine.selectTicker: book %s: %w", ticker, err)
		}
		snap := ob.Top()
		snap.Ticker = ticker
		if !snap.Valid() {
			continue
		}
		if !anyValid || snap.Spread() > widestValid.Spread() {
			widestValid = snap
			anyValid = true
		}
		if e.quoter.Tradable(snap) && (!found || snap.Spread() > best.Spread()) {
			best = snap
			found = true
		}
	}

	switch {
	case found:
		return best, domain.SkipNone, nil
	case anyValid:
		return widestValid, domain.SkipSpreadTooThin, nil
	default:
		return domain.MarketSnapshot{}, domain.SkipNoTicker, nil
	}
}

// quote returns the desired bid/ask for the selected ticker.
func (e *Engine) quote(ctx context.Context, snap domain.MarketSnapshot, position int, spreadScale float64) (domain.QuotePair, domain.SkipReason, error) {
	if e.cfg.Variant != VariantBasic {
		q, skip := e.quoter.Quote(snap, position, spreadScale)
		return q, skip, nil
	}

	last, err := e.market.LastClose(ctx, snap.Ticker)
	if err != nil {
		return domain.QuotePair{}, domain.SkipNone, fmt.Errorf("engine.quote: last close %s: %w", snap.Ticker, err)
	}
	return domain.QuotePair{
		Ticker: snap.Ticker,
		Bid:    last - e.cfg.BasicSpread,
		Ask:    last + e.cfg.BasicSpread,
	}, domain.SkipNone, nil
}

// publish hands a tick report to the journal and every reporter. Journal
// failures are logged; the journal is audit only.
func (e *Engine) publish(ctx context.Context, report domain.TickReport) {
	if report.Skipped() {
		slog.Debug("engine: tick skipped", "tick", report.Tick, "ticker", report.Ticker, "reason", report.Skip)
	}
	if e.journal != nil {
		if err := e.journal.RecordTick(ctx, report); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("engine: journal write failed", "tick", report.Tick, "err", err)
		}
	}
	for _, r := range e.reporters {
		r.ReportTick(ctx, report)
	}
}

// sleep waits d or until ctx is done. It returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
