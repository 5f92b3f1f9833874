package strategy

import (
	"math"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// edgeSpreadFraction: never quote tighter than this share of the market spread.
const edgeSpreadFraction = 0.25

// QuoteConfig holds the price knobs of the quote calculator.
type QuoteConfig struct {
	MinEdge         float64 // absolute floor for the half-spread we quote
	SkewK           float64 // price shift per unit of inventory
	MinMarketSpread float64 // below this the market leaves no edge

	// Refine enables premium/discount plus the anti-cross cushion.
	Refine       bool
	BuyPremium   float64
	SellDiscount float64
	Cushion      float64
}

// QuoteCalculator turns a top-of-book into target bid/ask prices.
type QuoteCalculator struct {
	cfg QuoteConfig
}

// NewQuoteCalculator returns a calculator for cfg.
func NewQuoteCalculator(cfg QuoteConfig) QuoteCalculator {
	return QuoteCalculator{cfg: cfg}
}

// Tradable reports whether a snapshot leaves room to quote at all.
func (c QuoteCalculator) Tradable(snap domain.MarketSnapshot) bool {
	return snap.Valid() && snap.Spread() >= c.cfg.MinMarketSpread
}

// Edge returns the half-spread to quote for the given market spread.
// spreadScale is the adaptive multiplier kept in State; the result never
// drops below MinEdge.
func (c QuoteCalculator) Edge(marketSpread, spreadScale float64) float64 {
	edge := math.Max(c.cfg.MinEdge, edgeSpreadFraction*marketSpread)
	if spreadScale > 0 {
		edge *= spreadScale
	}
	return math.Max(c.cfg.MinEdge, edge)
}

// Quote computes the desired bid/ask. A non-empty SkipReason means no quote
// this tick.
func (c QuoteCalculator) Quote(snap domain.MarketSnapshot, position int, spreadScale float64) (domain.QuotePair, domain.SkipReason) {
	if !snap.Valid() {
		return domain.QuotePair{}, domain.SkipNoTicker
	}
	spread := snap.Spread()
	if spread < c.cfg.MinMarketSpread {
		return domain.QuotePair{}, domain.SkipSpreadTooThin
	}

	mid := snap.Mid()
	edge := c.Edge(spread, spreadScale)
	// Long inventory pushes both quotes down so we sell more and buy less.
	skew := c.cfg.SkewK * float64(position)

	bid := mid - edge - skew
	ask := mid + edge - skew

	if c.cfg.Refine {
		bid = math.Min(bid+c.cfg.BuyPremium, snap.BestAsk-c.cfg.Cushion)
		ask = math.Max(ask-c.cfg.SellDiscount, snap.BestBid+c.cfg.Cushion)
	}

	if bid >= ask {
		return domain.QuotePair{}, domain.SkipCrossedQuote
	}
	return domain.QuotePair{Ticker: snap.Ticker, Bid: bid, Ask: ask}, domain.SkipNone
}
