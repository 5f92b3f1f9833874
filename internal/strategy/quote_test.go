package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/alejandrodnm/ritmaker/internal/domain"
	"github.com/alejandrodnm/ritmaker/internal/strategy"
)

func snap(bid, ask float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Ticker: "ALGO", BestBid: bid, BestAsk: ask,
		BidSize: 1000, AskSize: 1000, HasBid: true, HasAsk: true,
	}
}

func basicQuoteConfig() strategy.QuoteConfig {
	return strategy.QuoteConfig{MinEdge: 0.01, SkewK: 0.00001, MinMarketSpread: 0.02}
}

func TestQuote_WideMarketAtFlat(t *testing.T) {
	c := strategy.NewQuoteCalculator(basicQuoteConfig())
	q, skip := c.Quote(snap(99.00, 101.00), 0, 1.0)
	require.Equal(t, domain.SkipNone, skip)
	assert.InDelta(t, 99.5, q.Bid, 1e-9)
	assert.InDelta(t, 100.5, q.Ask, 1e-9)
	assert.Equal(t, "ALGO", q.Ticker)
}

func TestQuote_SkewPushesQuotesDownWhenLong(t *testing.T) {
	cfg := basicQuoteConfig()
	cfg.SkewK = 0.0001
	c := strategy.NewQuoteCalculator(cfg)
	q, skip := c.Quote(snap(99.00, 101.00), 1000, 1.0)
	require.Equal(t, domain.SkipNone, skip)
	assert.InDelta(t, 99.4, q.Bid, 1e-9)
	assert.InDelta(t, 100.4, q.Ask, 1e-9)
}

func TestQuote_MinEdgeFloor(t *testing.T) {
	cfg := basicQuoteConfig()
	cfg.MinEdge = 0.05
	c := strategy.NewQuoteCalculator(cfg)
	q, skip := c.Quote(snap(10.00, 10.04), 0, 1.0)
	require.Equal(t, domain.SkipNone, skip)
	assert.InDelta(t, 9.97, q.Bid, 1e-9)
	assert.InDelta(t, 10.07, q.Ask, 1e-9)
}

func TestQuote_RejectsBadBooks(t *testing.T) {
	c := strategy.NewQuoteCalculator(basicQuoteConfig())

	_, skip := c.Quote(domain.MarketSnapshot{Ticker: "ALGO", BestBid: 10, HasBid: true}, 0, 1)
	assert.Equal(t, domain.SkipNoTicker, skip, "one-sided")

	_, skip = c.Quote(snap(10.05, 10.00), 0, 1)
	assert.Equal(t, domain.SkipNoTicker, skip, "crossed")

	_, skip = c.Quote(snap(10.00, 10.01), 0, 1)
	assert.Equal(t, domain.SkipSpreadTooThin, skip)
}

func TestQuote_RefinementNeverCrossesBook(t *testing.T) {
	cfg := strategy.QuoteConfig{
		MinEdge: 0.001, MinMarketSpread: 0.01, SkewK: 0.0005,
		Refine: true, BuyPremium: 0.002, SellDiscount: 0.002, Cushion: 0.001,
	}
	c := strategy.NewQuoteCalculator(cfg)
	// heavy short inventory pushes the bid up into the ask
	q, skip := c.Quote(snap(25.00, 25.05), -200, 1.0)
	require.Equal(t, domain.SkipNone, skip)
	assert.LessOrEqual(t, q.Bid, 25.05-0.001+1e-9)
	assert.GreaterOrEqual(t, q.Ask, 25.00+0.001-1e-9)
	assert.Less(t, q.Bid, q.Ask)
}

func TestQuote_ClampedCrossIsSuppressed(t *testing.T) {
	cfg := strategy.QuoteConfig{
		MinEdge: 0.001, MinMarketSpread: 0.01,
		Refine: true, BuyPremium: 0.2, SellDiscount: 0.2, Cushion: 0.001,
	}
	c := strategy.NewQuoteCalculator(cfg)
	// premium and discount larger than the edge pull both quotes past each other
	_, skip := c.Quote(snap(25.00, 25.10), 0, 1.0)
	assert.Equal(t, domain.SkipCrossedQuote, skip)
}

func TestQuote_SpreadScaleWidensEdge(t *testing.T) {
	c := strategy.NewQuoteCalculator(basicQuoteConfig())
	assert.InDelta(t, 0.5, c.Edge(2.0, 1.0), 1e-9)
	assert.InDelta(t, 0.75, c.Edge(2.0, 1.5), 1e-9)
	assert.InDelta(t, 0.01, c.Edge(0.02, 0.1), 1e-9, "never below the floor")
}

func TestQuote_ThinSpreadNeverQuotes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minSpread := rapid.Float64Range(0.01, 1).Draw(t, "min")
		bid := rapid.Float64Range(1, 500).Draw(t, "bid")
		width := rapid.Float64Range(0.0001, 0.999).Draw(t, "frac") * minSpread
		pos := rapid.IntRange(-5000, 5000).Draw(t, "pos")

		c := strategy.NewQuoteCalculator(strategy.QuoteConfig{MinEdge: 0.01, SkewK: 0.00001, MinMarketSpread: minSpread})
		s := snap(bid, bid+width)
		if _, skip := c.Quote(s, pos, 1.0); s.Spread() < minSpread && skip == domain.SkipNone {
			t.Fatalf("quoted a spread of %v under min %v", s.Spread(), minSpread)
		}
	})
}

func TestQuote_BidBelowAskWhenQuoted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bid := rapid.Float64Range(1, 500).Draw(t, "bid")
		width := rapid.Float64Range(0.02, 5).Draw(t, "width")
		pos := rapid.IntRange(-20000, 20000).Draw(t, "pos")
		c := strategy.NewQuoteCalculator(strategy.QuoteConfig{
			MinEdge: 0.01, SkewK: 0.00001, MinMarketSpread: 0.02,
			Refine: true, BuyPremium: 0.002, SellDiscount: 0.002, Cushion: 0.001,
		})
		q, skip := c.Quote(snap(bid, bid+width), pos, 1.0)
		if skip == domain.SkipNone && q.Bid >= q.Ask {
			t.Fatalf("crossed own quote %v >= %v", q.Bid, q.Ask)
		}
	})
}
