package domain

import "time"

// SkipReason explica por qué un tick no llegó a reconciliar órdenes.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipNoTicker      SkipReason = "no_tradable_ticker"
	SkipSpreadTooThin SkipReason = "spread_below_min"
	SkipCrossedQuote  SkipReason = "quote_crossed"
)

// TickReport resume lo que hizo el engine en un tick.
// Es lo que se persiste en el journal y se muestra en consola.
type TickReport struct {
	Tick      int
	At        time.Time
	Ticker    string
	Phase     Phase
	Skip      SkipReason
	BestBid   float64
	BestAsk   float64
	Position  int
	Gross     int
	Net       int
	Bid       float64
	Ask       float64
	BidQty    int
	AskQty    int
	AllowBuy  bool
	AllowSell bool
	Filled    bool
	Placed    int
	Cancelled int
}

// Skipped devuelve true si el tick no llegó a la fase de reconciliación.
func (r TickReport) Skipped() bool {
	return r.Skip != SkipNone
}

// RunSummary agrega los ticks de una ejecución para el informe final.
type RunSummary struct {
	RunID         string
	Variant       string
	StartedAt     time.Time
	Ticks         int
	QuotedTicks   int
	SkippedTicks  int
	FillTicks     int
	Placed        int
	Cancelled     int
	FinalPosition map[string]int
	SkipsByReason map[SkipReason]int
}
