package domain

import "sort"

// OrderBook representa el libro de órdenes de un ticker.
type OrderBook struct {
	Ticker string
	Bids   []BookEntry // ordenados mayor a menor precio
	Asks   []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price    float64
	Quantity int
}

// SortLevels ordena bids de mayor a menor y asks de menor a mayor.
// El simulador no garantiza el orden de los niveles.
func (ob *OrderBook) SortLevels() {
	sort.SliceStable(ob.Bids, func(i, j int) bool { return ob.Bids[i].Price > ob.Bids[j].Price })
	sort.SliceStable(ob.Asks, func(i, j int) bool { return ob.Asks[i].Price < ob.Asks[j].Price })
}

// Top devuelve el top-of-book. Cualquiera de los dos lados puede faltar.
func (ob OrderBook) Top() MarketSnapshot {
	snap := MarketSnapshot{Ticker: ob.Ticker}
	if len(ob.Bids) > 0 {
		snap.BestBid = ob.Bids[0].Price
		snap.BidSize = ob.Bids[0].Quantity
		snap.HasBid = true
	}
	if len(ob.Asks) > 0 {
		snap.BestAsk = ob.Asks[0].Price
		snap.AskSize = ob.Asks[0].Quantity
		snap.HasAsk = true
	}
	return snap
}

// MarketSnapshot es el top-of-book de un ticker en el tick actual.
// HasBid/HasAsk indican si el lado existe; el book puede estar vacío.
type MarketSnapshot struct {
	Ticker  string
	BestBid float64
	BestAsk float64
	BidSize int
	AskSize int
	HasBid  bool
	HasAsk  bool
}

// Valid devuelve true si hay ambos lados y el book no está cruzado.
func (s MarketSnapshot) Valid() bool {
	return s.HasBid && s.HasAsk && s.BestAsk > s.BestBid
}

// Mid devuelve el punto medio entre best bid y best ask.
// Devuelve 0 si el snapshot no es válido.
func (s MarketSnapshot) Mid() float64 {
	if !s.Valid() {
		return 0
	}
	return (s.BestBid + s.BestAsk) / 2
}

// Spread devuelve ask - bid, o 0 si el snapshot no es válido.
func (s MarketSnapshot) Spread() float64 {
	if !s.Valid() {
		return 0
	}
	return s.BestAsk - s.BestBid
}

// TopLiquidity es la menor cantidad visible entre ambos lados del top.
func (s MarketSnapshot) TopLiquidity() int {
	return min(s.BidSize, s.AskSize)
}
