package paper

// exchange.go: simulador en memoria del cliente RIT para modo paper.
//
// Modelo:
//   - Cada ticker tiene un mid que sigue un random walk gaussiano con semilla.
//   - El book visible son tres niveles por lado alrededor del mid.
//   - Cada tick llega flujo taker aleatorio por lado. Una orden propia mejor
//     que el top se llena primero; una orden al nivel del top solo se llena si
//     el flujo supera la cola delante (FIFO por nivel de precio).
//   - Una orden que cruza el book visible se ejecuta al colocarse.

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

const bookLevels = 3

// Config parametriza el exchange simulado.
type Config struct {
	Tickers       []string
	Seed          int64
	StartPrice    float64
	Spread        float64 // spread del book visible
	Volatility    float64 // desviación del mid por tick
	Depth         int     // cantidad por nivel; también escala el flujo taker
	StartTick     int
	PriceDecimals int32
	// AutoAdvance avanza un tick en cada CurrentTick; así el loop del engine
	// hace de reloj del simulador.
	AutoAdvance bool
}

// Exchange implementa ports.MarketData y ports.OrderGateway en memoria.
type Exchange struct {
	mu  sync.Mutex
	cfg Config
	rng *rand.Rand

	tick      int
	mids      map[string]float64
	books     map[string]domain.OrderBook
	open      map[domain.OrderID]domain.RestingOrder
	filled    []domain.RestingOrder
	cancelled []domain.RestingOrder
	positions domain.Positions
	nextID    domain.OrderID
}

// New crea un exchange con un book inicial por ticker.
func New(cfg Config) *Exchange {
	if cfg.PriceDecimals <= 0 {
		cfg.PriceDecimals = 2
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 1000
	}
	e := &Exchange{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		tick:      cfg.StartTick,
		mids:      make(map[string]float64, len(cfg.Tickers)),
		books:     make(map[string]domain.OrderBook, len(cfg.Tickers)),
		open:      make(map[domain.OrderID]domain.RestingOrder),
		positions: make(domain.Positions, len(cfg.Tickers)),
	}
	for _, t := range cfg.Tickers {
		e.mids[t] = cfg.StartPrice
		e.positions[t] = 0
		e.books[t] = e.buildBook(t)
	}
	return e
}

// --- ports.MarketData ---

// CurrentTick devuelve el tick actual, avanzando antes si AutoAdvance.
func (e *Exchange) CurrentTick(_ context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.AutoAdvance {
		e.advance()
	}
	return e.tick, nil
}

// OrderBook devuelve una copia del book visible.
func (e *Exchange) OrderBook(_ context.Context, ticker string) (domain.OrderBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ob, ok := e.books[ticker]
	if !ok {
		return domain.OrderBook{Ticker: ticker}, nil
	}
	return domain.OrderBook{
		Ticker: ob.Ticker,
		Bids:   append([]domain.BookEntry(nil), ob.Bids...),
		Asks:   append([]domain.BookEntry(nil), ob.Asks...),
	}, nil
}

// LastClose devuelve el mid redondeado como último precio.
func (e *Exchange) LastClose(_ context.Context, ticker string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mid, ok := e.mids[ticker]
	if !ok {
		return 0, fmt.Errorf("paper.LastClose %s: %w", ticker, domain.ErrDataUnavailable)
	}
	return e.round(mid), nil
}

// Position devuelve la posición del ticker.
func (e *Exchange) Position(_ context.Context, ticker string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions[ticker], nil
}

// AllPositions devuelve una copia de todas las posiciones.
func (e *Exchange) AllPositions(_ context.Context) (domain.Positions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(domain.Positions, len(e.positions))
	for k, v := range e.positions {
		out[k] = v
	}
	return out, nil
}

// Orders lista las órdenes propias por status, ordenadas por id.
func (e *Exchange) Orders(_ context.Context, status domain.OrderStatus) ([]domain.RestingOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.RestingOrder
	switch status {
	case domain.StatusOpen:
		out = make([]domain.RestingOrder, 0, len(e.open))
		for _, o := range e.open {
			out = append(out, o)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	case domain.StatusTransacted:
		out = append(out, e.filled...)
	case domain.StatusCancelled:
		out = append(out, e.cancelled...)
	default:
		return nil, fmt.Errorf("paper.Orders: unknown status %q", status)
	}
	return out, nil
}

// TransactedCount devuelve cuántas órdenes se han ejecutado.
func (e *Exchange) TransactedCount(_ context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.filled), nil
}

// --- ports.OrderGateway ---

// PlaceLimit registra una orden límite. Si cruza el book se ejecuta ya.
func (e *Exchange) PlaceLimit(_ context.Context, ticker string, side domain.Side, quantity int, price float64) (domain.OrderID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity <= 0 {
		return 0, fmt.Errorf("paper.PlaceLimit: quantity %d must be positive", quantity)
	}
	if _, ok := e.books[ticker]; !ok {
		return 0, fmt.Errorf("paper.PlaceLimit: unknown ticker %q", ticker)
	}

	e.nextID++
	o := domain.RestingOrder{
		ID:       e.nextID,
		Ticker:   ticker,
		Side:     side,
		Price:    e.round(price),
		Quantity: quantity,
	}

	top := e.books[ticker].Top()
	crosses := (side == domain.SideBuy && top.HasAsk && o.Price >= top.BestAsk) ||
		(side == domain.SideSell && top.HasBid && o.Price <= top.BestBid)
	if crosses {
		e.fill(o)
		return o.ID, nil
	}
	e.open[o.ID] = o
	return o.ID, nil
}

// Cancel retira una orden abierta. Cancelar una orden inexistente no es error.
func (e *Exchange) Cancel(_ context.Context, id domain.OrderID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.open[id]; ok {
		delete(e.open, id)
		e.cancelled = append(e.cancelled, o)
	}
	return nil
}

// CancelAll retira todas las órdenes abiertas.
func (e *Exchange) CancelAll(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, o := range e.open {
		delete(e.open, id)
		e.cancelled = append(e.cancelled, o)
	}
	return nil
}

// --- simulación ---

// Advance avanza un tick: mueve los mids, reconstruye books y cruza órdenes.
func (e *Exchange) Advance() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advance()
}

// SetBook fija el book de un ticker hasta el próximo tick (tests).
func (e *Exchange) SetBook(ob domain.OrderBook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ob.SortLevels()
	e.books[ob.Ticker] = ob
	if top := ob.Top(); top.Valid() {
		e.mids[ob.Ticker] = top.Mid()
	}
}

func (e *Exchange) advance() {
	e.tick++
	for _, t := range e.cfg.Tickers {
		e.mids[t] = math.Max(0.01, e.mids[t]+e.rng.NormFloat64()*e.cfg.Volatility)
		e.books[t] = e.buildBook(t)
	}
	e.match()
}

// match ejecuta las órdenes abiertas contra el book nuevo y el flujo taker.
func (e *Exchange) match() {
	ids := make([]domain.OrderID, 0, len(e.open))
	for id := range e.open {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	flow := make(map[string][2]int, len(e.cfg.Tickers))
	for _, t := range e.cfg.Tickers {
		// [0] vendedores agresivos (golpean bids), [1] compradores agresivos.
		flow[t] = [2]int{e.rng.Intn(2 * e.cfg.Depth), e.rng.Intn(2 * e.cfg.Depth)}
	}

	for _, id := range ids {
		o := e.open[id]
		top := e.books[o.Ticker].Top()
		f := flow[o.Ticker]

		switch o.Side {
		case domain.SideBuy:
			switch {
			case top.HasAsk && o.Price >= top.BestAsk:
				e.fill(o)
			case f[0] >= o.Quantity+queueAhead(top.HasBid, o.Price, top.BestBid, top.BidSize):
				e.fill(o)
				f[0] -= o.Quantity
			}
		case domain.SideSell:
			switch {
			case top.HasBid && o.Price <= top.BestBid:
				e.fill(o)
			case f[1] >= o.Quantity+queueAhead(top.HasAsk, top.BestAsk, o.Price, top.AskSize):
				e.fill(o)
				f[1] -= o.Quantity
			}
		}
		flow[o.Ticker] = f
	}
}

// queueAhead es la cantidad que va delante de una orden propia. better > worse
// significa que la orden mejora el top y no tiene cola; igual comparte nivel;
// peor nunca se alcanza en este tick.
func queueAhead(hasTop bool, better, worse float64, topSize int) int {
	switch {
	case !hasTop || better-worse > 1e-9:
		return 0
	case math.Abs(better-worse) <= 1e-9:
		return topSize
	default:
		return math.MaxInt32
	}
}

func (e *Exchange) fill(o domain.RestingOrder) {
	delete(e.open, o.ID)
	if o.Side == domain.SideBuy {
		e.positions[o.Ticker] += o.Quantity
	} else {
		e.positions[o.Ticker] -= o.Quantity
	}
	e.filled = append(e.filled, o)
}

func (e *Exchange) buildBook(ticker string) domain.OrderBook {
	mid := e.mids[ticker]
	half := e.cfg.Spread / 2
	step := math.Pow10(-int(e.cfg.PriceDecimals))

	ob := domain.OrderBook{Ticker: ticker}
	for i := 0; i < bookLevels; i++ {
		off := half + float64(i)*step
		ob.Bids = append(ob.Bids, domain.BookEntry{Price: e.round(mid - off), Quantity: e.cfg.Depth * (i + 1)})
		ob.Asks = append(ob.Asks, domain.BookEntry{Price: e.round(mid + off), Quantity: e.cfg.Depth * (i + 1)})
	}
	return ob
}

func (e *Exchange) round(price float64) float64 {
	f, _ := decimal.NewFromFloat(price).Round(e.cfg.PriceDecimals).Float64()
	return f
}
