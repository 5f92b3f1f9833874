package domain

import "fmt"

// Side es el lado de una orden tal y como lo expone el simulador ("action").
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide valida el campo "action" de una orden.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: unknown side %q", ErrMalformedResponse, s)
}

// OrderID es el identificador numérico que asigna el simulador.
type OrderID int64

// OrderStatus filtra el listado de órdenes del simulador.
type OrderStatus string

const (
	StatusOpen       OrderStatus = "OPEN"
	StatusTransacted OrderStatus = "TRANSACTED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// RestingOrder es una orden propia que sigue en el book.
// FirstSeenTick lo rellena el reconciliador, no el simulador.
type RestingOrder struct {
	ID            OrderID
	Ticker        string
	Side          Side
	Price         float64
	Quantity      int
	FirstSeenTick int
}

// Quote es la orden que queremos tener en el book en un lado.
type Quote struct {
	Side     Side
	Price    float64
	Quantity int
}

// QuotePair agrupa los precios objetivo de ambos lados para un ticker.
// Las cantidades se calculan aparte (SizeCalculator).
type QuotePair struct {
	Ticker string
	Bid    float64
	Ask    float64
}
