package rit

// DTOs raw del REST API de RIT. Solo se usan dentro de este paquete.
// La conversión a domain se hace en mapping.go.

// caseResponse es la respuesta de GET /v1/case.
type caseResponse struct {
	Tick   *int   `json:"tick"` // obligatorio
	Period int    `json:"period"`
	Status string `json:"status"`
}

// historyEntry es una vela de GET /v1/securities/history.
type historyEntry struct {
	Tick  int      `json:"tick"`
	Close *float64 `json:"close"` // obligatorio
}

// bookResponse es la respuesta de GET /v1/securities/book.
// Ambos lados pueden faltar o venir vacíos.
type bookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

// bookLevel es una orden visible en el book. quantity_filled es opcional
// (default 0).
type bookLevel struct {
	Price          *float64 `json:"price"`
	Quantity       float64  `json:"quantity"`
	QuantityFilled float64  `json:"quantity_filled"`
}

// orderDTO es un elemento de GET /v1/orders. Según la versión del cliente el
// identificador llega como order_id o como id.
type orderDTO struct {
	OrderID        *int64   `json:"order_id"`
	ID             *int64   `json:"id"`
	Ticker         string   `json:"ticker"`
	Action         string   `json:"action"`
	Price          *float64 `json:"price"` // ausente en órdenes MARKET
	Quantity       float64  `json:"quantity"`
	QuantityFilled float64  `json:"quantity_filled"`
	Status         string   `json:"status"`
}
