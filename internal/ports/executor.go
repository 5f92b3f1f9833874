package ports

import (
	"context"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// OrderGateway ejecuta las acciones del reconciliador en el simulador.
type OrderGateway interface {
	// PlaceLimit envía una orden límite y devuelve su ID.
	PlaceLimit(ctx context.Context, ticker string, side domain.Side, quantity int, price float64) (domain.OrderID, error)

	// Cancel cancela una orden. No se espera confirmación del book.
	Cancel(ctx context.Context, id domain.OrderID) error

	// CancelAll cancela todas las órdenes de la sesión.
	CancelAll(ctx context.Context) error
}
