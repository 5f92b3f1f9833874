package ports

import (
	"context"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// MarketData es el proveedor de snapshots del simulador. Solo lectura.
// Todas las llamadas se hacen con la sesión ya autenticada; una llamada
// rechazada por credenciales devuelve domain.ErrAuth.
type MarketData interface {
	// CurrentTick devuelve el tick actual del caso.
	CurrentTick(ctx context.Context) (int, error)

	// OrderBook devuelve el libro del ticker. Un libro vacío no es error.
	OrderBook(ctx context.Context, ticker string) (domain.OrderBook, error)

	// LastClose devuelve el último cierre. domain.ErrDataUnavailable si no hay histórico.
	LastClose(ctx context.Context, ticker string) (float64, error)

	// Position devuelve la posición firmada del ticker.
	Position(ctx context.Context, ticker string) (int, error)

	// AllPositions devuelve la posición de cada ticker del caso.
	AllPositions(ctx context.Context) (domain.Positions, error)

	// Orders devuelve las órdenes propias con el estado dado, en el orden del simulador.
	Orders(ctx context.Context, status domain.OrderStatus) ([]domain.RestingOrder, error)

	// TransactedCount devuelve cuántas órdenes propias se han ejecutado.
	TransactedCount(ctx context.Context) (int, error)
}
