package ports

import (
	"context"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// Journal persiste un registro de auditoría de cada tick.
// Nunca se lee para restaurar estado de la estrategia.
type Journal interface {
	// RecordTick guarda el resumen de un tick de la ejecución actual.
	RecordTick(ctx context.Context, report domain.TickReport) error

	// Summary agrega los ticks registrados en la ejecución actual.
	Summary(ctx context.Context) (domain.RunSummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
