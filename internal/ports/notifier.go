package ports

import (
	"context"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// Reporter presenta al usuario lo que ocurre en cada tick.
type Reporter interface {
	// ReportTick se llama una vez por tick, después de reconciliar.
	ReportTick(ctx context.Context, report domain.TickReport)
}
