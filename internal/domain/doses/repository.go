package doses

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, d Dose) error
	// GetByScheduled devuelve ErrNotFound si la toma programada no tiene registro.
	GetByScheduled(ctx context.Context, medicationID string, scheduledAt time.Time) (Dose, error)
	ListByMedication(ctx context.Context, medicationID string) ([]Dose, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Dose, error)
}
