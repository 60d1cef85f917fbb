package medications

import "context"

type Repository interface {
	Create(ctx context.Context, m Medication) error
	Update(ctx context.Context, m Medication) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error)

	// ListActive devuelve medicamentos activos de todos los usuarios.
	// Lo usa el sweeper de dosis perdidas.
	ListActive(ctx context.Context) ([]Medication, error)
}
