package preferences

import "context"

type Repository interface {
	// Get devuelve ErrNotFound si el usuario nunca configuró preferencias.
	Get(ctx context.Context, ownerUserID string) (Preferences, error)
	Upsert(ctx context.Context, p Preferences) error
}
