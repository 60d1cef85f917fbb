package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medipet/internal/domain/preferences"
)

type preferencesRepo struct {
	mu      sync.RWMutex
	byOwner map[string]preferences.Preferences
}

func NewPreferencesRepo() preferences.Repository {
	return &preferencesRepo{
		byOwner: make(map[string]preferences.Preferences),
	}
}

func (r *preferencesRepo) Get(ctx context.Context, ownerUserID string) (preferences.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byOwner[ownerUserID]
	if !ok {
		// El service traduce esto a defaults; acá solo señalamos ausencia.
		return preferences.Preferences{}, preferences.ErrNotFound
	}
	return p, nil
}

func (r *preferencesRepo) Upsert(ctx context.Context, p preferences.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.OwnerUserID) == "" {
		return errors.New("owner user id required")
	}
	r.byOwner[p.OwnerUserID] = p
	return nil
}
