package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"medipet/internal/domain/doses"
)

type doseRepo struct {
	mu   sync.RWMutex
	byID map[string]doses.Dose
	// Índice por toma programada para el chequeo de duplicados del service.
	byScheduled map[string]string
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID:        make(map[string]doses.Dose),
		byScheduled: make(map[string]string),
	}
}

func scheduledKey(medicationID string, scheduledAt time.Time) string {
	return medicationID + "|" + scheduledAt.UTC().Format(time.RFC3339)
}

func (r *doseRepo) Create(ctx context.Context, d doses.Dose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dose id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("dose already exists")
	}

	key := scheduledKey(d.MedicationID, d.ScheduledAt)
	if _, exists := r.byScheduled[key]; exists {
		return errors.New("dose already recorded for scheduled time")
	}

	r.byID[d.ID] = d
	r.byScheduled[key] = d.ID
	return nil
}

func (r *doseRepo) GetByScheduled(ctx context.Context, medicationID string, scheduledAt time.Time) (doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byScheduled[scheduledKey(medicationID, scheduledAt)]
	if !ok {
		return doses.Dose{}, doses.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *doseRepo) ListByMedication(ctx context.Context, medicationID string) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for _, d := range r.byID {
		if d.MedicationID == medicationID {
			out = append(out, d)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})

	return out, nil
}

func (r *doseRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for _, d := range r.byID {
		if d.OwnerUserID == ownerUserID {
			out = append(out, d)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})

	return out, nil
}
