package doses

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyRecorded = errors.New("dose already recorded")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type ConfirmInput struct {
	MedicationID string
	OwnerUserID  string
	ScheduledAt  time.Time
	// TakenAt opcional: zero = ahora.
	TakenAt time.Time
	// Ventana (minutos) alrededor de ScheduledAt para contar la toma puntual.
	// Viene de las preferencias del usuario.
	WindowMinutes int
}

// Confirm registra una toma confirmada. Puntual si |takenAt − scheduledAt|
// queda dentro de la ventana de confirmación; tarde en caso contrario.
// Una toma programada se registra una sola vez.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (Dose, error) {
	if strings.TrimSpace(in.MedicationID) == "" || strings.TrimSpace(in.OwnerUserID) == "" {
		return Dose{}, ErrInvalidInput
	}
	if in.ScheduledAt.IsZero() {
		return Dose{}, ErrInvalidInput
	}

	taken := in.TakenAt
	if taken.IsZero() {
		taken = s.now()
	}

	window := time.Duration(in.WindowMinutes) * time.Minute
	if window <= 0 {
		window = 30 * time.Minute
	}

	status := StatusLate
	diff := taken.Sub(in.ScheduledAt)
	if diff < 0 {
		diff = -diff
	}
	if diff <= window {
		status = StatusOnTime
	}

	return s.record(ctx, in.MedicationID, in.OwnerUserID, in.ScheduledAt, status, &taken)
}

// Skip registra una toma salteada a propósito (distinto de missed).
func (s *Service) Skip(ctx context.Context, medicationID, ownerUserID string, scheduledAt time.Time) (Dose, error) {
	if strings.TrimSpace(medicationID) == "" || strings.TrimSpace(ownerUserID) == "" {
		return Dose{}, ErrInvalidInput
	}
	if scheduledAt.IsZero() {
		return Dose{}, ErrInvalidInput
	}
	return s.record(ctx, medicationID, ownerUserID, scheduledAt, StatusSkipped, nil)
}

func (s *Service) record(ctx context.Context, medID, owner string, scheduledAt time.Time, status Status, takenAt *time.Time) (Dose, error) {
	if _, err := s.repo.GetByScheduled(ctx, medID, scheduledAt); err == nil {
		return Dose{}, ErrAlreadyRecorded
	}

	d := Dose{
		ID:           uuid.NewString(),
		MedicationID: medID,
		OwnerUserID:  owner,
		ScheduledAt:  scheduledAt,
		Status:       status,
		TakenAt:      takenAt,
		RecordedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Dose{}, err
	}
	return d, nil
}

func (s *Service) ListByMedication(ctx context.Context, medicationID string) ([]Dose, error) {
	out, err := s.repo.ListByMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out, nil
}

// Stats calcula las métricas de adherencia del usuario sobre su historial.
//
// Adherencia = tomas confirmadas (puntuales o tarde) sobre el total registrado.
// Un día cuenta para la racha si tuvo al menos una toma confirmada y ninguna
// perdida ni salteada. El día de hoy, todavía incompleto, no corta la racha
// mientras no tenga registros.
func (s *Service) Stats(ctx context.Context, ownerUserID string) (Stats, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Stats{}, ErrInvalidInput
	}

	all, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	taken := 0

	type dayAgg struct {
		taken  bool
		broken bool
	}
	byDay := map[string]*dayAgg{}

	for _, d := range all {
		switch d.Status {
		case StatusOnTime:
			st.OnTimeDoses++
			taken++
		case StatusLate:
			taken++
		case StatusMissed:
			st.MissedDoses++
		}

		key := d.ScheduledAt.Format("2006-01-02")
		agg := byDay[key]
		if agg == nil {
			agg = &dayAgg{}
			byDay[key] = agg
		}
		switch d.Status {
		case StatusOnTime, StatusLate:
			agg.taken = true
		case StatusMissed, StatusSkipped:
			agg.broken = true
		}
	}

	if len(all) > 0 {
		st.AdherencePercentage = int(float64(taken)/float64(len(all))*100 + 0.5)
	}

	adherent := func(key string) bool {
		agg, ok := byDay[key]
		return ok && agg.taken && !agg.broken
	}

	// Racha actual: días adherentes consecutivos hacia atrás desde hoy.
	day := s.now()
	if _, ok := byDay[day.Format("2006-01-02")]; !ok {
		day = day.AddDate(0, 0, -1) // hoy sin registros aún no corta
	}
	for adherent(day.Format("2006-01-02")) {
		st.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}

	// Racha más larga: corridas consecutivas sobre los días con registro.
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	run := 0
	var prev time.Time
	for _, k := range keys {
		if !adherent(k) {
			run = 0
			continue
		}
		d, _ := time.Parse("2006-01-02", k)
		if run > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		prev = d
		if run > st.LongestStreak {
			st.LongestStreak = run
		}
	}

	return st, nil
}
