package medications

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"medipet/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
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

type CreateInput struct {
	DrugName     string
	Strength     string
	Dosage       string
	Frequency    string
	Instructions string
	RxNumber     string
	Quantity     string
	Refills      string
	Pharmacy     string
	Prescriber   string
	StartDate    *time.Time // nil = hoy
	EndDate      *time.Time
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Medication{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.DrugName) == "" {
		return Medication{}, ErrInvalidInput
	}

	now := s.now()

	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}

	// Frecuencia: guardamos el texto tal cual vino (puede ser libre); la
	// clasificación es laxa y nunca rechaza, así un label parcial no bloquea el alta.
	m := Medication{
		ID:           uuid.NewString(),
		OwnerUserID:  strings.TrimSpace(ownerUserID),
		DrugName:     strings.TrimSpace(in.DrugName),
		Strength:     strings.TrimSpace(in.Strength),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    strings.TrimSpace(in.Frequency),
		Instructions: strings.TrimSpace(in.Instructions),
		RxNumber:     strings.TrimSpace(in.RxNumber),
		Quantity:     strings.TrimSpace(in.Quantity),
		Refills:      strings.TrimSpace(in.Refills),
		Pharmacy:     strings.TrimSpace(in.Pharmacy),
		Prescriber:   strings.TrimSpace(in.Prescriber),
		StartDate:    start,
		EndDate:      in.EndDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// ListActive devuelve los medicamentos activos de todos los usuarios.
// Lo consume el sweeper de dosis perdidas.
func (s *Service) ListActive(ctx context.Context) ([]Medication, error) {
	return s.repo.ListActive(ctx)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	DrugName     *string
	Strength     *string
	Dosage       *string
	Frequency    *string
	Instructions *string
	RxNumber     *string
	Quantity     *string
	Refills      *string
	Pharmacy     *string
	Prescriber   *string
	StartDate    *time.Time
	IsActive     *bool

	// EndDate distingue "no enviado" de "null = limpiar".
	EndDate EndDatePatch
}

type EndDatePatch struct {
	Present bool
	Value   *time.Time
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}

	if in.DrugName != nil {
		name := strings.TrimSpace(*in.DrugName)
		if name == "" {
			return Medication{}, ErrInvalidInput
		}
		m.DrugName = name
	}
	if in.Strength != nil {
		m.Strength = strings.TrimSpace(*in.Strength)
	}
	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Frequency != nil {
		m.Frequency = strings.TrimSpace(*in.Frequency)
	}
	if in.Instructions != nil {
		m.Instructions = strings.TrimSpace(*in.Instructions)
	}
	if in.RxNumber != nil {
		m.RxNumber = strings.TrimSpace(*in.RxNumber)
	}
	if in.Quantity != nil {
		m.Quantity = strings.TrimSpace(*in.Quantity)
	}
	if in.Refills != nil {
		m.Refills = strings.TrimSpace(*in.Refills)
	}
	if in.Pharmacy != nil {
		m.Pharmacy = strings.TrimSpace(*in.Pharmacy)
	}
	if in.Prescriber != nil {
		m.Prescriber = strings.TrimSpace(*in.Prescriber)
	}
	if in.StartDate != nil {
		m.StartDate = *in.StartDate
	}
	if in.EndDate.Present {
		m.EndDate = in.EndDate.Value
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}

	m.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// SetReminderTimes reemplaza las horas de recordatorio del medicamento.
// El tope de 6 se aplica acá (superficie de edición); el engine tolera
// cualquier largo, incluido cero (cero = sin notificaciones todavía).
func (s *Service) SetReminderTimes(ctx context.Context, id string, times []time.Time) (Medication, error) {
	if len(times) > schedule.MaxRemindersPerDay {
		return Medication{}, ErrInvalidInput
	}

	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}

	sort.Slice(times, func(i, j int) bool {
		return schedule.ClockOf(times[i]).Minutes() < schedule.ClockOf(times[j]).Minutes()
	})

	m.ReminderTimes = times
	m.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// AgendaEntry es una toma concreta (medicamento + hora) en la agenda de un día.
type AgendaEntry struct {
	Medication Medication
	Time       time.Time
}

// AgendaForDay arma la agenda del día del usuario. Un medicamento aparece si:
//  1. el día es activo para su frecuencia (OccursOnDate), y
//  2. tiene al menos una hora de recordatorio guardada.
//
// Sin horas configuradas no aparece hasta que el usuario setee alguna.
// PRN queda excluido del calendario. Entradas ordenadas cronológicamente.
func (s *Service) AgendaForDay(ctx context.Context, ownerUserID string, day time.Time) ([]AgendaEntry, error) {
	meds, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]AgendaEntry, 0)
	for _, m := range meds {
		if !m.IsActive || len(m.ReminderTimes) == 0 {
			continue
		}
		if m.EndDate != nil && day.After(endOfDay(*m.EndDate)) {
			continue
		}
		if !schedule.OccursOnDate(m.scheduleView(), day) {
			continue
		}
		for _, tm := range schedule.TimesForDay(m.scheduleView(), day) {
			out = append(out, AgendaEntry{Medication: m, Time: tm})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// NextDose resuelve la próxima toma del medicamento después de now.
func (s *Service) NextDose(ctx context.Context, id string) (Medication, time.Time, bool, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, time.Time{}, false, err
	}
	next, ok := schedule.NextDoseTime(m.scheduleView(), s.now())
	return m, next, ok, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
