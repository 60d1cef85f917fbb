package preferences

import (
	"context"
	"errors"
	"strings"
	"time"

	"medipet/internal/domain/schedule"
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

// Get devuelve las preferencias del usuario, o los defaults si nunca configuró.
// Nunca ErrNotFound hacia afuera: el flujo de recordatorios no se bloquea por
// falta de configuración.
func (s *Service) Get(ctx context.Context, ownerUserID string) (Preferences, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Preferences{}, ErrInvalidInput
	}

	p, err := s.repo.Get(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Default(ownerUserID), nil
		}
		return Preferences{}, err
	}
	return p, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	WakeTime  *string
	SleepTime *string

	Breakfast *string
	Lunch     *string
	Dinner    *string

	NotificationEnabled *bool
	NotificationSound   *bool

	UseRFIDConfirmation       *bool
	ConfirmationWindowMinutes *int
}

// Update aplica cambios parciales. El store es estricto con "HH:MM" aunque el
// engine degrade en silencio: un wake/sleep inválido acá es un typo del usuario
// y conviene rechazarlo en el momento, no propagarlo.
func (s *Service) Update(ctx context.Context, ownerUserID string, in UpdateInput) (Preferences, error) {
	p, err := s.Get(ctx, ownerUserID)
	if err != nil {
		return Preferences{}, err
	}

	if in.WakeTime != nil {
		if _, err := schedule.ParseClock(*in.WakeTime); err != nil {
			return Preferences{}, ErrInvalidInput
		}
		p.WakeTime = strings.TrimSpace(*in.WakeTime)
	}
	if in.SleepTime != nil {
		if _, err := schedule.ParseClock(*in.SleepTime); err != nil {
			return Preferences{}, ErrInvalidInput
		}
		p.SleepTime = strings.TrimSpace(*in.SleepTime)
	}

	// Meal times: hints opcionales, misma validación. String vacío los limpia.
	if in.Breakfast != nil {
		v, err := cleanMeal(*in.Breakfast)
		if err != nil {
			return Preferences{}, ErrInvalidInput
		}
		p.MealTimes.Breakfast = v
	}
	if in.Lunch != nil {
		v, err := cleanMeal(*in.Lunch)
		if err != nil {
			return Preferences{}, ErrInvalidInput
		}
		p.MealTimes.Lunch = v
	}
	if in.Dinner != nil {
		v, err := cleanMeal(*in.Dinner)
		if err != nil {
			return Preferences{}, ErrInvalidInput
		}
		p.MealTimes.Dinner = v
	}

	if in.NotificationEnabled != nil {
		p.NotificationEnabled = *in.NotificationEnabled
	}
	if in.NotificationSound != nil {
		p.NotificationSound = *in.NotificationSound
	}
	if in.UseRFIDConfirmation != nil {
		p.UseRFIDConfirmation = *in.UseRFIDConfirmation
	}
	if in.ConfirmationWindowMinutes != nil {
		if *in.ConfirmationWindowMinutes < 0 {
			return Preferences{}, ErrInvalidInput
		}
		p.ConfirmationWindowMinutes = *in.ConfirmationWindowMinutes
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.repo.Upsert(ctx, p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

func cleanMeal(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := schedule.ParseClock(s); err != nil {
		return "", err
	}
	return s, nil
}
