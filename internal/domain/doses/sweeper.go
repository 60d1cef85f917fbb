package doses

import (
	"context"
	"errors"
	"time"

	"medipet/internal/domain/medications"
	"medipet/internal/domain/preferences"
	"medipet/internal/domain/schedule"
	"medipet/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// MedicationSource es lo que el sweeper necesita del módulo de medications.
type MedicationSource interface {
	ListActive(ctx context.Context) ([]medications.Medication, error)
}

// PreferencesSource provee la ventana de confirmación de cada usuario.
type PreferencesSource interface {
	Get(ctx context.Context, ownerUserID string) (preferences.Preferences, error)
}

// Sweeper marca como "missed" las tomas programadas de hoy cuya ventana de
// confirmación ya pasó sin registro. Corre periódicamente vía cron; es
// contabilidad de adherencia, no delivery de notificaciones.
type Sweeper struct {
	svc   *Service
	meds  MedicationSource
	prefs PreferencesSource
	log   logger.Logger
	now   func() time.Time

	c *cron.Cron
}

func NewSweeper(svc *Service, meds MedicationSource, prefs PreferencesSource, log logger.Logger) *Sweeper {
	return &Sweeper{
		svc:   svc,
		meds:  meds,
		prefs: prefs,
		log:   log,
		now:   time.Now,
	}
}

// Start programa el barrido con un spec de cron ("@every 5m", "*/10 * * * *").
func (s *Sweeper) Start(spec string) error {
	if s.c != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.log.Error("dose sweep failed", map[string]any{"error": err.Error()})
		}
	})
	if err != nil {
		return err
	}

	s.c = c
	c.Start()
	s.log.Info("dose sweeper started", map[string]any{"spec": spec})
	return nil
}

func (s *Sweeper) Stop() {
	if s.c != nil {
		s.c.Stop()
		s.c = nil
	}
}

// Sweep hace una pasada sobre los medicamentos activos.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	meds, err := s.meds.ListActive(ctx)
	if err != nil {
		return err
	}

	swept := 0
	for _, m := range meds {
		if len(m.ReminderTimes) == 0 {
			continue
		}
		if m.EndDate != nil && now.After(endOfDay(*m.EndDate)) {
			continue
		}

		view := schedule.Medication{
			Frequency:     m.Frequency,
			StartDate:     m.StartDate,
			ReminderTimes: m.ReminderTimes,
		}
		if !schedule.OccursOnDate(view, now) {
			continue
		}

		window := confirmationWindow(ctx, s.prefs, m.OwnerUserID)

		for _, tm := range schedule.TimesForDay(view, now) {
			if now.Before(tm.Add(window)) {
				continue // la ventana sigue abierta
			}

			_, err := s.svc.repo.GetByScheduled(ctx, m.ID, tm)
			if err == nil {
				continue // ya registrada (confirmada, salteada o ya barrida)
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}

			if _, err := s.svc.record(ctx, m.ID, m.OwnerUserID, tm, StatusMissed, nil); err != nil {
				if errors.Is(err, ErrAlreadyRecorded) {
					continue
				}
				return err
			}
			swept++
		}
	}

	if swept > 0 {
		s.log.Info("doses marked missed", map[string]any{"count": swept})
	}
	return nil
}

func confirmationWindow(ctx context.Context, prefs PreferencesSource, owner string) time.Duration {
	p, err := prefs.Get(ctx, owner)
	if err != nil || p.ConfirmationWindowMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(p.ConfirmationWindowMinutes) * time.Minute
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
