package doses

import (
	"context"
	"testing"
	"time"

	"medipet/internal/domain/medications"
	"medipet/internal/domain/preferences"
	"medipet/internal/platform/logger"
)

type fakeMeds struct {
	meds []medications.Medication
}

func (f *fakeMeds) ListActive(ctx context.Context) ([]medications.Medication, error) {
	return f.meds, nil
}

type fakePrefs struct {
	windowMinutes int
}

func (f *fakePrefs) Get(ctx context.Context, ownerUserID string) (preferences.Preferences, error) {
	p := preferences.Default(ownerUserID)
	if f.windowMinutes > 0 {
		p.ConfirmationWindowMinutes = f.windowMinutes
	}
	return p, nil
}

func testLogger() logger.Logger {
	return logger.New(logger.Options{Level: logger.Error})
}

func TestSweeper_MarksExpiredSlotsMissed(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	med := medications.Medication{
		ID:          "med-1",
		OwnerUserID: "user-1",
		DrugName:    "Med",
		Frequency:   "Twice daily",
		StartDate:   start,
		IsActive:    true,
		ReminderTimes: []time.Time{
			start.Add(9 * time.Hour),
			start.Add(21 * time.Hour),
		},
	}

	sw := NewSweeper(svc, &fakeMeds{meds: []medications.Medication{med}}, &fakePrefs{windowMinutes: 30}, testLogger())

	// 12:00: la toma de las 09:00 ya venció (ventana 30m); la de las 21:00 no.
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return now }

	if err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	all, _ := repo.ListByMedication(context.Background(), "med-1")
	if len(all) != 1 {
		t.Fatalf("se esperaba 1 dosis barrida, hay %d", len(all))
	}
	got := all[0]
	if got.Status != StatusMissed {
		t.Fatalf("status = %s, want missed", got.Status)
	}
	want := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	if !got.ScheduledAt.Equal(want) {
		t.Fatalf("ScheduledAt = %v, want %v", got.ScheduledAt, want)
	}

	// Segunda pasada: idempotente, no duplica.
	if err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep 2: %v", err)
	}
	all, _ = repo.ListByMedication(context.Background(), "med-1")
	if len(all) != 1 {
		t.Fatalf("el barrido debe ser idempotente, hay %d dosis", len(all))
	}
}

func TestSweeper_SkipsConfirmedAndOpenSlots(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	med := medications.Medication{
		ID:            "med-1",
		OwnerUserID:   "user-1",
		Frequency:     "Once daily",
		StartDate:     start,
		IsActive:      true,
		ReminderTimes: []time.Time{start.Add(9 * time.Hour)},
	}

	sw := NewSweeper(svc, &fakeMeds{meds: []medications.Medication{med}}, &fakePrefs{}, testLogger())
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return now }

	// El usuario ya confirmó la toma de hoy: no hay nada que barrer.
	scheduled := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	if _, err := svc.Confirm(context.Background(), ConfirmInput{
		MedicationID: "med-1", OwnerUserID: "user-1",
		ScheduledAt: scheduled, TakenAt: scheduled, WindowMinutes: 30,
	}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	all, _ := repo.ListByMedication(context.Background(), "med-1")
	if len(all) != 1 {
		t.Fatalf("no debería agregarse nada, hay %d dosis", len(all))
	}
}

func TestSweeper_IgnoresInactiveDaysAndMedsWithoutReminders(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	meds := []medications.Medication{
		{
			// Every other day: el 11 es día inactivo.
			ID: "med-eod", OwnerUserID: "user-1",
			Frequency: "Every other day", StartDate: start, IsActive: true,
			ReminderTimes: []time.Time{start.Add(9 * time.Hour)},
		},
		{
			// Sin horas configuradas: fuera del calendario.
			ID: "med-bare", OwnerUserID: "user-1",
			Frequency: "Once daily", StartDate: start, IsActive: true,
		},
	}

	sw := NewSweeper(svc, &fakeMeds{meds: meds}, &fakePrefs{}, testLogger())
	sw.now = func() time.Time {
		return time.Date(2024, time.June, 11, 23, 0, 0, 0, time.UTC)
	}

	if err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for _, id := range []string{"med-eod", "med-bare"} {
		all, _ := repo.ListByMedication(context.Background(), id)
		if len(all) != 0 {
			t.Errorf("%s: no debería tener dosis barridas, tiene %d", id, len(all))
		}
	}
}
