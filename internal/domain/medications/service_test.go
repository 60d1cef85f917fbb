package medications

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Medication
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medication{}}
}

func (r *testRepo) Create(ctx context.Context, m Medication) error {
	if m.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[m.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) Update(ctx context.Context, m Medication) error {
	if _, ok := r.byID[m.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return errRepoNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medication, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medication{}, errRepoNotFound
	}
	return m, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error) {
	out := make([]Medication, 0)
	for _, m := range r.byID {
		if m.OwnerUserID == ownerUserID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) ListActive(ctx context.Context) ([]Medication, error) {
	out := make([]Medication, 0)
	for _, m := range r.byID {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func fixedNow() time.Time {
	return time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *testRepo) *Service {
	svc := NewService(repo)
	svc.now = fixedNow
	return svc
}

func TestService_Create_DefaultsStartDateToNow(t *testing.T) {
	svc := newTestService(newTestRepo())

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		DrugName:  "Amoxicillin",
		Frequency: "Twice daily",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if m.ID == "" {
		t.Fatal("falta ID")
	}
	if !m.StartDate.Equal(fixedNow()) {
		t.Fatalf("StartDate = %v, want now", m.StartDate)
	}
	if !m.IsActive {
		t.Fatal("un medicamento nuevo arranca activo")
	}
	if len(m.ReminderTimes) != 0 {
		t.Fatal("un medicamento nuevo no tiene recordatorios todavía")
	}
}

func TestService_Create_RequiresDrugName(t *testing.T) {
	svc := newTestService(newTestRepo())

	if _, err := svc.Create(context.Background(), "user-1", CreateInput{}); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(context.Background(), "", CreateInput{DrugName: "X"}); err != ErrInvalidInput {
		t.Fatalf("owner vacío: err = %v, want ErrInvalidInput", err)
	}
}

func TestService_Create_AcceptsFreeTextFrequency(t *testing.T) {
	// La frecuencia nunca se rechaza: texto parcial de OCR no bloquea el alta.
	svc := newTestService(newTestRepo())

	m, err := svc.Create(context.Background(), "user-1", CreateInput{
		DrugName:  "Ibuprofen",
		Frequency: "tk 2 tbls evry mrnng", // OCR roto
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Frequency != "tk 2 tbls evry mrnng" {
		t.Fatalf("la frecuencia se guarda tal cual: %q", m.Frequency)
	}
}

func TestService_SetReminderTimes_EnforcesBoundAndSorts(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	m, err := svc.Create(context.Background(), "user-1", CreateInput{DrugName: "Med"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	late := day.Add(21 * time.Hour)
	early := day.Add(9 * time.Hour)

	updated, err := svc.SetReminderTimes(context.Background(), m.ID, []time.Time{late, early})
	if err != nil {
		t.Fatalf("SetReminderTimes: %v", err)
	}
	if len(updated.ReminderTimes) != 2 {
		t.Fatalf("se esperaban 2 horas, hay %d", len(updated.ReminderTimes))
	}
	if !updated.ReminderTimes[0].Equal(early) {
		t.Fatalf("las horas deben quedar ordenadas: %v", updated.ReminderTimes)
	}

	// Más de 6 se rechaza en la superficie de edición.
	seven := make([]time.Time, 7)
	for i := range seven {
		seven[i] = day.Add(time.Duration(i) * time.Hour)
	}
	if _, err := svc.SetReminderTimes(context.Background(), m.ID, seven); err != ErrInvalidInput {
		t.Fatalf("7 horas: err = %v, want ErrInvalidInput", err)
	}

	// Cero es válido: significa "sin notificaciones configuradas".
	cleared, err := svc.SetReminderTimes(context.Background(), m.ID, nil)
	if err != nil {
		t.Fatalf("SetReminderTimes(nil): %v", err)
	}
	if len(cleared.ReminderTimes) != 0 {
		t.Fatal("debería quedar sin recordatorios")
	}
}

func TestService_Update_PatchSemantics(t *testing.T) {
	svc := newTestService(newTestRepo())

	m, _ := svc.Create(context.Background(), "user-1", CreateInput{
		DrugName: "Metformin",
		Dosage:   "1 tablet",
	})

	newName := "Metformin XR"
	updated, err := svc.Update(context.Background(), m.ID, UpdateInput{DrugName: &newName})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DrugName != "Metformin XR" {
		t.Fatalf("DrugName = %q", updated.DrugName)
	}
	if updated.Dosage != "1 tablet" {
		t.Fatalf("campos no enviados no se tocan: Dosage = %q", updated.Dosage)
	}

	// end_date: null explícito limpia.
	end := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	updated, err = svc.Update(context.Background(), m.ID, UpdateInput{
		EndDate: EndDatePatch{Present: true, Value: &end},
	})
	if err != nil {
		t.Fatalf("Update end: %v", err)
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(end) {
		t.Fatalf("EndDate = %v", updated.EndDate)
	}

	updated, err = svc.Update(context.Background(), m.ID, UpdateInput{
		EndDate: EndDatePatch{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("Update clear end: %v", err)
	}
	if updated.EndDate != nil {
		t.Fatal("EndDate debería quedar limpio")
	}

	empty := "  "
	if _, err := svc.Update(context.Background(), m.ID, UpdateInput{DrugName: &empty}); err != ErrInvalidInput {
		t.Fatalf("nombre vacío: err = %v, want ErrInvalidInput", err)
	}
}

func TestService_AgendaForDay(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	day9 := start.Add(9 * time.Hour)
	day21 := start.Add(21 * time.Hour)

	// Con recordatorios: aparece.
	withTimes, _ := svc.Create(ctx, "user-1", CreateInput{
		DrugName: "Daily med", Frequency: "Twice daily", StartDate: &start,
	})
	_, _ = svc.SetReminderTimes(ctx, withTimes.ID, []time.Time{day21, day9})

	// Sin recordatorios: no aparece aunque la frecuencia diga que sí.
	_, _ = svc.Create(ctx, "user-1", CreateInput{
		DrugName: "No reminders yet", Frequency: "Once daily", StartDate: &start,
	})

	// PRN: nunca aparece.
	prn, _ := svc.Create(ctx, "user-1", CreateInput{
		DrugName: "PRN med", Frequency: "As needed (PRN)", StartDate: &start,
	})
	_, _ = svc.SetReminderTimes(ctx, prn.ID, []time.Time{day9})

	// De otro usuario: no se mezcla.
	other, _ := svc.Create(ctx, "user-2", CreateInput{
		DrugName: "Other user", Frequency: "Once daily", StartDate: &start,
	})
	_, _ = svc.SetReminderTimes(ctx, other.ID, []time.Time{day9})

	day := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	entries, err := svc.AgendaForDay(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("AgendaForDay: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("se esperaban 2 entradas (solo el medicamento con horas), hay %d", len(entries))
	}
	for _, e := range entries {
		if e.Medication.ID != withTimes.ID {
			t.Fatalf("entrada inesperada: %s", e.Medication.DrugName)
		}
	}
	if !entries[0].Time.Before(entries[1].Time) {
		t.Fatal("la agenda debe venir ordenada cronológicamente")
	}

	// Pasado el EndDate deja de aparecer.
	endDate := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Update(ctx, withTimes.ID, UpdateInput{
		EndDate: EndDatePatch{Present: true, Value: &endDate},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	entries, _ = svc.AgendaForDay(ctx, "user-1", day)
	if len(entries) != 0 {
		t.Fatalf("después de EndDate la agenda debería estar vacía, hay %d entradas", len(entries))
	}
}

func TestService_NextDose(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	m, _ := svc.Create(ctx, "user-1", CreateInput{
		DrugName: "Med", Frequency: "Twice daily", StartDate: &start,
	})

	// Sin recordatorios: no hay próxima toma.
	_, _, has, err := svc.NextDose(ctx, m.ID)
	if err != nil {
		t.Fatalf("NextDose: %v", err)
	}
	if has {
		t.Fatal("sin recordatorios no hay próxima toma")
	}

	_, _ = svc.SetReminderTimes(ctx, m.ID, []time.Time{
		start.Add(9 * time.Hour),
		start.Add(21 * time.Hour),
	})

	// now fijo = 2024-06-10 12:00 → la próxima es hoy 21:00.
	_, next, has, err := svc.NextDose(ctx, m.ID)
	if err != nil {
		t.Fatalf("NextDose: %v", err)
	}
	if !has {
		t.Fatal("se esperaba próxima toma")
	}
	want := time.Date(2024, time.June, 10, 21, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}
