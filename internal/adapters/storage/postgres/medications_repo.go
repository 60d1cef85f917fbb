package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"medipet/internal/domain/medications"
	"medipet/internal/domain/schedule"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (
			id, owner_user_id,
			drug_name, strength, dosage, frequency, instructions,
			rx_number, quantity, refills, pharmacy, prescriber,
			start_date, end_date, reminder_times, is_active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		m.ID,
		m.OwnerUserID,
		m.DrugName,
		m.Strength,
		m.Dosage,
		m.Frequency,
		m.Instructions,
		m.RxNumber,
		m.Quantity,
		m.Refills,
		m.Pharmacy,
		m.Prescriber,
		m.StartDate,
		toNullDate(m.EndDate),
		clocksToText(m.ReminderTimes),
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			drug_name = $2,
			strength = $3,
			dosage = $4,
			frequency = $5,
			instructions = $6,
			rx_number = $7,
			quantity = $8,
			refills = $9,
			pharmacy = $10,
			prescriber = $11,
			start_date = $12,
			end_date = $13,
			reminder_times = $14,
			is_active = $15,
			updated_at = $16
		WHERE id = $1
	`,
		m.ID,
		m.DrugName,
		m.Strength,
		m.Dosage,
		m.Frequency,
		m.Instructions,
		m.RxNumber,
		m.Quantity,
		m.Refills,
		m.Pharmacy,
		m.Prescriber,
		m.StartDate,
		toNullDate(m.EndDate),
		clocksToText(m.ReminderTimes),
		m.IsActive,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

const medicationColumns = `
	id, owner_user_id,
	drug_name, strength, dosage, frequency, instructions,
	rx_number, quantity, refills, pharmacy, prescriber,
	start_date, end_date, reminder_times, is_active,
	created_at, updated_at
`

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE id = $1
	`, id)

	m, err := scanMedication(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]medications.Medication, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE owner_user_id = $1
		ORDER BY created_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMedications(rows)
}

func (r *MedicationsRepo) ListActive(ctx context.Context) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE is_active = TRUE
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMedications(rows)
}

func collectMedications(rows *sql.Rows) ([]medications.Medication, error) {
	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMedication(scan func(dest ...any) error) (medications.Medication, error) {
	var m medications.Medication
	var end sql.NullTime
	var reminders string

	if err := scan(
		&m.ID,
		&m.OwnerUserID,
		&m.DrugName,
		&m.Strength,
		&m.Dosage,
		&m.Frequency,
		&m.Instructions,
		&m.RxNumber,
		&m.Quantity,
		&m.Refills,
		&m.Pharmacy,
		&m.Prescriber,
		&m.StartDate,
		&end,
		&reminders,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	if end.Valid {
		t := end.Time
		m.EndDate = &t
	}
	m.ReminderTimes = textToClocks(reminders)

	return m, nil
}

// reminder_times es TEXT "HH:MM,HH:MM". Solo importa la hora del día;
// al decodificar se proyecta sobre una fecha de referencia fija.
var reminderRefDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func clocksToText(times []time.Time) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, schedule.ClockOf(t).String())
	}
	return strings.Join(parts, ",")
}

func textToClocks(s string) []time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	out := make([]time.Time, 0)
	for _, part := range strings.Split(s, ",") {
		c, err := schedule.ParseClock(part)
		if err != nil {
			// Valor corrupto en DB: lo salteamos en vez de romper el scan.
			continue
		}
		out = append(out, c.On(reminderRefDay))
	}
	return out
}
