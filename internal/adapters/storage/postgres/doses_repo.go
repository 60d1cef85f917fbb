package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"medipet/internal/domain/doses"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

func (r *DosesRepo) Create(ctx context.Context, d doses.Dose) error {
	// UNIQUE (medication_id, scheduled_at) respalda el dedupe del service.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dose_records (
			id, medication_id, owner_user_id,
			scheduled_at, status, taken_at,
			recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		d.ID,
		d.MedicationID,
		d.OwnerUserID,
		d.ScheduledAt,
		string(d.Status),
		toNullDate(d.TakenAt),
		d.RecordedAt,
	)
	return err
}

const doseColumns = `
	id, medication_id, owner_user_id,
	scheduled_at, status, taken_at,
	recorded_at
`

func (r *DosesRepo) GetByScheduled(ctx context.Context, medicationID string, scheduledAt time.Time) (doses.Dose, error) {
	medicationID = strings.TrimSpace(medicationID)
	if medicationID == "" {
		return doses.Dose{}, doses.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+doseColumns+`
		FROM dose_records
		WHERE medication_id = $1 AND scheduled_at = $2
	`, medicationID, scheduledAt)

	d, err := scanDose(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return doses.Dose{}, doses.ErrNotFound
		}
		return doses.Dose{}, err
	}
	return d, nil
}

func (r *DosesRepo) ListByMedication(ctx context.Context, medicationID string) ([]doses.Dose, error) {
	medicationID = strings.TrimSpace(medicationID)
	if medicationID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+doseColumns+`
		FROM dose_records
		WHERE medication_id = $1
		ORDER BY scheduled_at ASC
	`, medicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoses(rows)
}

func (r *DosesRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]doses.Dose, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+doseColumns+`
		FROM dose_records
		WHERE owner_user_id = $1
		ORDER BY scheduled_at ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoses(rows)
}

func collectDoses(rows *sql.Rows) ([]doses.Dose, error) {
	out := make([]doses.Dose, 0)
	for rows.Next() {
		d, err := scanDose(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDose(scan func(dest ...any) error) (doses.Dose, error) {
	var d doses.Dose
	var status string
	var taken sql.NullTime

	if err := scan(
		&d.ID,
		&d.MedicationID,
		&d.OwnerUserID,
		&d.ScheduledAt,
		&status,
		&taken,
		&d.RecordedAt,
	); err != nil {
		return doses.Dose{}, err
	}

	d.Status = doses.Status(status)
	if taken.Valid {
		t := taken.Time
		d.TakenAt = &t
	}

	return d, nil
}
