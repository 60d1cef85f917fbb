package medications

import (
	"time"

	"medipet/internal/domain/schedule"
)

// Medication es una receta registrada por el usuario (carga manual; el flujo
// de captura de etiqueta queda fuera de este servicio).
type Medication struct {
	ID          string
	OwnerUserID string

	DrugName string
	Strength string // "500mg"
	Dosage   string // "1 tablet"

	Frequency string // texto libre o etiqueta canónica; se clasifica al leer

	Instructions string
	RxNumber     string
	Quantity     string
	Refills      string
	Pharmacy     string
	Prescriber   string

	// Ancla de la recurrencia: antes de StartDate nunca hay toma.
	StartDate time.Time
	EndDate   *time.Time

	// Horas de recordatorio (solo importan hora/minuto). Puede estar vacío:
	// sin horas configuradas el medicamento no aparece en el calendario.
	ReminderTimes []time.Time

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// scheduleView devuelve la vista que consume el engine de scheduling.
func (m Medication) scheduleView() schedule.Medication {
	return schedule.Medication{
		Frequency:     m.Frequency,
		StartDate:     m.StartDate,
		ReminderTimes: m.ReminderTimes,
	}
}
