package doses

import "time"

// Status es el desenlace de una toma programada.
type Status string

const (
	// Confirmada dentro de la ventana de confirmación.
	StatusOnTime Status = "on_time"
	// Confirmada fuera de la ventana.
	StatusLate Status = "late"
	// El usuario la salteó a propósito.
	StatusSkipped Status = "skipped"
	// Pasó la ventana sin registro; lo marca el sweeper.
	StatusMissed Status = "missed"
)

// Dose es el registro de adherencia de una toma programada concreta.
// La identidad lógica es (MedicationID, ScheduledAt): una toma programada
// se registra una sola vez.
type Dose struct {
	ID           string
	MedicationID string
	OwnerUserID  string

	ScheduledAt time.Time
	Status      Status
	TakenAt     *time.Time

	RecordedAt time.Time
}

// Stats son las métricas de adherencia del usuario.
type Stats struct {
	TotalMedications    int
	AdherencePercentage int
	CurrentStreak       int
	LongestStreak       int
	MissedDoses         int
	OnTimeDoses         int
}
