package preferences

import "time"

// MealTimes son hints informativos ("HH:MM"); la lógica de recurrencia no los usa.
type MealTimes struct {
	Breakfast string
	Lunch     string
	Dinner    string
}

// Preferences es la rutina diaria del usuario. WakeTime/SleepTime definen la
// ventana despierto con la que se reparten los recordatorios del día.
type Preferences struct {
	OwnerUserID string

	WakeTime  string // "HH:MM" 24h
	SleepTime string // "HH:MM" 24h

	MealTimes MealTimes

	NotificationEnabled bool
	NotificationSound   bool

	// Confirmación de tomas: ventana (en minutos) alrededor de la hora
	// programada para contar una toma como puntual.
	UseRFIDConfirmation       bool
	ConfirmationWindowMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Default devuelve las preferencias iniciales de un usuario sin configurar.
func Default(ownerUserID string) Preferences {
	return Preferences{
		OwnerUserID: ownerUserID,
		WakeTime:    "07:00",
		SleepTime:   "22:00",
		MealTimes: MealTimes{
			Breakfast: "08:00",
			Lunch:     "12:00",
			Dinner:    "18:00",
		},
		NotificationEnabled:       true,
		NotificationSound:         true,
		UseRFIDConfirmation:       false,
		ConfirmationWindowMinutes: 30,
	}
}
