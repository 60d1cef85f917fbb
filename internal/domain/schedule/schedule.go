package schedule

import (
	"sort"
	"time"
)

// Medication es la vista mínima que el engine necesita de un medicamento:
// frecuencia (texto libre o etiqueta canónica), fecha de inicio de la pauta
// y las horas de recordatorio que guardó el usuario. Identidad, nombre,
// dosis, etc. son opacos para el engine.
type Medication struct {
	Frequency     string
	StartDate     time.Time
	ReminderTimes []time.Time
}

// GenerateReminderSchedule sugiere timesPerDay horas de toma repartidas
// parejo en la ventana despierto del usuario.
//
// La ventana se calcula como (sleep − wake) mod 24h, así una hora de dormir
// pasada la medianoche ("23:30" → "07:00") da una ventana positiva. Si
// wake == sleep la ventana se trata explícitamente como las 24h completas.
// Strings malformados caen en los defaults (07:00 / 22:00).
func GenerateReminderSchedule(wakeTime, sleepTime string, timesPerDay int) []Clock {
	wake := ClockOrDefault(wakeTime, DefaultWake)
	sleep := ClockOrDefault(sleepTime, DefaultSleep)

	if timesPerDay < 1 {
		timesPerDay = 1
	}
	if timesPerDay > MaxRemindersPerDay {
		timesPerDay = MaxRemindersPerDay
	}

	if timesPerDay == 1 {
		return []Clock{wake}
	}

	awake := sleep.Minutes() - wake.Minutes()
	if awake <= 0 {
		// sleep cruza medianoche, o wake == sleep (ciclo de 24h)
		awake += 24 * 60
	}

	step := awake / timesPerDay

	out := make([]Clock, 0, timesPerDay)
	for i := 0; i < timesPerDay; i++ {
		out = append(out, wake.Add(i*step))
	}
	return out
}

// OccursOnDate decide si date es un día de toma para el medicamento.
//
// Reglas, todas a granularidad de día:
//   - antes de StartDate nunca hay toma
//   - PRN queda fuera del calendario recurrente
//   - diarias: todos los días; every other day: offset par desde StartDate;
//     semanales: mismo día de semana que StartDate (twice weekly agrega
//     el día a +3 de distancia)
//
// Texto de frecuencia no reconocido devuelve false: Classify es laxo para no
// bloquear el alta, pero el calendario solo muestra dosis de categorías
// modeladas explícitamente.
func OccursOnDate(m Medication, date time.Time) bool {
	f, ok := classify(m.Frequency)
	if !ok {
		return false
	}
	if f == FreqAsNeeded {
		return false
	}

	start := dateOnly(m.StartDate)
	day := dateOnly(date)
	if day.Before(start) {
		return false
	}

	switch f {
	case FreqOnceDaily, FreqTwiceDaily, FreqThreeTimesDaily, FreqFourTimesDaily:
		return true
	case FreqEveryOtherDay:
		return daysBetween(start, day)%2 == 0
	case FreqOnceWeekly:
		return day.Weekday() == start.Weekday()
	case FreqTwiceWeekly:
		w := start.Weekday()
		return day.Weekday() == w || day.Weekday() == (w+3)%7
	default:
		return false
	}
}

// TimesForDay proyecta las horas de recordatorio guardadas sobre la fecha de
// day, ordenadas ascendente. Sin recordatorios configurados no hay nada que
// proyectar: un medicamento sin horas no aparece en ningún día del calendario,
// aunque OccursOnDate diga que sí.
func TimesForDay(m Medication, day time.Time) []time.Time {
	if len(m.ReminderTimes) == 0 {
		return nil
	}

	out := make([]time.Time, 0, len(m.ReminderTimes))
	for _, rt := range m.ReminderTimes {
		out = append(out, ClockOf(rt).On(day))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// nextDoseHorizonDays acota el barrido hacia adelante de NextDoseTime.
// 28 días cubre con margen la recurrencia más espaciada (once weekly).
const nextDoseHorizonDays = 28

// NextDoseTime resuelve la próxima toma estrictamente posterior a now.
//
// Respeta la regla de recurrencia: barre día por día desde now (o desde
// StartDate si la pauta todavía no empezó), saltea días inactivos y toma la
// primera hora futura del primer día activo. Las horas se ordenan siempre;
// no se depende del orden en que el caller guardó ReminderTimes.
//
// Sin recordatorios configurados, o sin día activo dentro del horizonte
// (PRN, frecuencia irreconocible), devuelve ok=false.
func NextDoseTime(m Medication, now time.Time) (time.Time, bool) {
	if len(m.ReminderTimes) == 0 {
		return time.Time{}, false
	}

	from := now
	if start := dateOnly(m.StartDate); start.After(dateOnly(now)) {
		from = m.StartDate
	}

	for d := 0; d < nextDoseHorizonDays; d++ {
		day := from.AddDate(0, 0, d)
		if !OccursOnDate(m, day) {
			continue
		}
		for _, t := range TimesForDay(m, day) {
			if t.After(now) {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// dateOnly trunca a medianoche UTC para comparar y restar a granularidad de
// día sin sorpresas de DST.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
