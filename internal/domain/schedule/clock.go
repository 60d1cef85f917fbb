package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("invalid clock string")

// Clock es una hora del día (hora/minuto) sin fecha asociada.
type Clock struct {
	Hour   int
	Minute int
}

// Defaults de la ventana despierto cuando las preferencias faltan o vienen rotas.
var (
	DefaultWake  = Clock{Hour: 7, Minute: 0}
	DefaultSleep = Clock{Hour: 22, Minute: 0}
)

// ParseClock parsea "HH:MM" (24h) a Clock.
// Parser explícito y tipado: strings malformados ("", "7", "ab:cd", "25:00")
// devuelven error en vez de propagar valores inválidos a la aritmética de fechas.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, ErrInvalidClock
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Clock{}, ErrInvalidClock
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Clock{}, ErrInvalidClock
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, ErrInvalidClock
	}

	return Clock{Hour: h, Minute: m}, nil
}

// ClockOrDefault parsea s y cae en def si viene malformado.
func ClockOrDefault(s string, def Clock) Clock {
	c, err := ParseClock(s)
	if err != nil {
		return def
	}
	return c
}

// Minutes devuelve los minutos desde medianoche.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Add suma minutos con wrap sobre medianoche.
func (c Clock) Add(mins int) Clock {
	total := (c.Minutes() + mins) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return Clock{Hour: total / 60, Minute: total % 60}
}

// On proyecta la hora sobre la fecha calendario de day.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// String devuelve "HH:MM" (formato de almacenamiento de preferencias).
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ClockOf extrae la hora del día de un timestamp.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}
