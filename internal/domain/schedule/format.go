package schedule

import (
	"strings"
	"time"
)

// FormatTime presenta una hora en reloj de 12h con AM/PM ("9:00 AM").
// Formato único, sin i18n. La hora 0 es "12:00 AM" y la 12 "12:00 PM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatTimeList junta varias horas en una sola línea para UI ("8:00 AM, 2:00 PM").
func FormatTimeList(times []time.Time) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, FormatTime(t))
	}
	return strings.Join(parts, ", ")
}
