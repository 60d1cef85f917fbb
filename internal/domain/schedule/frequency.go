package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// Frequency es una etiqueta canónica de recurrencia.
// El valor almacenado coincide con la etiqueta que ve el usuario.
type Frequency string

const (
	FreqOnceDaily       Frequency = "Once daily"
	FreqTwiceDaily      Frequency = "Twice daily"
	FreqThreeTimesDaily Frequency = "Three times daily"
	FreqFourTimesDaily  Frequency = "Four times daily"
	FreqEveryOtherDay   Frequency = "Every other day"
	FreqOnceWeekly      Frequency = "Once weekly"
	FreqTwiceWeekly     Frequency = "Twice weekly"
	FreqAsNeeded        Frequency = "As needed (PRN)"
)

// Canonical lista las frecuencias soportadas, en el orden que se muestran en UI.
var Canonical = []Frequency{
	FreqOnceDaily,
	FreqTwiceDaily,
	FreqThreeTimesDaily,
	FreqFourTimesDaily,
	FreqEveryOtherDay,
	FreqOnceWeekly,
	FreqTwiceWeekly,
	FreqAsNeeded,
}

// MaxRemindersPerDay es el tope de recordatorios por día que acepta la UI de edición.
// El engine tolera cualquier largo; el tope se aplica en el servicio de medications.
const MaxRemindersPerDay = 6

// keywordRules se evalúa en orden: la primera regla cuyos términos aparezcan
// todos en el texto gana. Compartida por Classify y TimesPerDay para que los
// dos no diverjan sobre el mismo input.
var keywordRules = []struct {
	terms []string
	freq  Frequency
}{
	{[]string{"once", "daily"}, FreqOnceDaily},
	{[]string{"twice", "daily"}, FreqTwiceDaily},
	{[]string{"three", "daily"}, FreqThreeTimesDaily},
	{[]string{"four", "daily"}, FreqFourTimesDaily},
	{[]string{"every other"}, FreqEveryOtherDay},
	{[]string{"once", "weekly"}, FreqOnceWeekly},
	{[]string{"twice", "weekly"}, FreqTwiceWeekly},
	{[]string{"prn"}, FreqAsNeeded},
	{[]string{"as needed"}, FreqAsNeeded},
}

// Classify normaliza texto libre (entrada manual u OCR) a una frecuencia canónica.
// Nunca falla: input irreconocible cae en FreqOnceDaily para no bloquear el flujo.
func Classify(raw string) Frequency {
	f, ok := classify(raw)
	if !ok {
		return FreqOnceDaily
	}
	return f
}

// classify devuelve ok=false cuando el texto no matchea ninguna regla.
// OccursOnDate usa esta variante: un texto no reconocido no debe generar
// dosis fantasma en el calendario, aunque Classify lo acepte como "Once daily".
func classify(raw string) (Frequency, bool) {
	f := strings.ToLower(strings.TrimSpace(raw))
	if f == "" {
		return "", false
	}

	// 1) Match exacto contra el set canónico (case-insensitive)
	for _, c := range Canonical {
		if f == strings.ToLower(string(c)) {
			return c, true
		}
	}

	// 2) Heurística por keywords
	for _, rule := range keywordRules {
		all := true
		for _, term := range rule.terms {
			if !strings.Contains(f, term) {
				all = false
				break
			}
		}
		if all {
			return rule.freq, true
		}
	}

	return "", false
}

// TimesPerDay devuelve cuántas tomas diarias sugiere la frecuencia canónica.
// Se usa para dimensionar la lista de recordatorios; PRN también devuelve 1
// (si el usuario igual quiere un recordatorio, le sugerimos uno solo).
func (f Frequency) TimesPerDay() int {
	switch f {
	case FreqTwiceDaily:
		return 2
	case FreqThreeTimesDaily:
		return 3
	case FreqFourTimesDaily:
		return 4
	default:
		return 1
	}
}

var nTimesRe = regexp.MustCompile(`(\d+)\s*times?`)

// TimesPerDay parsea texto libre a cantidad de tomas por día, siempre en [1,6].
// Clasificador más laxo que Classify: acepta abreviaturas médicas (bid/tid/qid),
// notación "2x" y patrones "N times". Los términos más específicos se evalúan
// antes que el catch-all "daily" para que "twice daily" no caiga en 1.
func TimesPerDay(raw string) int {
	f := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(f, "twice"), strings.Contains(f, "2x"), strings.Contains(f, "bid"):
		return 2
	case strings.Contains(f, "three"), strings.Contains(f, "3x"), strings.Contains(f, "tid"):
		return 3
	case strings.Contains(f, "four"), strings.Contains(f, "4x"), strings.Contains(f, "qid"):
		return 4
	case strings.Contains(f, "once"), strings.Contains(f, "1x"):
		return 1
	}

	if m := nTimesRe.FindStringSubmatch(f); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 1
		}
		if n > MaxRemindersPerDay {
			return MaxRemindersPerDay
		}
		return n
	}

	if strings.Contains(f, "daily") {
		return 1
	}

	return 1
}
