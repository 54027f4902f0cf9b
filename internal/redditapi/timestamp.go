package redditapi

import (
	"strings"
	"time"
)

// Límites de epoch seconds aceptados (años 1 a 9999)
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// Layouts ISO-8601 aceptados, probados en orden
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp normaliza un timestamp heterogéneo (epoch seconds como
// número, o string ISO-8601 con 'Z' final opcional) a fecha calendario.
// Input malformado retorna ok=false, nunca un error.
func ParseTimestamp(value any) (time.Time, bool) {
	switch ts := value.(type) {
	case float64:
		return epochToDate(int64(ts))
	case int:
		return epochToDate(int64(ts))
	case int64:
		return epochToDate(ts)
	case string:
		return parseISODate(ts)
	default:
		return time.Time{}, false
	}
}

func epochToDate(sec int64) (time.Time, bool) {
	if sec < minEpochSeconds || sec > maxEpochSeconds {
		return time.Time{}, false
	}
	return DateOnly(time.Unix(sec, 0)), true
}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// ParseInstant normaliza como ParseTimestamp pero conserva la hora: los
// heatmaps por hora del día necesitan el instante completo, no solo la
// fecha. Numéricos se anclan en UTC.
func ParseInstant(value any) (time.Time, bool) {
	switch ts := value.(type) {
	case float64:
		n := int64(ts)
		if n < minEpochSeconds || n > maxEpochSeconds {
			return time.Time{}, false
		}
		return time.Unix(n, 0).UTC(), true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(ts), "Z")
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// EpochToUTCDate convierte epoch seconds a fecha calendario anclada en UTC.
// Se usa para campos de origen inequívoco como created_utc.
func EpochToUTCDate(sec float64) (time.Time, bool) {
	n := int64(sec)
	if n < minEpochSeconds || n > maxEpochSeconds {
		return time.Time{}, false
	}
	return DateOnly(time.Unix(n, 0).UTC()), true
}

// DateOnly trunca un instante a su porción de fecha calendario
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
