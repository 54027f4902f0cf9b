package redditapi

import (
	"testing"
	"time"
)

func TestParseTimestamp_Epoch(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{"float64 epoch", float64(1420070400), "2015-01-01", true},
		{"int epoch", 1420070400, "2015-01-01", true},
		{"int64 epoch", int64(1420070400), "2015-01-01", true},
		{"epoch cero", float64(0), "1970-01-01", true},
		{"epoch fuera de rango", float64(999999999999999), "", false},
		{"epoch negativo fuera de rango", float64(-999999999999999), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%v) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if !ok {
				return
			}
			// Epoch punteros se convierten en la zona local, así que
			// comparamos contra la conversión local del mismo epoch
			want := DateOnly(time.Unix(int64(epochOf(tt.value)), 0))
			if !got.Equal(want) {
				t.Errorf("ParseTimestamp(%v) = %v, want %v", tt.value, got, want)
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
				t.Errorf("expected date-only result, got %v", got)
			}
		})
	}
}

func epochOf(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func TestParseTimestamp_ISO(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"fecha con hora y Z", "2015-06-15T12:30:45Z", "2015-06-15", true},
		{"fecha con hora sin Z", "2015-06-15T12:30:45", "2015-06-15", true},
		{"fecha con espacio", "2015-06-15 12:30:45", "2015-06-15", true},
		{"fecha sola", "2015-06-15", "2015-06-15", true},
		{"fecha con fracción", "2015-06-15T12:30:45.123456", "2015-06-15", true},
		{"string vacío", "", "", false},
		{"solo Z", "Z", "", false},
		{"basura", "not-a-date", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			if ok != tt.ok {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseTimestamp(%q) = %s, want %s", tt.value, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseTimestamp_UnsupportedTypes(t *testing.T) {
	for _, value := range []any{nil, true, []int{1}, map[string]int{"a": 1}} {
		if _, ok := ParseTimestamp(value); ok {
			t.Errorf("ParseTimestamp(%v) should not parse", value)
		}
	}
}

func TestParseInstant_KeepsTimeOfDay(t *testing.T) {
	// 1434371445 = 2015-06-15 12:30:45 UTC
	got, ok := ParseInstant(float64(1434371445))
	if !ok {
		t.Fatal("expected epoch to parse")
	}
	if got.Hour() != 12 || got.Minute() != 30 {
		t.Errorf("expected 12:30 UTC, got %v", got)
	}

	got, ok = ParseInstant("2015-06-15T23:59:59Z")
	if !ok {
		t.Fatal("expected ISO string to parse")
	}
	if got.Hour() != 23 {
		t.Errorf("expected hour 23, got %d", got.Hour())
	}
}

func TestEpochToUTCDate(t *testing.T) {
	// Anclado en UTC: el resultado no depende de la zona local
	got, ok := EpochToUTCDate(1420070400)
	if !ok {
		t.Fatal("expected epoch to parse")
	}
	if got.Format("2006-01-02") != "2015-01-01" {
		t.Errorf("EpochToUTCDate(1420070400) = %s, want 2015-01-01", got.Format("2006-01-02"))
	}

	if _, ok := EpochToUTCDate(999999999999999); ok {
		t.Error("expected out-of-range epoch to fail")
	}

	t.Log("✅ Epoch UTC normalizado correctamente")
}
