package services

import (
	"testing"
	"time"
)

func TestFeaturesKnownDate(t *testing.T) {
	// 2024-01-06 is a Saturday.
	f := Features(day("2024-01-06"))

	if f.DayOfWeek != 5 {
		t.Errorf("day_of_week: got %d, want 5 (Saturday)", f.DayOfWeek)
	}
	if f.DayOfYear != 6 {
		t.Errorf("day_of_year: got %d, want 6", f.DayOfYear)
	}
	if f.Month != 1 {
		t.Errorf("month: got %d, want 1", f.Month)
	}
	if !f.IsWeekend {
		t.Error("Saturday must be weekend")
	}
}

func TestFeaturesWeekdays(t *testing.T) {
	tests := []struct {
		date      string
		dayOfWeek int
		weekend   bool
	}{
		{"2024-01-01", 0, false}, // Monday
		{"2024-01-03", 2, false}, // Wednesday
		{"2024-01-05", 4, false}, // Friday
		{"2024-01-06", 5, true},  // Saturday
		{"2024-01-07", 6, true},  // Sunday
	}
	for _, tt := range tests {
		f := Features(day(tt.date))
		if f.DayOfWeek != tt.dayOfWeek || f.IsWeekend != tt.weekend {
			t.Errorf("%s: got (dow=%d, weekend=%v), want (dow=%d, weekend=%v)",
				tt.date, f.DayOfWeek, f.IsWeekend, tt.dayOfWeek, tt.weekend)
		}
	}
}

func TestFeaturesOrdinal(t *testing.T) {
	// Known proleptic Gregorian ordinals.
	if got := Features(day("1970-01-01")).DateOrdinal; got != 719163 {
		t.Errorf("ordinal(1970-01-01): got %d, want 719163", got)
	}

	// Consecutive days differ by exactly one.
	a := Features(day("2024-02-28")).DateOrdinal
	b := Features(day("2024-02-29")).DateOrdinal
	c := Features(day("2024-03-01")).DateOrdinal
	if b != a+1 || c != b+1 {
		t.Errorf("ordinals not consecutive across leap day: %d, %d, %d", a, b, c)
	}
}

func TestFeaturesPureFunction(t *testing.T) {
	// Same date, different wall-clock components: identical features, as
	// required for train/predict parity.
	d1 := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 17, 23, 59, 58, 0, time.UTC)

	if Features(d1) != Features(d2) {
		t.Errorf("features differ for the same calendar date: %+v vs %+v", Features(d1), Features(d2))
	}
}

func TestFeatureVectorMatchesSchema(t *testing.T) {
	f := Features(day("2024-01-06")) // Saturday
	vec, err := f.Vector(FeatureNames)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if len(vec) != len(FeatureNames) {
		t.Fatalf("vector width: got %d, want %d", len(vec), len(FeatureNames))
	}

	// day_of_week, day_of_year, month, is_weekend, date_ordinal
	if vec[0] != 5 || vec[1] != 6 || vec[2] != 1 || vec[3] != 1 {
		t.Errorf("unexpected vector prefix: %v", vec[:4])
	}
}

func TestFeatureVectorRejectsUnknownName(t *testing.T) {
	f := Features(day("2024-01-06"))
	if _, err := f.Vector([]string{"day_of_week", "phase_of_moon"}); err == nil {
		t.Error("unknown feature name must be an error, not a zero column")
	}
}
