package models

import "fmt"

// FeatureRow holds the calendar and trend features derived from a single
// date. It is a pure function of the date: the same date must always yield
// the same row, whether built during training or prediction.
type FeatureRow struct {
	DayOfWeek   int  // Monday=0 .. Sunday=6
	DayOfYear   int  // 1..366
	Month       int  // 1..12
	IsWeekend   bool // DayOfWeek in {5, 6}
	DateOrdinal int  // proleptic Gregorian day count, 0001-01-01 = 1
}

// Vector flattens the row into the order given by names. An unknown name
// means the caller's schema has drifted from this struct and is an error,
// never silently coerced.
func (f FeatureRow) Vector(names []string) ([]float64, error) {
	vec := make([]float64, 0, len(names))
	for _, name := range names {
		switch name {
		case "day_of_week":
			vec = append(vec, float64(f.DayOfWeek))
		case "day_of_year":
			vec = append(vec, float64(f.DayOfYear))
		case "month":
			vec = append(vec, float64(f.Month))
		case "is_weekend":
			if f.IsWeekend {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		case "date_ordinal":
			vec = append(vec, float64(f.DateOrdinal))
		default:
			return nil, fmt.Errorf("unknown feature %q", name)
		}
	}
	return vec, nil
}
