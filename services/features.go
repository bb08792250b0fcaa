package services

import (
	"time"

	"basket-tracker/models"
)

// FeatureNames is the single declared model input schema, in column order.
// Training bakes it into the persisted model; prediction verifies against it
// before applying the model. Both sides import this one definition, so any
// drift shows up as a hard schema mismatch rather than silently shifted
// columns.
var FeatureNames = []string{"day_of_week", "day_of_year", "month", "is_weekend", "date_ordinal"}

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01
// (0001-01-01 is ordinal 1). Counting days from the Unix epoch avoids
// overflowing time.Duration on a two-millennia subtraction.
const unixEpochOrdinal = 719163

// Features derives the calendar and trend features for a date. It is a pure
// function of the date alone and is shared verbatim by training and
// prediction.
func Features(date time.Time) models.FeatureRow {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	dayOfWeek := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6

	return models.FeatureRow{
		DayOfWeek:   dayOfWeek,
		DayOfYear:   d.YearDay(),
		Month:       int(d.Month()),
		IsWeekend:   dayOfWeek == 5 || dayOfWeek == 6,
		DateOrdinal: int(d.Unix()/86400) + unixEpochOrdinal,
	}
}
