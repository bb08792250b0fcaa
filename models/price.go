package models

import "time"

// Product is one entry of the fixed basket: what to scrape and where.
type Product struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Website string `json:"website"`
}

// PriceObservation is one scraped price sample as stored in the price_data
// table. There is deliberately no uniqueness constraint on (Date, ItemName):
// re-scraping the same day produces duplicate rows which the aggregator
// averages at read time.
type PriceObservation struct {
	ID       int64
	Date     time.Time
	ItemName string
	Price    float64
	Website  string
}

// DailyBasketMetric is the derived per-day view of the basket: the summed
// mean price of every observed item, plus the percent change against the
// previous date present in the series. InflationRate is nil for the first
// date, where no previous value exists.
type DailyBasketMetric struct {
	Date          time.Time
	TotalCost     float64
	InflationRate *float64
}

// PredictionRecord is one forecast point written to the predictions CSV.
type PredictionRecord struct {
	Date          time.Time
	PredictedCost float64
}

// DateKey is the canonical day-granularity form used as grouping key and as
// the stored TEXT representation.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
