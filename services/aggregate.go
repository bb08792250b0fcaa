package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"basket-tracker/models"
	"basket-tracker/utils"
)

// Aggregator derives the daily basket view from raw price observations.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate pivots observations into one metric per day, ascending by date.
// Duplicate (date, item) prices are reduced to their arithmetic mean; an
// item missing on a date simply contributes nothing to that date's total.
// The inflation rate is the percent change against the previous date present
// in the series (not necessarily the previous calendar day) and is nil for
// the first date. Empty input yields empty output.
func (a *Aggregator) Aggregate(observations []models.PriceObservation) []models.DailyBasketMetric {
	if len(observations) == 0 {
		return nil
	}

	// date key -> item -> prices
	grouped := make(map[string]map[string][]float64)
	days := make(map[string]time.Time)
	for _, obs := range observations {
		key := models.DateKey(obs.Date)
		if grouped[key] == nil {
			grouped[key] = make(map[string][]float64)
			days[key] = time.Date(obs.Date.Year(), obs.Date.Month(), obs.Date.Day(), 0, 0, 0, 0, time.UTC)
		}
		grouped[key][obs.ItemName] = append(grouped[key][obs.ItemName], obs.Price)
	}

	dates := make([]string, 0, len(grouped))
	for key := range grouped {
		dates = append(dates, key)
	}
	sort.Strings(dates)

	metrics := make([]models.DailyBasketMetric, 0, len(dates))
	for i, key := range dates {
		items := grouped[key]

		// Sum item means in a fixed order so the result is identical
		// no matter how the input was ordered.
		names := make([]string, 0, len(items))
		for name := range items {
			names = append(names, name)
		}
		sort.Strings(names)

		var total float64
		for _, name := range names {
			total += stat.Mean(items[name], nil)
		}

		metric := models.DailyBasketMetric{Date: days[key], TotalCost: total}

		if i > 0 {
			prev := metrics[i-1].TotalCost
			rate := (total - prev) / prev * 100
			metric.InflationRate = &rate
		}

		metrics = append(metrics, metric)
	}

	a.logger.Debug("[aggregate] %d observations → %d daily metrics", len(observations), len(metrics))
	return metrics
}

// Print renders the daily metrics as a terminal report.
func (a *Aggregator) Print(metrics []models.DailyBasketMetric) {
	sep := strings.Repeat("═", 44)
	thin := strings.Repeat("─", 44)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🛒 DAILY BASKET METRICS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	if len(metrics) == 0 {
		fmt.Printf("  No price data yet — run a scrape first\n\n")
		return
	}

	fmt.Printf("  %-12s %12s %12s\n", "Date", "Basket ₹", "Inflation %")
	fmt.Printf("  %s\n", thin)
	for _, m := range metrics {
		inflation := "N/A"
		if m.InflationRate != nil {
			inflation = fmt.Sprintf("%+.2f", *m.InflationRate)
		}
		fmt.Printf("  %-12s %12.2f %12s\n", models.DateKey(m.Date), m.TotalCost, inflation)
	}

	latest := metrics[len(metrics)-1]
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Latest basket cost : \033[1;32m₹%.2f\033[0m\n", latest.TotalCost)
	if latest.InflationRate != nil {
		fmt.Printf("  Daily inflation    : \033[1m%+.2f%%\033[0m\n", *latest.InflationRate)
	}
	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}
