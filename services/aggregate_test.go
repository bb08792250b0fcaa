package services

import (
	"math"
	"testing"
	"time"

	"basket-tracker/models"
	"basket-tracker/utils"
)

func day(date string) time.Time {
	d, _ := time.ParseInLocation("2006-01-02", date, time.UTC)
	return d
}

func observation(date, item string, price float64) models.PriceObservation {
	return models.PriceObservation{Date: day(date), ItemName: item, Price: price, Website: "BigBasket"}
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())
	if got := agg.Aggregate(nil); len(got) != 0 {
		t.Errorf("empty input should yield empty output, got %d rows", len(got))
	}
}

func TestAggregateTotalAndInflation(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	metrics := agg.Aggregate([]models.PriceObservation{
		observation("2024-01-01", "Milk", 50),
		observation("2024-01-02", "Milk", 55),
	})

	if len(metrics) != 2 {
		t.Fatalf("expected 2 daily metrics, got %d", len(metrics))
	}
	if metrics[0].TotalCost != 50 || metrics[1].TotalCost != 55 {
		t.Errorf("total costs: got %v, %v; want 50, 55", metrics[0].TotalCost, metrics[1].TotalCost)
	}
	if metrics[0].InflationRate != nil {
		t.Errorf("first date inflation must be N/A, got %v", *metrics[0].InflationRate)
	}
	if metrics[1].InflationRate == nil {
		t.Fatal("second date inflation must be present")
	}
	if got := *metrics[1].InflationRate; math.Abs(got-10.0) > 1e-9 {
		t.Errorf("inflation: got %v, want 10.0", got)
	}
}

func TestAggregateNormalizesDates(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	// Observations with stray time-of-day or zone components collapse to
	// the same UTC-midnight calendar date.
	east := time.FixedZone("UTC+13", 13*3600)
	metrics := agg.Aggregate([]models.PriceObservation{
		{Date: time.Date(2024, 1, 1, 9, 30, 0, 0, east), ItemName: "Milk", Price: 50},
		{Date: day("2024-01-01"), ItemName: "Bread", Price: 30},
	})

	if len(metrics) != 1 {
		t.Fatalf("expected 1 daily metric, got %d", len(metrics))
	}
	if !metrics[0].Date.Equal(day("2024-01-01")) {
		t.Errorf("date: got %v, want 2024-01-01 UTC midnight", metrics[0].Date)
	}
	if metrics[0].TotalCost != 80 {
		t.Errorf("total: got %v, want 80", metrics[0].TotalCost)
	}
}

func TestAggregateAveragesDuplicates(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	// Two scrapes of the same item on the same day: mean, not sum.
	metrics := agg.Aggregate([]models.PriceObservation{
		observation("2024-01-01", "Eggs", 10),
		observation("2024-01-01", "Eggs", 20),
		observation("2024-01-01", "Bread", 5),
	})

	if len(metrics) != 1 {
		t.Fatalf("expected 1 daily metric, got %d", len(metrics))
	}
	if metrics[0].TotalCost != 20 { // mean(10,20) + 5
		t.Errorf("total cost: got %v, want 20", metrics[0].TotalCost)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	input := []models.PriceObservation{
		observation("2024-01-03", "Milk", 52),
		observation("2024-01-01", "Milk", 50),
		observation("2024-01-01", "Bread", 38),
		observation("2024-01-02", "Milk", 55),
		observation("2024-01-02", "Bread", 40),
		observation("2024-01-03", "Bread", 39),
	}
	reversed := make([]models.PriceObservation, len(input))
	for i, obs := range input {
		reversed[len(input)-1-i] = obs
	}

	a := agg.Aggregate(input)
	b := agg.Aggregate(reversed)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].TotalCost != b[i].TotalCost {
			t.Errorf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
		aNil, bNil := a[i].InflationRate == nil, b[i].InflationRate == nil
		if aNil != bNil {
			t.Errorf("row %d inflation availability differs", i)
		} else if !aNil && *a[i].InflationRate != *b[i].InflationRate {
			t.Errorf("row %d inflation differs: %v vs %v", i, *a[i].InflationRate, *b[i].InflationRate)
		}
	}
}

func TestAggregateMissingItemContributesNothing(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	metrics := agg.Aggregate([]models.PriceObservation{
		observation("2024-01-01", "Milk", 50),
		observation("2024-01-01", "Bread", 30),
		observation("2024-01-02", "Milk", 50), // Bread not observed
	})

	if metrics[0].TotalCost != 80 || metrics[1].TotalCost != 50 {
		t.Errorf("totals: got %v, %v; want 80, 50", metrics[0].TotalCost, metrics[1].TotalCost)
	}
}

func TestAggregateGapsUsePreviousPresentDate(t *testing.T) {
	agg := NewAggregator(utils.NewLogger())

	// 2024-01-05 follows 2024-01-01 in the series; the inflation base is
	// the previous present date, not the previous calendar day.
	metrics := agg.Aggregate([]models.PriceObservation{
		observation("2024-01-01", "Milk", 100),
		observation("2024-01-05", "Milk", 110),
	})

	if metrics[1].InflationRate == nil {
		t.Fatal("expected inflation across the gap")
	}
	if got := *metrics[1].InflationRate; math.Abs(got-10.0) > 1e-9 {
		t.Errorf("inflation across gap: got %v, want 10.0", got)
	}
}
