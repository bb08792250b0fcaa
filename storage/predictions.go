package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"basket-tracker/models"
)

// WritePredictions replaces the predictions artifact with the given batch.
// The file is written to a temp sibling and renamed into place, so readers
// never observe a half-written artifact.
func WritePredictions(path string, records []models.PredictionRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("predictions: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".predictions-*.csv")
	if err != nil {
		return fmt.Errorf("predictions: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"date", "predicted_cost"}); err != nil {
		tmp.Close()
		return fmt.Errorf("predictions: write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			models.DateKey(r.Date),
			strconv.FormatFloat(r.PredictedCost, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("predictions: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("predictions: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("predictions: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("predictions: replace %q: %w", path, err)
	}
	return nil
}

// ReadPredictions loads the predictions artifact. Consumers (the dashboard)
// treat a missing file as "no forecast yet", so that case is surfaced as a
// plain os.IsNotExist error rather than wrapped.
func ReadPredictions(path string) ([]models.PredictionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("predictions: read %q: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, nil
	}

	records := make([]models.PredictionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		if len(row) != 2 {
			return nil, fmt.Errorf("predictions: malformed row %v", row)
		}
		date, err := time.ParseInLocation("2006-01-02", row[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("predictions: bad date %q: %w", row[0], err)
		}
		cost, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("predictions: bad cost %q: %w", row[1], err)
		}
		records = append(records, models.PredictionRecord{Date: date, PredictedCost: cost})
	}
	return records, nil
}
