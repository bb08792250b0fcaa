package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"basket-tracker/config"
	"basket-tracker/ml"
	"basket-tracker/models"
	"basket-tracker/storage"
	"basket-tracker/utils"
)

var (
	// ErrInsufficientData means training was attempted with fewer than
	// two distinct historical dates. The run should log and exit cleanly
	// without touching the existing model.
	ErrInsufficientData = errors.New("not enough history to train")

	// ErrSchemaMismatch means the persisted model was trained on a
	// different feature schema than this build declares. That is a
	// versioning bug and must never be silently coerced.
	ErrSchemaMismatch = errors.New("model feature schema mismatch")
)

// Forecaster trains the basket-cost regressor and produces the 7-day
// forecast. It owns the model artifact; nothing else reads or writes it.
type Forecaster struct {
	cfg    *config.Config
	logger *utils.Logger
	now    func() time.Time // overridable in tests
}

// NewForecaster creates a Forecaster with the given config and logger.
func NewForecaster(cfg *config.Config, logger *utils.Logger) *Forecaster {
	return &Forecaster{cfg: cfg, logger: logger, now: time.Now}
}

// Train fits the forest on the aggregated history and atomically persists
// it, overwriting any prior model. History is sorted by date first, so any
// permutation of the same metrics trains the identical model.
func (f *Forecaster) Train(history []models.DailyBasketMetric) error {
	sorted := append([]models.DailyBasketMetric(nil), history...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	distinct := make(map[string]struct{}, len(sorted))
	for _, m := range sorted {
		distinct[models.DateKey(m.Date)] = struct{}{}
	}
	if len(distinct) < 2 {
		return fmt.Errorf("%w: need at least 2 distinct dates, have %d", ErrInsufficientData, len(distinct))
	}

	x := make([][]float64, 0, len(sorted))
	y := make([]float64, 0, len(sorted))
	for _, m := range sorted {
		row, err := Features(m.Date).Vector(FeatureNames)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		x = append(x, row)
		y = append(y, m.TotalCost)
	}

	f.logger.Info("[forecast] Training on %d days of history...", len(distinct))
	forest, err := ml.Train(x, y, FeatureNames, ml.DefaultOptions())
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}

	if score := forest.Score(x, y); !math.IsNaN(score) {
		f.logger.Info("[forecast] Model trained — in-sample R²: %.4f", score)
	}

	if err := forest.Save(f.cfg.ModelPath); err != nil {
		return err
	}
	f.logger.Info("[forecast] Model saved to %s", f.cfg.ModelPath)
	return nil
}

// Predict loads the persisted model and forecasts the next horizon
// consecutive calendar days starting tomorrow, replacing the predictions
// artifact wholesale. Requires a prior training run (ml.ErrModelNotFound
// otherwise).
func (f *Forecaster) Predict(horizon int) ([]models.PredictionRecord, error) {
	forest, err := ml.Load(f.cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if !schemaEqual(forest.Schema, FeatureNames) {
		return nil, fmt.Errorf("%w: model has %v, build declares %v",
			ErrSchemaMismatch, forest.Schema, FeatureNames)
	}

	// "Tomorrow" counts from the operator's local calendar date, the same
	// convention scrape runs use to stamp observations.
	today := f.now()
	records := make([]models.PredictionRecord, 0, horizon)
	for i := 1; i <= horizon; i++ {
		date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)

		row, err := Features(date).Vector(forest.Schema)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		cost, err := forest.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", models.DateKey(date), err)
		}
		records = append(records, models.PredictionRecord{Date: date, PredictedCost: cost})
	}

	if err := storage.WritePredictions(f.cfg.PredictionsPath, records); err != nil {
		return nil, err
	}
	f.logger.Info("[forecast] %d-day forecast written to %s", horizon, f.cfg.PredictionsPath)
	return records, nil
}

func schemaEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
