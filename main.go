package main

import (
	"errors"
	"fmt"
	"os"

	"basket-tracker/config"
	"basket-tracker/ml"
	"basket-tracker/models"
	"basket-tracker/scraper/bigbasket"
	"basket-tracker/services"
	"basket-tracker/storage"
	"basket-tracker/utils"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := utils.NewLogger()
	cfg := config.Load()

	var err error
	switch os.Args[1] {
	case "scrape":
		err = runScrape(cfg, logger)
	case "metrics":
		err = runMetrics(cfg, logger)
	case "train":
		err = runTrain(cfg, logger)
	case "predict":
		err = runPredict(cfg, logger)
	case "reset":
		err = runReset(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%s failed: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Basket price tracker

Usage: basket-tracker <command>

Commands:
  scrape    fetch today's price for every basket item and store it
  metrics   print daily basket cost and inflation
  train     fit the forecast model on the stored history
  predict   forecast the basket cost for the next 7 days
  reset     drop and recreate the price table (destructive)
`)
}

func runScrape(cfg *config.Config, logger *utils.Logger) error {
	store, err := storage.OpenPriceStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	scraper := bigbasket.New(cfg, logger)
	results, err := scraper.Run(store)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		logger.Warn("No prices were scraped this run")
	}
	return nil
}

func runMetrics(cfg *config.Config, logger *utils.Logger) error {
	store, err := storage.OpenPriceStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics, err := loadMetrics(store, logger)
	if err != nil {
		return err
	}
	services.NewAggregator(logger).Print(metrics)
	return nil
}

func runTrain(cfg *config.Config, logger *utils.Logger) error {
	store, err := storage.OpenPriceStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics, err := loadMetrics(store, logger)
	if err != nil {
		return err
	}

	forecaster := services.NewForecaster(cfg, logger)
	if err := forecaster.Train(metrics); err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			logger.Warn("Not enough data to train (need at least 2 days) — keep scraping")
			return nil
		}
		return err
	}
	return nil
}

func runPredict(cfg *config.Config, logger *utils.Logger) error {
	forecaster := services.NewForecaster(cfg, logger)
	records, err := forecaster.Predict(cfg.ForecastHorizon)
	if err != nil {
		if errors.Is(err, ml.ErrModelNotFound) {
			logger.Warn("No trained model yet — run `basket-tracker train` first")
			return nil
		}
		return err
	}

	fmt.Printf("\n  %-12s %14s\n", "Date", "Predicted ₹")
	for _, r := range records {
		fmt.Printf("  %-12s %14.2f\n", models.DateKey(r.Date), r.PredictedCost)
	}
	fmt.Println()
	return nil
}

func runReset(cfg *config.Config, logger *utils.Logger) error {
	store, err := storage.OpenPriceStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Warn("Dropping all price observations in %s", cfg.DBPath)
	if err := store.Reset(); err != nil {
		return err
	}
	logger.Info("Database reset complete")
	return nil
}

func loadMetrics(store storage.ObservationStore, logger *utils.Logger) ([]models.DailyBasketMetric, error) {
	observations, err := store.FetchAll()
	if err != nil {
		return nil, err
	}
	return services.NewAggregator(logger).Aggregate(observations), nil
}
