package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"basket-tracker/models"
)

// Config holds all application configuration loaded from environment
// variables. It is built once in main and passed explicitly to every
// component constructor.
type Config struct {
	DBPath          string
	ModelPath       string
	PredictionsPath string

	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	FetchTimeoutSec int
	ChromeBin       string

	ForecastHorizon int

	Products []models.Product
}

// defaultProducts is the fixed BigBasket basket tracked out of the box.
var defaultProducts = []models.Product{
	{Name: "Milk (1L)", URL: "https://www.bigbasket.com/pd/306926/amul-taaza-toned-milk-1-l-pouch/", Website: "BigBasket"},
	{Name: "Eggs (12)", URL: "https://www.bigbasket.com/pd/40033819/fresho-farm-eggs-regular-medium-antibiotic-residue-free-12-pcs/", Website: "BigBasket"},
	{Name: "Bread", URL: "https://www.bigbasket.com/pd/10000570/super-white-bread-400-g/", Website: "BigBasket"},
	{Name: "Rice (1kg)", URL: "https://www.bigbasket.com/pd/10000455/bb-royal-basmati-rice-premium-1-kg/", Website: "BigBasket"},
	{Name: "Cooking Oil (1L)", URL: "https://www.bigbasket.com/pd/10000207/freedom-refined-sunflower-oil-1-l-pouch/", Website: "BigBasket"},
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "./data/prices.db"),
		ModelPath:       getEnv("MODEL_PATH", "./data/model.gob"),
		PredictionsPath: getEnv("PREDICTIONS_PATH", "./data/predictions.csv"),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 2),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 60),
		ChromeBin:       getEnv("CHROME_BIN", ""),

		ForecastHorizon: getEnvInt("FORECAST_HORIZON", 7),

		Products: defaultProducts,
	}

	if file := getEnv("PRODUCTS_FILE", ""); file != "" {
		products, err := loadProducts(file)
		if err != nil {
			log.Printf("[config] Could not load %s (%v), keeping default basket", file, err)
		} else {
			cfg.Products = products
		}
	}

	return cfg
}

// loadProducts reads a JSON array of {name, url, website} objects.
func loadProducts(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products file: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products file: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("products file %q is empty", path)
	}
	return products, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
