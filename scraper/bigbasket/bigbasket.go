// Package bigbasket scrapes the configured basket's product pages. Prices
// are read from the rendered page title, which carries a "Rs <amount>"
// token once the page's scripts have run.
package bigbasket

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"basket-tracker/config"
	"basket-tracker/models"
	"basket-tracker/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// priceRegexp matches the currency-prefixed amount in a product page title,
// e.g. "Buy Amul Taaza Toned Milk 1 L Online at Rs 58 - bigbasket".
var priceRegexp = regexp.MustCompile(`Rs\s*([\d.]+)`)

// PriceSink receives exactly one observation per successful extraction.
type PriceSink interface {
	Insert(obs models.PriceObservation) error
}

// Result is the per-item outcome of one scrape run. A failed item carries
// its reason in Err and produces no observation.
type Result struct {
	Product models.Product
	Price   float64
	Err     error
}

// Scraper fetches one price per configured product, each independently:
// a timed-out or unparsable page is logged and skipped, never aborting the
// rest of the batch.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.URLSet
	retry   *utils.RetryConfig

	// overridable in tests
	fetch func(ctx context.Context, url string) (float64, error)
	now   func() time.Time
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	s := &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visited: utils.NewURLSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
	s.fetch = s.fetchPrice
	s.now = time.Now
	return s
}

// Run scrapes every configured product for today's date, inserting one
// observation into sink per successful extraction. Per-item fetch failures
// are reported in the results; a sink write failure is fatal and returned
// as the run error.
func (s *Scraper) Run(sink PriceSink) ([]Result, error) {
	// The run is stamped with the operator's local calendar date, same as
	// the forecaster's notion of "today", normalized to UTC midnight.
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	s.logger.Info("[bigbasket] Starting scrape for %s — %d products, concurrency %d",
		models.DateKey(today), len(s.cfg.Products), s.cfg.MaxConcurrency)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	if chromeBin != "" {
		s.logger.Info("[bigbasket] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	allocCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()

	results := make([]Result, len(s.cfg.Products))

	var mu sync.Mutex
	var storeErr error

	for i, product := range s.cfg.Products {
		i, product := i, product
		results[i] = Result{Product: product}

		if !s.visited.Add(product.URL) {
			results[i].Err = fmt.Errorf("duplicate source URL, skipped")
			s.logger.Warn("[bigbasket] %s: duplicate URL %s — skipping", product.Name, product.URL)
			continue
		}

		s.pool.Submit(func() {
			price, err := s.fetch(allocCtx, product.URL)
			if err != nil {
				results[i].Err = err
				s.logger.Warn("[bigbasket] %s: %v", product.Name, err)
				return
			}

			results[i].Price = price
			s.logger.Info("[bigbasket] %s: found price %.2f", product.Name, price)

			insertErr := sink.Insert(models.PriceObservation{
				Date:     today,
				ItemName: product.Name,
				Price:    price,
				Website:  product.Website,
			})
			if insertErr != nil {
				mu.Lock()
				if storeErr == nil {
					storeErr = fmt.Errorf("store %s: %w", product.Name, insertErr)
				}
				mu.Unlock()
			}
		})
	}
	s.pool.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	s.logger.Info("[bigbasket] Scrape complete — %d/%d products succeeded", succeeded, len(results))

	return results, storeErr
}

// fetchPrice loads the product page with a bounded timeout and extracts the
// price from its title.
func (s *Scraper) fetchPrice(allocCtx context.Context, url string) (float64, error) {
	var title string

	err := s.retry.Do(allocCtx, "fetch "+url, func() error {
		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, time.Duration(s.cfg.FetchTimeoutSec)*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.Title(&title),
		)
	})
	if err != nil {
		return 0, fmt.Errorf("navigate: %w", err)
	}

	return ParsePrice(title)
}

// ParsePrice extracts a positive price from a rendered page title.
func ParsePrice(title string) (float64, error) {
	match := priceRegexp.FindStringSubmatch(title)
	if len(match) < 2 {
		return 0, fmt.Errorf("price not found in title %q", strings.TrimSpace(title))
	}

	price, err := strconv.ParseFloat(strings.TrimSuffix(match[1], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q: %w", match[1], err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %v in title %q", price, strings.TrimSpace(title))
	}
	return price, nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured override.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
