package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"basket-tracker/models"
)

// schema is the fixed price_data layout. There is intentionally no UNIQUE
// constraint on (date, item_name): duplicate same-day rows are legal and are
// averaged at read time by the aggregator.
const schema = `
CREATE TABLE IF NOT EXISTS price_data (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    date      TEXT NOT NULL,
    item_name TEXT NOT NULL,
    price     REAL,
    website   TEXT
);
`

// PriceStore persists price observations in an embedded SQLite database.
// Inserts are append-only, one transaction each, so concurrent scrape
// workers can share a single store.
type PriceStore struct {
	db   *sql.DB
	path string
}

// OpenPriceStore opens (creating on first use) the SQLite database at path.
// The parent directory and the price_data table are created lazily here;
// there is no separate migration step.
func OpenPriceStore(path string) (*PriceStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &PriceStore{db: db, path: path}, nil
}

// Insert appends one observation. The date is stored as an ISO YYYY-MM-DD
// string at day granularity.
func (s *PriceStore) Insert(obs models.PriceObservation) error {
	_, err := s.db.Exec(
		`INSERT INTO price_data (date, item_name, price, website) VALUES (?, ?, ?, ?)`,
		models.DateKey(obs.Date), obs.ItemName, obs.Price, obs.Website,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert %q: %w", obs.ItemName, err)
	}
	return nil
}

// FetchAll returns every stored observation as a flat snapshot, in no
// particular order. An empty store yields an empty slice, not an error.
func (s *PriceStore) FetchAll() ([]models.PriceObservation, error) {
	rows, err := s.db.Query(`SELECT id, date, item_name, price, website FROM price_data`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	defer rows.Close()

	var observations []models.PriceObservation
	for rows.Next() {
		var (
			obs     models.PriceObservation
			rawDate string
		)
		if err := rows.Scan(&obs.ID, &rawDate, &obs.ItemName, &obs.Price, &obs.Website); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		obs.Date, err = time.ParseInLocation("2006-01-02", rawDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("sqlite: bad date %q: %w", rawDate, err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	return observations, nil
}

// Reset irreversibly drops all observations and recreates the empty schema.
// Maintenance only; the regular pipeline never calls it.
func (s *PriceStore) Reset() error {
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS price_data`); err != nil {
		return fmt.Errorf("sqlite: drop table: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: recreate table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PriceStore) Close() error {
	return s.db.Close()
}
