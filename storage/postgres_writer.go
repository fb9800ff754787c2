package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"suumo-scraper/models"
)

// PostgresWriter persists validated listings to PostgreSQL. Runs accumulate:
// a listing already stored under the same detail URL is skipped, so repeated
// scrapes build up history instead of overwriting it.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                SERIAL PRIMARY KEY,
			building_title    TEXT          NOT NULL,
			address           TEXT          NOT NULL DEFAULT '',
			access            TEXT          NOT NULL DEFAULT '',
			building_age      INTEGER,
			rent_numeric      NUMERIC(12,2),
			admin_fee_numeric NUMERIC(12,2),
			deposit_key_money TEXT          NOT NULL DEFAULT '',
			floor             TEXT          NOT NULL DEFAULT '',
			layout            TEXT          NOT NULL DEFAULT '',
			area_numeric      NUMERIC(8,2),
			search_station    TEXT          NOT NULL DEFAULT '',
			target_stations   TEXT          NOT NULL DEFAULT '',
			detail_url        TEXT          UNIQUE NOT NULL,
			scraped_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_rent    ON listings(rent_numeric);
		CREATE INDEX IF NOT EXISTS idx_listings_area    ON listings(area_numeric);
		CREATE INDEX IF NOT EXISTS idx_listings_station ON listings(search_station);
		CREATE INDEX IF NOT EXISTS idx_listings_age     ON listings(building_age);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts listings, skipping detail URLs already stored.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return &WriteError{Format: "postgres", Path: "listings", Err: err}
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	const cols = 14
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.BuildingTitle, l.Address, l.Access, nullInt(l.BuildingAge),
			nullFloat(l.RentNumeric), nullFloat(l.AdminFeeNumeric), l.DepositKeyMoney,
			l.Floor, l.Layout, nullFloat(l.AreaNumeric), l.SearchStation,
			strings.Join(l.TargetStations, "; "), l.DetailURL, l.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			building_title, address, access, building_age,
			rent_numeric, admin_fee_numeric, deposit_key_money,
			floor, layout, area_numeric, search_station,
			target_stations, detail_url, scraped_at
		)
		VALUES %s
		ON CONFLICT (detail_url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings in insertion order. Derived fields
// are recomputed on the way out, matching the file readers.
func (pw *PostgresWriter) FetchAll() ([]*models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT building_title, address, access, building_age,
		       rent_numeric, admin_fee_numeric, deposit_key_money,
		       floor, layout, area_numeric, search_station,
		       target_stations, detail_url, scraped_at
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var age sql.NullInt64
		var rent, adminFee, area sql.NullFloat64
		var targets string
		if err := rows.Scan(
			&l.BuildingTitle, &l.Address, &l.Access, &age,
			&rent, &adminFee, &l.DepositKeyMoney,
			&l.Floor, &l.Layout, &area, &l.SearchStation,
			&targets, &l.DetailURL, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if age.Valid {
			v := int(age.Int64)
			l.BuildingAge = &v
		}
		l.RentNumeric = floatPtr(rent)
		l.AdminFeeNumeric = floatPtr(adminFee)
		l.AreaNumeric = floatPtr(area)
		l.TargetStations = splitList(targets)
		l.Derive()
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
