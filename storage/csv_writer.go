package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"suumo-scraper/models"
)

// CSVColumns is the fixed header order shared by the writer and the reader.
var CSVColumns = []string{
	"building_title",
	"address",
	"access",
	"building_age",
	"rent_numeric",
	"layout",
	"area_numeric",
	"search_station",
	"target_stations",
	"station_info",
	"detail_url",
	"scraped_at",
	"rent_per_sqm",
	"age_category",
	"floor",
	"admin_fee_numeric",
	"deposit_key_money",
}

// CSVWriter writes validated listings to a single CSV file. Rows go to a
// temp file in the same directory which replaces the target on success, so
// readers never observe a half-written dataset.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (c *CSVWriter) Write(listings []*models.Listing) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}

	tmp := c.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVColumns); err != nil {
		file.Close()
		os.Remove(tmp)
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}
	for _, listing := range listings {
		if err := writer.Write(listingToRow(listing)); err != nil {
			file.Close()
			os.Remove(tmp)
			return &WriteError{Format: "csv", Path: c.path, Err: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		os.Remove(tmp)
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return &WriteError{Format: "csv", Path: c.path, Err: err}
	}
	return nil
}

func listingToRow(l *models.Listing) []string {
	return []string{
		l.BuildingTitle,
		l.Address,
		l.Access,
		formatInt(l.BuildingAge),
		formatFloat(l.RentNumeric),
		l.Layout,
		formatFloat(l.AreaNumeric),
		l.SearchStation,
		strings.Join(l.TargetStations, "; "),
		strings.Join(l.StationInfo, "; "),
		l.DetailURL,
		l.ScrapedAt.Format(time.RFC3339Nano),
		formatFloat(l.RentPerSqm),
		l.AgeCategory,
		l.Floor,
		formatFloat(l.AdminFeeNumeric),
		l.DepositKeyMoney,
	}
}

func rowToListing(row []string) (*models.Listing, error) {
	if len(row) != len(CSVColumns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(CSVColumns), len(row))
	}

	age, err := parseInt(row[3])
	if err != nil {
		return nil, fmt.Errorf("building_age: %w", err)
	}
	rent, err := parseFloat(row[4])
	if err != nil {
		return nil, fmt.Errorf("rent_numeric: %w", err)
	}
	area, err := parseFloat(row[6])
	if err != nil {
		return nil, fmt.Errorf("area_numeric: %w", err)
	}
	scrapedAt, err := time.Parse(time.RFC3339Nano, row[11])
	if err != nil {
		return nil, fmt.Errorf("scraped_at: %w", err)
	}
	adminFee, err := parseFloat(row[15])
	if err != nil {
		return nil, fmt.Errorf("admin_fee_numeric: %w", err)
	}

	listing := &models.Listing{
		BuildingTitle:   row[0],
		Address:         row[1],
		Access:          row[2],
		BuildingAge:     age,
		RentNumeric:     rent,
		Layout:          row[5],
		AreaNumeric:     area,
		SearchStation:   row[7],
		TargetStations:  splitList(row[8]),
		DetailURL:       row[10],
		ScrapedAt:       scrapedAt,
		Floor:           row[14],
		AdminFeeNumeric: adminFee,
		DepositKeyMoney: row[16],
	}
	// Derived columns are recomputed rather than trusted, so a dataset edited
	// by hand stays internally consistent.
	listing.Derive()
	return listing, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "; ")
}
