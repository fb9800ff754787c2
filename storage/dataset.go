package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"suumo-scraper/models"
)

// DefaultBasename builds the dataset filename stem for a station set, e.g.
// suumo_渋谷-新宿_20250117_143000. At most three station names appear in the
// stem; larger sets get an -etcN marker carrying the full count.
func DefaultBasename(stations []string, t time.Time) string {
	names := stations
	suffix := ""
	if len(names) > 3 {
		suffix = fmt.Sprintf("-etc%d", len(names))
		names = names[:3]
	}
	return fmt.Sprintf("suumo_%s%s_%s", strings.Join(names, "-"), suffix, t.Format("20060102_150405"))
}

// FindDatasets returns the dataset files under dir matching pattern
// (e.g. "suumo_*.csv"). With latestOnly it returns just the most recently
// modified match.
func FindDatasets(dir, pattern string, latestOnly bool) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files found matching %s in %s", pattern, dir)
	}
	if !latestOnly {
		return matches, nil
	}

	latest := matches[0]
	var latestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestMod) {
			latestMod = info.ModTime()
			latest = path
		}
	}
	return []string{latest}, nil
}

// ReadCSVFile loads one dataset file written by CSVWriter. Derived columns
// are recomputed from the primaries on the way in.
func ReadCSVFile(path string) ([]*models.Listing, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) != len(CSVColumns) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(CSVColumns), len(header))
	}

	var listings []*models.Listing
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			break
		}
		listing, err := rowToListing(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// ReadJSONFile loads one dataset file written by JSONWriter.
func ReadJSONFile(path string) ([]*models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var listings []*models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, listing := range listings {
		listing.Derive()
	}
	return listings, nil
}
