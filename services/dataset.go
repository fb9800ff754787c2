package services

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"suumo-scraper/models"
	"suumo-scraper/storage"
	"suumo-scraper/utils"
)

// DatasetLoader reads scraped datasets back from disk for analysis.
type DatasetLoader struct {
	logger *slog.Logger
}

func NewDatasetLoader(logger *slog.Logger) *DatasetLoader {
	return &DatasetLoader{logger: logger}
}

// Load merges every CSV dataset under dir (just the newest one with
// latestOnly). When no CSV datasets exist it falls back to JSON. Files
// that fail to parse are logged and skipped; Load only fails when nothing
// loads at all.
func (d *DatasetLoader) Load(dir string, latestOnly bool) ([]*models.Listing, error) {
	files, err := storage.FindDatasets(dir, "suumo_*.csv", latestOnly)
	if err != nil {
		files, err = storage.FindDatasets(dir, "suumo_*.json", latestOnly)
		if err != nil {
			return nil, fmt.Errorf("no datasets in %s: %w", dir, err)
		}
		d.logger.Debug("no csv datasets, using json", "dir", dir)
	}

	results := make([][]*models.Listing, len(files))
	errs := make([]error, len(files))

	pool := utils.NewWorkerPool(4)
	for i, path := range files {
		i, path := i, path
		pool.Submit(func() {
			results[i], errs[i] = readDataset(path)
		})
	}
	pool.Wait()

	var merged []*models.Listing
	loaded := 0
	for i, path := range files {
		if errs[i] != nil {
			d.logger.Error("skipping unreadable dataset", "file", filepath.Base(path), "error", errs[i])
			continue
		}
		d.logger.Debug("loaded dataset", "file", filepath.Base(path), "rows", len(results[i]))
		merged = append(merged, results[i]...)
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no valid data files could be loaded from %s", dir)
	}

	// Parallel loading leaves file order nondeterministic.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ScrapedAt.Before(merged[j].ScrapedAt)
	})

	d.logger.Info("datasets loaded", "files", loaded, "rows", len(merged))
	return merged, nil
}

func readDataset(path string) ([]*models.Listing, error) {
	if filepath.Ext(path) == ".json" {
		return storage.ReadJSONFile(path)
	}
	return storage.ReadCSVFile(path)
}

// Clean prepares a merged dataset for analysis. Listings sharing a detail
// URL collapse to the first occurrence, rents outside the 1st..99th
// percentile drop (listings without a rent stay), and layout aliases
// normalise to 1R.
func (d *DatasetLoader) Clean(listings []*models.Listing) []*models.Listing {
	var rents []float64
	for _, l := range listings {
		if l.RentNumeric != nil {
			rents = append(rents, *l.RentNumeric)
		}
	}
	var lo, hi float64
	if len(rents) > 0 {
		sort.Float64s(rents)
		lo = percentileSorted(rents, 1)
		hi = percentileSorted(rents, 99)
	}

	seen := utils.NewURLSet()
	out := make([]*models.Listing, 0, len(listings))
	duplicates, outliers := 0, 0
	for _, l := range listings {
		if l.DetailURL != "" && !seen.Add(l.DetailURL) {
			duplicates++
			continue
		}
		if l.RentNumeric != nil && (*l.RentNumeric < lo || *l.RentNumeric > hi) {
			outliers++
			continue
		}
		l.Layout = normalizeLayout(l.Layout)
		out = append(out, l)
	}

	d.logger.Info("dataset cleaned",
		"in", len(listings),
		"out", len(out),
		"duplicates", duplicates,
		"rent_outliers", outliers)
	return out
}

func normalizeLayout(layout string) string {
	switch strings.ToLower(layout) {
	case "ワンルーム", "one room", "studio":
		return "1R"
	}
	return layout
}
