package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"suumo-scraper/config"
	"suumo-scraper/models"
	"suumo-scraper/scraper/suumo"
	"suumo-scraper/stations"
	"suumo-scraper/storage"
	"suumo-scraper/utils"
)

var (
	scrapeStations   []string
	scrapeYamanote   bool
	scrapeCount      int
	scrapePrefecture string
	scrapeBrowser    bool
	scrapePolite     bool
	scrapeOutputJSON string
	scrapeOutputCSV  string
	scrapePostgres   bool
	scrapeResetDB    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape rental listings around the given stations.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeStations, "stations", []string{"渋谷"}, "station names to scrape")
	scrapeCmd.Flags().BoolVar(&scrapeYamanote, "yamanote", false, "scrape every Yamanote line station")
	scrapeCmd.Flags().IntVar(&scrapeCount, "count", 100, "validated listings to collect")
	scrapeCmd.Flags().StringVar(&scrapePrefecture, "prefecture", "tokyo", "prefecture for search URLs")
	scrapeCmd.Flags().BoolVar(&scrapeBrowser, "browser", false, "render pages with a headless browser")
	scrapeCmd.Flags().BoolVar(&scrapePolite, "polite", false, "use the slower delay preset")
	scrapeCmd.Flags().StringVar(&scrapeOutputJSON, "output-json", "", "JSON output path (default under the data dir)")
	scrapeCmd.Flags().StringVar(&scrapeOutputCSV, "output-csv", "", "CSV output path (default under the data dir)")
	scrapeCmd.Flags().BoolVar(&scrapePostgres, "postgres", false, "also store listings in PostgreSQL")
	scrapeCmd.Flags().BoolVar(&scrapeResetDB, "reset-db", false, "clear stored listings before writing")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := utils.NewLogger(verbose)
	cfg := config.Load()
	if scrapePolite {
		cfg = cfg.Polite()
	}

	targets, err := resolveTargets(cmd)
	if err != nil {
		return err
	}
	if scrapeCount <= 0 {
		return &ConfigurationError{Msg: fmt.Sprintf("--count must be positive, got %d", scrapeCount)}
	}
	if !stations.IsValidPrefecture(scrapePrefecture) {
		return &ConfigurationError{Msg: fmt.Sprintf("unknown prefecture %q (known: %v)", scrapePrefecture, stations.Prefectures())}
	}
	if scrapeResetDB && !scrapePostgres {
		return &ConfigurationError{Msg: "--reset-db requires --postgres"}
	}

	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	var fetcher suumo.Fetcher
	if scrapeBrowser {
		bf := suumo.NewBrowserFetcher(cfg.ChromeBin, timeout, logger)
		defer bf.Close()
		fetcher = bf
	} else {
		fetcher = suumo.NewStaticFetcher(timeout, logger)
	}

	scraper := suumo.New(suumo.Options{
		Stations:           targets,
		Prefecture:         scrapePrefecture,
		TargetCount:        scrapeCount,
		MaxPagesPerStation: cfg.MaxPagesPerStation,
		MaxRetries:         cfg.MaxRetries,
		RetryBase:          time.Duration(cfg.RetryBaseMs) * time.Millisecond,
		Pacing: utils.PacerConfig{
			MinDelay:     time.Duration(cfg.DelayMinMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.DelayMaxMs) * time.Millisecond,
			PageDelay:    time.Duration(cfg.PageDelayMs) * time.Millisecond,
			StationDelay: time.Duration(cfg.StationDelayMs) * time.Millisecond,
		},
	}, fetcher, logger)

	listings, report, runErr := scraper.Scrape(cmd.Context())
	if runErr != nil {
		logger.Warn("run stopped early, writing what was collected", "error", runErr)
	}

	// Output is written regardless of how the run ended.
	csvPath, jsonPath := outputPaths(cfg, report.TargetStations)
	written := 0
	for _, w := range []storage.ListingWriter{
		storage.NewCSVWriter(csvPath),
		storage.NewJSONWriter(jsonPath),
	} {
		if err := w.Write(listings); err != nil {
			logger.Error("output write failed", "error", err)
			continue
		}
		written++
	}
	if written > 0 {
		logger.Info("output written", "csv", csvPath, "json", jsonPath, "listings", len(listings))
	}

	if scrapePostgres {
		if err := writePostgres(cfg, listings, logger); err != nil {
			logger.Error("postgres write failed", "error", err)
		} else {
			written++
		}
	}

	printRunSummary(report)

	if written == 0 {
		return fmt.Errorf("run produced no output: every writer failed")
	}
	return nil
}

// resolveTargets turns the station flags into directory entries, erroring on
// names the directory does not know.
func resolveTargets(cmd *cobra.Command) ([]stations.Station, error) {
	if scrapeYamanote {
		if cmd.Flags().Changed("stations") {
			return nil, &ConfigurationError{Msg: "--stations and --yamanote are mutually exclusive"}
		}
		return stations.Yamanote(), nil
	}

	targets := make([]stations.Station, 0, len(scrapeStations))
	for _, name := range scrapeStations {
		st, err := stations.Resolve(name)
		if err != nil {
			return nil, &ConfigurationError{Msg: err.Error()}
		}
		targets = append(targets, st)
	}
	if len(targets) == 0 {
		return nil, &ConfigurationError{Msg: "no stations given"}
	}
	return targets, nil
}

func outputPaths(cfg *config.Config, stationNames []string) (csvPath, jsonPath string) {
	base := storage.DefaultBasename(stationNames, time.Now())
	csvPath = scrapeOutputCSV
	if csvPath == "" {
		csvPath = filepath.Join(cfg.DataDir, base+".csv")
	}
	jsonPath = scrapeOutputJSON
	if jsonPath == "" {
		jsonPath = filepath.Join(cfg.DataDir, base+".json")
	}
	return csvPath, jsonPath
}

func writePostgres(cfg *config.Config, listings []*models.Listing, logger *slog.Logger) error {
	pg, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		return err
	}
	defer pg.Close()

	if scrapeResetDB {
		if err := pg.Clear(); err != nil {
			return err
		}
		logger.Info("cleared stored listings")
	}
	if err := pg.Write(listings); err != nil {
		return err
	}
	logger.Info("listings stored in postgres", "count", len(listings))
	return nil
}

func printRunSummary(r *models.RunReport) {
	fmt.Println()
	fmt.Printf("Run %s finished in %s\n", r.RunID, r.Duration().Round(time.Second))

	t := utils.NewTable()
	t.AppendHeader(table.Row{"Station", "Listings"})
	for _, name := range r.TargetStations {
		if n, ok := r.StationCounts[name]; ok {
			t.AppendRow(table.Row{name, n})
		}
	}
	t.AppendFooter(table.Row{"Total", r.Accumulated})
	t.Render()

	fmt.Printf("Pages fetched: %d  Duplicates skipped: %d  Transient retries: %d\n",
		r.PagesFetched, r.Duplicates, r.TransientRetries)
	if len(r.StationsFailed) > 0 {
		fmt.Printf("Stations failed: %v\n", r.StationsFailed)
	}
	if len(r.ValidationRejects) > 0 {
		fmt.Printf("Validation rejects by field: %v\n", r.ValidationRejects)
	}
	fmt.Println()
}
