package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"suumo-scraper/config"
	"suumo-scraper/models"
	"suumo-scraper/services"
	"suumo-scraper/storage"
	"suumo-scraper/utils"
)

var (
	analyzeDataDir  string
	analyzeLatest   bool
	analyzeCompare  []string
	analyzeDeals    bool
	analyzeMaxAge   int
	analyzeRentPctl float64
	analyzeAreaPctl float64
	analyzeFromDB   bool
	analyzeReport   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze previously scraped datasets.",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDataDir, "data-dir", "", "dataset directory (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeLatest, "latest-only", false, "load only the newest dataset file")
	analyzeCmd.Flags().StringSliceVar(&analyzeCompare, "compare", nil, "stations to compare side by side")
	analyzeCmd.Flags().BoolVar(&analyzeDeals, "deals", false, "list bargain listings instead of the full report")
	analyzeCmd.Flags().IntVar(&analyzeMaxAge, "max-age", 15, "deal filter: maximum building age in years")
	analyzeCmd.Flags().Float64Var(&analyzeRentPctl, "rent-percentile", 25, "deal filter: rent at or below this percentile")
	analyzeCmd.Flags().Float64Var(&analyzeAreaPctl, "area-percentile", 75, "deal filter: area at or above this percentile")
	analyzeCmd.Flags().BoolVar(&analyzeFromDB, "from-db", false, "analyze listings stored in PostgreSQL")
	analyzeCmd.Flags().StringVar(&analyzeReport, "report", "", "also write the full report as JSON to this path")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := utils.NewLogger(verbose)
	cfg := config.Load()

	if analyzeRentPctl <= 0 || analyzeRentPctl >= 100 {
		return &ConfigurationError{Msg: fmt.Sprintf("--rent-percentile must be between 0 and 100, got %g", analyzeRentPctl)}
	}
	if analyzeAreaPctl <= 0 || analyzeAreaPctl >= 100 {
		return &ConfigurationError{Msg: fmt.Sprintf("--area-percentile must be between 0 and 100, got %g", analyzeAreaPctl)}
	}
	if analyzeMaxAge < 0 {
		return &ConfigurationError{Msg: fmt.Sprintf("--max-age must not be negative, got %d", analyzeMaxAge)}
	}

	listings, err := loadListings(cfg, logger)
	if err != nil {
		return err
	}

	svc := services.NewInsightService(logger)
	report := svc.Generate(listings)

	switch {
	case len(analyzeCompare) > 0:
		svc.PrintComparison(svc.CompareStations(listings, analyzeCompare))
	case analyzeDeals:
		deals := svc.FindDeals(listings, services.DealFilter{
			RentPercentile: analyzeRentPctl,
			AreaPercentile: analyzeAreaPctl,
			MaxAge:         analyzeMaxAge,
		})
		if len(deals) > 20 {
			deals = deals[:20]
		}
		svc.PrintDeals(deals)
	default:
		svc.Print(report)
	}

	if analyzeReport != "" {
		if err := writeReport(report, analyzeReport); err != nil {
			return err
		}
		logger.Info("report written", "path", analyzeReport)
	}
	return nil
}

func loadListings(cfg *config.Config, logger *slog.Logger) ([]*models.Listing, error) {
	if analyzeFromDB {
		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		return pg.FetchAll()
	}

	dir := analyzeDataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	loader := services.NewDatasetLoader(logger)
	listings, err := loader.Load(dir, analyzeLatest)
	if err != nil {
		return nil, err
	}
	return loader.Clean(listings), nil
}

func writeReport(report *models.AnalysisReport, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
