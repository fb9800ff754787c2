package suumo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"suumo-scraper/models"
	"suumo-scraper/services"
	"suumo-scraper/stations"
	"suumo-scraper/utils"
)

// Options configures one scrape run. Zero-valued pacing and retry fields mean
// no waiting, which keeps tests deterministic.
type Options struct {
	Stations           []stations.Station
	Prefecture         string
	TargetCount        int
	MaxPagesPerStation int
	MaxRetries         int
	RetryBase          time.Duration
	Pacing             utils.PacerConfig
}

// Scraper walks station search results sequentially until the target count is
// reached, validating and deduplicating as it goes.
type Scraper struct {
	opts    Options
	fetcher Fetcher
	cleaner *services.Cleaner
	logger  *slog.Logger
	pacer   *utils.Pacer
	retry   *utils.RetryConfig
	seen    *utils.URLSet
}

// New creates a ready-to-use Scraper for the given fetch strategy.
func New(opts Options, fetcher Fetcher, logger *slog.Logger) *Scraper {
	if opts.Prefecture == "" {
		opts.Prefecture = "tokyo"
	}
	if opts.MaxPagesPerStation <= 0 {
		opts.MaxPagesPerStation = 10
	}

	return &Scraper{
		opts:    opts,
		fetcher: fetcher,
		cleaner: services.NewCleaner(logger),
		logger:  logger,
		pacer:   utils.NewPacer(opts.Pacing, logger),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries + 1,
			BaseDelay:   opts.RetryBase,
			Logger:      logger,
			ShouldRetry: IsTransient,
		},
		seen: utils.NewURLSet(),
	}
}

// Scrape runs the full station loop. The accumulated listings and the run
// report are returned even when err is non-nil, so callers can still write
// whatever was collected before an interruption.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.Listing, *models.RunReport, error) {
	names := make([]string, len(s.opts.Stations))
	for i, st := range s.opts.Stations {
		names[i] = st.Name
	}

	report := &models.RunReport{
		RunID:          uuid.NewString(),
		Prefecture:     s.opts.Prefecture,
		TargetStations: names,
		TargetCount:    s.opts.TargetCount,
		StartedAt:      time.Now(),
	}

	s.logger.Info("starting scrape run",
		"run_id", report.RunID,
		"stations", len(names),
		"target", s.opts.TargetCount,
		"prefecture", s.opts.Prefecture)

	var collected []*models.Listing
	var runErr error

	for i, st := range s.opts.Stations {
		if len(collected) >= s.opts.TargetCount {
			s.logger.Info("target reached, stopping station iteration")
			break
		}

		stationListings, err := s.scrapeStation(ctx, st, i == 0, s.opts.TargetCount-len(collected), report)
		collected = append(collected, stationListings...)
		report.RecordStation(st.Name, len(stationListings))

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Warn("run interrupted", "station", st.Name, "err", err)
				runErr = err
				break
			}
			s.logger.Error("station failed", "station", st.Name, "err", err)
			report.StationsFailed = append(report.StationsFailed, st.Name)
			continue
		}

		s.logger.Info("station complete",
			"station", st.Name,
			"listings", len(stationListings),
			"total", len(collected))
	}

	report.FinishedAt = time.Now()
	report.Accumulated = len(collected)

	s.logger.Info("scrape run finished",
		"run_id", report.RunID,
		"listings", len(collected),
		"pages", report.PagesFetched,
		"duplicates", report.Duplicates,
		"rejected", report.TotalRejects(),
		"duration", report.Duration().Round(time.Second))

	return collected, report, runErr
}

// scrapeStation pages through one station's results. remaining caps how many
// listings it may still add; the station ends early once that many are in.
func (s *Scraper) scrapeStation(ctx context.Context, st stations.Station, first bool, remaining int, report *models.RunReport) ([]*models.Listing, error) {
	currentURL := st.SearchURL(s.opts.Prefecture)
	var collected []*models.Listing

	s.logger.Info("scraping station", "station", st.Name, "url", currentURL)

	for page := 1; page <= s.opts.MaxPagesPerStation; page++ {
		var err error
		switch {
		case page > 1:
			err = s.pacer.WaitPage(ctx)
		case first:
			err = s.pacer.Wait(ctx)
		default:
			err = s.pacer.WaitStation(ctx)
		}
		if err != nil {
			return collected, err
		}

		html, err := s.fetchPage(ctx, currentURL, st.Name, page, report)
		if err != nil {
			return collected, err
		}
		report.PagesFetched++

		pageResult, err := ExtractListings(html, currentURL, st.Name)
		if err != nil {
			return collected, err
		}
		if len(pageResult.Listings) == 0 {
			s.logger.Info("no listings on page", "station", st.Name, "page", page)
			break
		}

		s.logger.Debug("page extracted",
			"station", st.Name,
			"page", page,
			"rows", len(pageResult.Listings))

		for _, raw := range pageResult.Listings {
			if raw.DetailURL != "" && !s.seen.Add(raw.DetailURL) {
				report.Duplicates++
				continue
			}

			listing, err := s.cleaner.Clean(raw, report.TargetStations)
			if err != nil {
				var verr *models.ValidationError
				if errors.As(err, &verr) {
					report.RecordReject(verr.Field)
				} else {
					report.RecordReject("other")
				}
				continue
			}

			collected = append(collected, listing)
			if len(collected) >= remaining {
				s.logger.Info("target count reached mid-page", "station", st.Name, "page", page)
				return collected, nil
			}
		}

		if pageResult.NextPageURL == "" {
			s.logger.Debug("no further pages", "station", st.Name, "page", page)
			break
		}
		currentURL = pageResult.NextPageURL
	}

	return collected, nil
}

// fetchPage retrieves one results page, retrying transient failures. Once the
// retry budget runs out the failure counts as permanent for this URL.
func (s *Scraper) fetchPage(ctx context.Context, pageURL, station string, page int, report *models.RunReport) (string, error) {
	var html string
	err := s.retry.Do(ctx, fmt.Sprintf("fetch %s page %d", station, page), func() error {
		h, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if IsTransient(err) {
				report.TransientRetries++
			}
			return err
		}
		html = h
		return nil
	})
	if err != nil {
		if IsTransient(err) {
			return "", &PermanentFetchError{URL: pageURL, Err: err}
		}
		return "", err
	}
	return html, nil
}
