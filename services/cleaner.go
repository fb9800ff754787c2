package services

import (
	"log/slog"
	"strings"
	"unicode"

	"suumo-scraper/models"
)

// Cleaner normalises raw listings and turns them into validated records. The
// orchestrator feeds it one record at a time so it can stop collecting the
// moment the target count is reached.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *slog.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises one raw listing and validates it. The returned error is a
// models.ValidationError when the record was rejected.
func (c *Cleaner) Clean(raw models.RawListing, targetStations []string) (*models.Listing, error) {
	raw.BuildingTitle = normaliseText(raw.BuildingTitle)
	raw.Address = normaliseText(raw.Address)
	raw.Access = normaliseText(raw.Access)
	raw.BuildingAgeArea = normaliseText(raw.BuildingAgeArea)
	raw.Floor = normaliseText(raw.Floor)
	raw.Layout = normaliseText(raw.Layout)
	raw.DepositKeyMoney = normaliseText(raw.DepositKeyMoney)

	listing, err := models.NewListing(raw, targetStations)
	if err != nil {
		c.logger.Debug("dropping listing",
			"title", raw.BuildingTitle,
			"url", raw.DetailURL,
			"err", err)
		return nil, err
	}
	return listing, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace, including the full-width spaces SUUMO is fond of.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
