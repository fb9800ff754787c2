package models

import (
	"net/url"
	"strings"
	"time"
)

// RawListing holds unprocessed scraped data exactly as isolated from a
// results page. One RawListing corresponds to one room row of a building
// block, with the building-level fields repeated.
type RawListing struct {
	BuildingTitle   string
	Address         string
	Access          string
	BuildingAgeArea string
	Floor           string
	Rent            string
	AdminFee        string
	DepositKeyMoney string
	Layout          string
	Area            string
	DetailURL       string
	SearchStation   string
	ScrapedAt       time.Time
}

// Listing is the validated record ready for output and analysis. Optional
// numeric fields are nil when the source text carried no usable value.
type Listing struct {
	BuildingTitle   string    `json:"building_title"`
	Address         string    `json:"address"`
	Access          string    `json:"access"`
	BuildingAge     *int      `json:"building_age,omitempty"`
	RentNumeric     *float64  `json:"rent_numeric,omitempty"`
	AdminFeeNumeric *float64  `json:"admin_fee_numeric,omitempty"`
	DepositKeyMoney string    `json:"deposit_key_money,omitempty"`
	Floor           string    `json:"floor,omitempty"`
	Layout          string    `json:"layout"`
	AreaNumeric     *float64  `json:"area_numeric,omitempty"`
	SearchStation   string    `json:"search_station"`
	TargetStations  []string  `json:"target_stations"`
	StationInfo     []string  `json:"station_info,omitempty"`
	DetailURL       string    `json:"detail_url"`
	ScrapedAt       time.Time `json:"scraped_at"`

	// Derived from the fields above; recomputed on load.
	RentPerSqm  *float64 `json:"rent_per_sqm,omitempty"`
	AgeCategory string   `json:"age_category,omitempty"`
}

// ValidationError reports why a scraped record was rejected. Field is stable
// and doubles as the key for the run report's reject counters.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid listing: " + e.Field + ": " + e.Reason
}

// NewListing validates a raw record and derives the numeric fields. A record
// is rejected when its detail URL is missing or relative, or when neither
// rent nor area can be parsed. Partial records are kept.
func NewListing(raw RawListing, targetStations []string) (*Listing, error) {
	detailURL := strings.TrimSpace(raw.DetailURL)
	if !isAbsoluteURL(detailURL) {
		return nil, &ValidationError{Field: "detail_url", Reason: "missing or not an absolute http(s) URL"}
	}

	rent := ParsePrice(raw.Rent)
	area := ParseArea(raw.Area)
	if rent == nil && area == nil {
		return nil, &ValidationError{Field: "rent_area", Reason: "neither rent nor area parseable"}
	}

	scrapedAt := raw.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	l := &Listing{
		BuildingTitle:   raw.BuildingTitle,
		Address:         raw.Address,
		Access:          raw.Access,
		BuildingAge:     ParseBuildingAge(raw.BuildingAgeArea),
		RentNumeric:     rent,
		AdminFeeNumeric: ParsePrice(raw.AdminFee),
		DepositKeyMoney: raw.DepositKeyMoney,
		Floor:           raw.Floor,
		Layout:          raw.Layout,
		AreaNumeric:     area,
		SearchStation:   raw.SearchStation,
		TargetStations:  targetStations,
		DetailURL:       detailURL,
		ScrapedAt:       scrapedAt,
	}
	l.Derive()
	return l, nil
}

// Derive fills the computed fields from the primary ones. It runs inside
// NewListing and again when records are loaded back from disk, so stored and
// freshly scraped records agree.
func (l *Listing) Derive() {
	l.RentPerSqm = nil
	if l.RentNumeric != nil && l.AreaNumeric != nil && *l.AreaNumeric > 0 {
		v := *l.RentNumeric / *l.AreaNumeric
		l.RentPerSqm = &v
	}

	l.AgeCategory = ""
	if l.BuildingAge != nil {
		l.AgeCategory = BucketAge(*l.BuildingAge)
	}

	l.StationInfo = ExtractStations(l.Access)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
