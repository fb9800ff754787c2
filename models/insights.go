package models

import "time"

// FieldStats summarises the distribution of one numeric field. Listings
// missing the field are excluded, so Count can be below the dataset size.
type FieldStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// StationStats aggregates listings grouped by the station they were
// scraped under.
type StationStats struct {
	Station          string  `json:"station"`
	Count            int     `json:"count"`
	RentMean         float64 `json:"rent_mean"`
	RentMedian       float64 `json:"rent_median"`
	RentStd          float64 `json:"rent_std"`
	RentMin          float64 `json:"rent_min"`
	RentMax          float64 `json:"rent_max"`
	AreaMean         float64 `json:"area_mean"`
	RentPerSqmMean   float64 `json:"rent_per_sqm_mean"`
	RentPerSqmMedian float64 `json:"rent_per_sqm_median"`
	AgeMean          float64 `json:"age_mean"`
}

// LayoutStats aggregates listings sharing a floor plan (1K, 2LDK, ...).
type LayoutStats struct {
	Layout         string  `json:"layout"`
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
	RentMean       float64 `json:"rent_mean"`
	RentMedian     float64 `json:"rent_median"`
	AreaMean       float64 `json:"area_mean"`
	RentPerSqmMean float64 `json:"rent_per_sqm_mean"`
}

// AgeBucketStats aggregates listings by building-age bucket. RentVsNewest
// is the percent difference of this bucket's mean rent against the youngest
// populated bucket.
type AgeBucketStats struct {
	Bucket         string  `json:"bucket"`
	Count          int     `json:"count"`
	RentMean       float64 `json:"rent_mean"`
	RentMedian     float64 `json:"rent_median"`
	RentPerSqmMean float64 `json:"rent_per_sqm_mean"`
	AreaMean       float64 `json:"area_mean"`
	RentVsNewest   float64 `json:"rent_vs_newest_pct"`
}

// Deal is a listing that cleared the bargain filter, with its score.
type Deal struct {
	Listing *Listing `json:"listing"`
	Score   float64  `json:"score"`
}

// StationComparison ranks a station against the others in the comparison
// set. Rank 1 means cheapest rent, largest area, and best price per m2
// respectively.
type StationComparison struct {
	Station        string  `json:"station"`
	Count          int     `json:"count"`
	RentMean       float64 `json:"rent_mean"`
	RentMedian     float64 `json:"rent_median"`
	AreaMean       float64 `json:"area_mean"`
	RentPerSqmMean float64 `json:"rent_per_sqm_mean"`
	AgeMean        float64 `json:"age_mean"`
	RentRank       int     `json:"rent_rank"`
	AreaRank       int     `json:"area_rank"`
	ValueRank      int     `json:"value_rank"`
}

// AnalysisReport is the full output of the insight service over a dataset.
type AnalysisReport struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	TotalListings int                 `json:"total_listings"`
	OldestScrape  time.Time           `json:"oldest_scrape"`
	NewestScrape  time.Time           `json:"newest_scrape"`
	Stations      []string            `json:"stations"`
	Rent          FieldStats          `json:"rent"`
	Area          FieldStats          `json:"area"`
	BuildingAge   FieldStats          `json:"building_age"`
	ByStation     []StationStats      `json:"by_station"`
	ByLayout      []LayoutStats       `json:"by_layout"`
	ByAge         []AgeBucketStats    `json:"by_age"`
	TopDeals      []Deal              `json:"top_deals"`
	DealsFound    int                 `json:"deals_found"`
	Comparison    []StationComparison `json:"comparison,omitempty"`
	Insights      []string            `json:"insights"`
}
