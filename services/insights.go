package services

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"suumo-scraper/models"
	"suumo-scraper/utils"
)

// ageBucketOrder fixes the display order of building-age buckets, youngest
// first.
var ageBucketOrder = []string{"0-5y", "6-10y", "11-20y", "21-30y", "30y+"}

// DealFilter controls the bargain search: rent at or below the rent
// percentile of the dataset, area at or above the area percentile, building
// age at or below MaxAge.
type DealFilter struct {
	RentPercentile float64
	AreaPercentile float64
	MaxAge         int
}

// DefaultDealFilter matches the cheap-quarter / large-quarter / under-15-years
// search most users want first.
func DefaultDealFilter() DealFilter {
	return DealFilter{RentPercentile: 25, AreaPercentile: 75, MaxAge: 15}
}

type InsightService struct {
	logger *slog.Logger
}

func NewInsightService(logger *slog.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the full market report for a dataset.
func (s *InsightService) Generate(listings []*models.Listing) *models.AnalysisReport {
	report := &models.AnalysisReport{GeneratedAt: time.Now()}
	if len(listings) == 0 {
		return report
	}
	report.TotalListings = len(listings)

	var rents, areas, ages []float64
	seenStations := make(map[string]bool)
	for i, l := range listings {
		if i == 0 || l.ScrapedAt.Before(report.OldestScrape) {
			report.OldestScrape = l.ScrapedAt
		}
		if l.ScrapedAt.After(report.NewestScrape) {
			report.NewestScrape = l.ScrapedAt
		}
		if l.RentNumeric != nil {
			rents = append(rents, *l.RentNumeric)
		}
		if l.AreaNumeric != nil {
			areas = append(areas, *l.AreaNumeric)
		}
		if l.BuildingAge != nil {
			ages = append(ages, float64(*l.BuildingAge))
		}
		if l.SearchStation != "" && !seenStations[l.SearchStation] {
			seenStations[l.SearchStation] = true
			report.Stations = append(report.Stations, l.SearchStation)
		}
	}
	sort.Strings(report.Stations)

	report.Rent = summarize(rents)
	report.Area = summarize(areas)
	report.BuildingAge = summarize(ages)
	report.ByStation = rentByStation(listings)
	report.ByLayout = layoutDistribution(listings)
	report.ByAge = ageImpact(listings)

	deals := s.FindDeals(listings, DefaultDealFilter())
	report.DealsFound = len(deals)
	if len(deals) > 10 {
		deals = deals[:10]
	}
	report.TopDeals = deals

	report.Insights = buildInsights(report)

	s.logger.Info("analysis complete",
		"listings", report.TotalListings,
		"stations", len(report.Stations),
		"deals", report.DealsFound)
	return report
}

func rentByStation(listings []*models.Listing) []models.StationStats {
	groups := groupBy(listings, func(l *models.Listing) string { return l.SearchStation })

	stats := make([]models.StationStats, 0, len(groups))
	for station, group := range groups {
		rent := summarize(collect(group, func(l *models.Listing) *float64 { return l.RentNumeric }))
		rps := collect(group, func(l *models.Listing) *float64 { return l.RentPerSqm })
		stats = append(stats, models.StationStats{
			Station:          station,
			Count:            len(group),
			RentMean:         rent.Mean,
			RentMedian:       rent.Median,
			RentStd:          rent.Std,
			RentMin:          rent.Min,
			RentMax:          rent.Max,
			AreaMean:         round2(mean(collect(group, func(l *models.Listing) *float64 { return l.AreaNumeric }))),
			RentPerSqmMean:   round2(mean(rps)),
			RentPerSqmMedian: round2(median(rps)),
			AgeMean:          round2(mean(collectAges(group))),
		})
	}
	sortByCountThenName(stats,
		func(s models.StationStats) int { return s.Count },
		func(s models.StationStats) string { return s.Station })
	return stats
}

func layoutDistribution(listings []*models.Listing) []models.LayoutStats {
	groups := groupBy(listings, func(l *models.Listing) string { return l.Layout })

	stats := make([]models.LayoutStats, 0, len(groups))
	for layout, group := range groups {
		rent := summarize(collect(group, func(l *models.Listing) *float64 { return l.RentNumeric }))
		stats = append(stats, models.LayoutStats{
			Layout:         layout,
			Count:          len(group),
			Percentage:     round2(float64(len(group)) / float64(len(listings)) * 100),
			RentMean:       rent.Mean,
			RentMedian:     rent.Median,
			AreaMean:       round2(mean(collect(group, func(l *models.Listing) *float64 { return l.AreaNumeric }))),
			RentPerSqmMean: round2(mean(collect(group, func(l *models.Listing) *float64 { return l.RentPerSqm }))),
		})
	}
	sortByCountThenName(stats,
		func(s models.LayoutStats) int { return s.Count },
		func(s models.LayoutStats) string { return s.Layout })
	return stats
}

func ageImpact(listings []*models.Listing) []models.AgeBucketStats {
	groups := groupBy(listings, func(l *models.Listing) string { return l.AgeCategory })

	var stats []models.AgeBucketStats
	for _, bucket := range ageBucketOrder {
		group, ok := groups[bucket]
		if !ok {
			continue
		}
		rent := summarize(collect(group, func(l *models.Listing) *float64 { return l.RentNumeric }))
		stats = append(stats, models.AgeBucketStats{
			Bucket:         bucket,
			Count:          len(group),
			RentMean:       rent.Mean,
			RentMedian:     rent.Median,
			RentPerSqmMean: round2(mean(collect(group, func(l *models.Listing) *float64 { return l.RentPerSqm }))),
			AreaMean:       round2(mean(collect(group, func(l *models.Listing) *float64 { return l.AreaNumeric }))),
		})
	}

	// Percent change against the youngest populated bucket.
	if len(stats) > 0 && stats[0].RentMean > 0 {
		base := stats[0].RentMean
		for i := range stats {
			stats[i].RentVsNewest = round2((stats[i].RentMean/base - 1) * 100)
		}
	}
	return stats
}

// FindDeals returns listings that clear the filter, scored and sorted best
// first. Thresholds come from the whole dataset; the score weights area 0.4,
// price per m2 0.4 and building age 0.2 relative to the other deals.
func (s *InsightService) FindDeals(listings []*models.Listing, filter DealFilter) []models.Deal {
	rents := collect(listings, func(l *models.Listing) *float64 { return l.RentNumeric })
	areas := collect(listings, func(l *models.Listing) *float64 { return l.AreaNumeric })
	if len(rents) == 0 || len(areas) == 0 {
		return nil
	}
	sort.Float64s(rents)
	sort.Float64s(areas)
	rentCap := percentileSorted(rents, filter.RentPercentile)
	areaFloor := percentileSorted(areas, filter.AreaPercentile)

	var picked []*models.Listing
	for _, l := range listings {
		if l.RentNumeric == nil || l.AreaNumeric == nil || l.BuildingAge == nil {
			continue
		}
		if *l.RentNumeric <= rentCap && *l.AreaNumeric >= areaFloor && *l.BuildingAge <= filter.MaxAge {
			picked = append(picked, l)
		}
	}
	if len(picked) == 0 {
		s.logger.Info("no deals matched",
			"rent_cap", rentCap, "area_floor", areaFloor, "max_age", filter.MaxAge)
		return nil
	}

	var areaSum, rpsSum float64
	oldest := 0
	for _, l := range picked {
		areaSum += *l.AreaNumeric
		rpsSum += *l.RentNumeric / *l.AreaNumeric
		if *l.BuildingAge > oldest {
			oldest = *l.BuildingAge
		}
	}
	areaMean := areaSum / float64(len(picked))
	rpsMean := rpsSum / float64(len(picked))

	deals := make([]models.Deal, 0, len(picked))
	for _, l := range picked {
		score := (*l.AreaNumeric / areaMean) * 0.4
		if rpsMean > 0 {
			rps := *l.RentNumeric / *l.AreaNumeric
			score += (1 - rps/rpsMean) * 0.4
		}
		if oldest > 0 {
			score += (1 - float64(*l.BuildingAge)/float64(oldest)) * 0.2
		} else {
			score += 0.2
		}
		deals = append(deals, models.Deal{Listing: l, Score: round3(score)})
	}
	sort.SliceStable(deals, func(i, j int) bool { return deals[i].Score > deals[j].Score })

	s.logger.Info("deal search complete",
		"deals", len(deals),
		"rent_cap", round2(rentCap),
		"area_floor", round2(areaFloor),
		"max_age", filter.MaxAge)
	return deals
}

// CompareStations builds a side-by-side comparison of the named stations.
// Stations absent from the dataset are skipped.
func (s *InsightService) CompareStations(listings []*models.Listing, stations []string) []models.StationComparison {
	want := make(map[string]bool, len(stations))
	for _, st := range stations {
		want[strings.TrimSuffix(st, "駅")] = true
	}

	groups := make(map[string][]*models.Listing)
	for _, l := range listings {
		if want[l.SearchStation] {
			groups[l.SearchStation] = append(groups[l.SearchStation], l)
		}
	}
	if len(groups) == 0 {
		s.logger.Warn("no data found for stations", "stations", stations)
		return nil
	}

	var rows []models.StationComparison
	for _, st := range stations {
		name := strings.TrimSuffix(st, "駅")
		group, ok := groups[name]
		if !ok {
			continue
		}
		rent := summarize(collect(group, func(l *models.Listing) *float64 { return l.RentNumeric }))
		rows = append(rows, models.StationComparison{
			Station:        name,
			Count:          len(group),
			RentMean:       rent.Mean,
			RentMedian:     rent.Median,
			AreaMean:       round2(mean(collect(group, func(l *models.Listing) *float64 { return l.AreaNumeric }))),
			RentPerSqmMean: round2(mean(collect(group, func(l *models.Listing) *float64 { return l.RentPerSqm }))),
			AgeMean:        round2(mean(collectAges(group))),
		})
	}

	rankBy(rows, true, func(r models.StationComparison) float64 { return r.RentMean },
		func(r *models.StationComparison, rank int) { r.RentRank = rank })
	rankBy(rows, false, func(r models.StationComparison) float64 { return r.AreaMean },
		func(r *models.StationComparison, rank int) { r.AreaRank = rank })
	rankBy(rows, true, func(r models.StationComparison) float64 { return r.RentPerSqmMean },
		func(r *models.StationComparison, rank int) { r.ValueRank = rank })
	return rows
}

func buildInsights(r *models.AnalysisReport) []string {
	var out []string

	if r.Rent.Count > 0 && r.Rent.Mean > r.Rent.Median*1.2 {
		out = append(out, fmt.Sprintf(
			"Rent is right-skewed: expensive listings pull the mean (¥%.0f) above the median (¥%.0f)",
			r.Rent.Mean, r.Rent.Median))
	}

	var withRent []models.StationStats
	for _, st := range r.ByStation {
		if st.Count > 0 && st.RentMean > 0 {
			withRent = append(withRent, st)
		}
	}
	if len(withRent) > 1 {
		hi, lo := withRent[0], withRent[0]
		for _, st := range withRent[1:] {
			if st.RentMean > hi.RentMean {
				hi = st
			}
			if st.RentMean < lo.RentMean {
				lo = st
			}
		}
		out = append(out, fmt.Sprintf(
			"%s is the most expensive station (mean ¥%.0f) and %s the cheapest (mean ¥%.0f), a spread of ¥%.0f",
			hi.Station, hi.RentMean, lo.Station, lo.RentMean, hi.RentMean-lo.RentMean))
	}

	if len(r.ByLayout) > 0 {
		top := r.ByLayout[0]
		out = append(out, fmt.Sprintf(
			"%s is the most common layout at %.1f%% of listings", top.Layout, top.Percentage))
	}

	if r.BuildingAge.Count > 0 {
		newCount := 0
		for _, b := range r.ByAge {
			if b.Bucket == ageBucketOrder[0] {
				newCount = b.Count
			}
		}
		newRatio := float64(newCount) / float64(r.TotalListings) * 100
		out = append(out, fmt.Sprintf(
			"Average building age is %.1f years; %.1f%% of listings are 5 years old or newer",
			r.BuildingAge.Mean, newRatio))
	}

	return out
}

// Print renders the report to stdout.
func (s *InsightService) Print(r *models.AnalysisReport) {
	fmt.Println()
	fmt.Printf("SUUMO rental market report (%d listings, %d stations)\n",
		r.TotalListings, len(r.Stations))
	if !r.OldestScrape.IsZero() {
		fmt.Printf("Scraped between %s and %s\n",
			r.OldestScrape.Format("2006-01-02"), r.NewestScrape.Format("2006-01-02"))
	}
	if r.TotalListings == 0 {
		fmt.Println("No listings to analyze.")
		return
	}
	fmt.Println()

	fmt.Println("Distributions")
	t := utils.NewTable()
	t.AppendHeader(table.Row{"Field", "Count", "Mean", "Median", "Std", "Min", "Max", "P25", "P75"})
	t.AppendRow(statsRow("Rent (yen)", r.Rent))
	t.AppendRow(statsRow("Area (m2)", r.Area))
	t.AppendRow(statsRow("Age (years)", r.BuildingAge))
	t.Render()
	fmt.Println()

	if len(r.ByStation) > 0 {
		fmt.Println("Rent by station")
		t = utils.NewTable()
		t.AppendHeader(table.Row{"Station", "Listings", "Mean rent", "Median rent", "Mean area", "Rent/m2", "Mean age"})
		for _, st := range r.ByStation {
			t.AppendRow(table.Row{
				st.Station, st.Count,
				yen(st.RentMean), yen(st.RentMedian),
				fmt.Sprintf("%.1f", st.AreaMean),
				yen(st.RentPerSqmMean),
				fmt.Sprintf("%.1f", st.AgeMean),
			})
		}
		t.Render()
		fmt.Println()
	}

	if len(r.ByLayout) > 0 {
		fmt.Println("Layout distribution")
		t = utils.NewTable()
		t.AppendHeader(table.Row{"Layout", "Listings", "Share", "Mean rent", "Mean area", ""})
		for _, l := range r.ByLayout {
			bar := strings.Repeat("█", int(l.Percentage/2+0.5))
			t.AppendRow(table.Row{
				l.Layout, l.Count,
				fmt.Sprintf("%.1f%%", l.Percentage),
				yen(l.RentMean),
				fmt.Sprintf("%.1f", l.AreaMean),
				bar,
			})
		}
		t.Render()
		fmt.Println()
	}

	if len(r.ByAge) > 0 {
		fmt.Println("Building age impact")
		t = utils.NewTable()
		t.AppendHeader(table.Row{"Age", "Listings", "Mean rent", "Median rent", "Rent/m2", "vs newest"})
		for _, b := range r.ByAge {
			t.AppendRow(table.Row{
				b.Bucket, b.Count,
				yen(b.RentMean), yen(b.RentMedian), yen(b.RentPerSqmMean),
				fmt.Sprintf("%+.1f%%", b.RentVsNewest),
			})
		}
		t.Render()
		fmt.Println()
	}

	if r.DealsFound > 0 {
		fmt.Printf("Top deals (%d matched the default filter)\n", r.DealsFound)
		s.PrintDeals(r.TopDeals)
		fmt.Println()
	}

	if len(r.Insights) > 0 {
		fmt.Println("Highlights")
		for _, line := range r.Insights {
			fmt.Printf("  • %s\n", line)
		}
		fmt.Println()
	}
}

// PrintDeals renders a deal list to stdout, best first.
func (s *InsightService) PrintDeals(deals []models.Deal) {
	if len(deals) == 0 {
		fmt.Println("No deals matched the filter.")
		return
	}
	t := utils.NewTable()
	t.AppendHeader(table.Row{"#", "Score", "Building", "Station", "Rent", "Area", "Age", "Layout"})
	for i, d := range deals {
		l := d.Listing
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.3f", d.Score),
			truncate(l.BuildingTitle, 28),
			l.SearchStation,
			yenPtr(l.RentNumeric),
			areaPtr(l.AreaNumeric),
			agePtr(l.BuildingAge),
			l.Layout,
		})
	}
	t.Render()
}

// PrintComparison renders the station comparison to stdout.
func (s *InsightService) PrintComparison(rows []models.StationComparison) {
	if len(rows) == 0 {
		fmt.Println("No data for the requested stations.")
		return
	}
	t := utils.NewTable()
	t.AppendHeader(table.Row{"Station", "Listings", "Mean rent", "Rank", "Mean area", "Rank", "Rent/m2", "Rank"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Station, r.Count,
			yen(r.RentMean), r.RentRank,
			fmt.Sprintf("%.1f", r.AreaMean), r.AreaRank,
			yen(r.RentPerSqmMean), r.ValueRank,
		})
	}
	t.Render()
}

func statsRow(label string, fs models.FieldStats) table.Row {
	if fs.Count == 0 {
		return table.Row{label, 0, "-", "-", "-", "-", "-", "-", "-"}
	}
	return table.Row{
		label, fs.Count,
		fmt.Sprintf("%.2f", fs.Mean),
		fmt.Sprintf("%.2f", fs.Median),
		fmt.Sprintf("%.2f", fs.Std),
		fmt.Sprintf("%.2f", fs.Min),
		fmt.Sprintf("%.2f", fs.Max),
		fmt.Sprintf("%.2f", fs.Q25),
		fmt.Sprintf("%.2f", fs.Q75),
	}
}

func groupBy(listings []*models.Listing, key func(*models.Listing) string) map[string][]*models.Listing {
	groups := make(map[string][]*models.Listing)
	for _, l := range listings {
		k := key(l)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], l)
	}
	return groups
}

func collect(listings []*models.Listing, field func(*models.Listing) *float64) []float64 {
	var values []float64
	for _, l := range listings {
		if v := field(l); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

func collectAges(listings []*models.Listing) []float64 {
	var values []float64
	for _, l := range listings {
		if l.BuildingAge != nil {
			values = append(values, float64(*l.BuildingAge))
		}
	}
	return values
}

func sortByCountThenName[T any](items []T, count func(T) int, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		if count(items[i]) != count(items[j]) {
			return count(items[i]) > count(items[j])
		}
		return name(items[i]) < name(items[j])
	})
}

func rankBy(rows []models.StationComparison, ascending bool,
	key func(models.StationComparison) float64, set func(*models.StationComparison, int)) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if ascending {
			return key(rows[idx[a]]) < key(rows[idx[b]])
		}
		return key(rows[idx[a]]) > key(rows[idx[b]])
	})
	for rank, i := range idx {
		set(&rows[i], rank+1)
	}
}

func yen(v float64) string {
	return fmt.Sprintf("¥%.0f", v)
}

func yenPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return yen(*v)
}

func areaPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func agePtr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
