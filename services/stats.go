package services

import (
	"math"
	"sort"

	"suumo-scraper/models"
)

// summarize computes distribution stats over the given values. Std is the
// sample standard deviation. Quantiles use linear interpolation between
// closest ranks.
func summarize(values []float64) models.FieldStats {
	n := len(values)
	if n == 0 {
		return models.FieldStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range values {
		total += v
	}
	mean := total / float64(n)

	var variance float64
	if n > 1 {
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		variance /= float64(n - 1)
	}

	return models.FieldStats{
		Count:  n,
		Mean:   round2(mean),
		Median: round2(percentileSorted(sorted, 50)),
		Std:    round2(math.Sqrt(variance)),
		Min:    round2(sorted[0]),
		Max:    round2(sorted[n-1]),
		Q25:    round2(percentileSorted(sorted, 25)),
		Q75:    round2(percentileSorted(sorted, 75)),
	}
}

// percentileSorted returns the p-th percentile (0..100) of an ascending
// slice.
func percentileSorted(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, 50)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
