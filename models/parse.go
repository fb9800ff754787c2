package models

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRegexp captures the first run of digits with an optional decimal part
	numberRegexp = regexp.MustCompile(`[\d.]+`)
	// ageRegexp captures the year count in 築N年
	ageRegexp = regexp.MustCompile(`築(\d+)年`)
	// stationRegexp captures station names out of slash-separated access text
	stationRegexp = regexp.MustCompile(`([^/\n]+駅)`)
)

// ParsePrice converts a price string as it appears on a listing page into
// yen. A 万 marker scales the value by 10,000; plain digit strings are taken
// at face value. Returns nil when no usable positive number is present.
// Examples:
//
//	"8.5万円"    → 85000
//	"150,000円" → 150000
//	"-"         → nil
func ParsePrice(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")

	scale := 1.0
	if i := strings.Index(s, "万"); i >= 0 {
		scale = 10000
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "円")

	match := numberRegexp.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v <= 0 {
		return nil
	}
	v *= scale
	return &v
}

// ParseArea converts an area string like "25.5m²" to square metres.
// Returns nil when no usable positive number is present.
func ParseArea(raw string) *float64 {
	s := strings.ReplaceAll(raw, "m²", "")
	s = strings.ReplaceAll(s, "㎡", "")

	match := numberRegexp.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// ParseBuildingAge extracts the age in years from text like "築12年 3階建".
// 新築 counts as zero years. Returns nil when no age is present.
func ParseBuildingAge(raw string) *int {
	if m := ageRegexp.FindStringSubmatch(raw); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	if strings.Contains(raw, "新築") {
		zero := 0
		return &zero
	}
	return nil
}

// ExtractStations pulls station names out of free-form access text, e.g.
// "ＪＲ山手線/渋谷駅 歩5分" yields ["渋谷駅"].
func ExtractStations(access string) []string {
	if access == "" {
		return nil
	}
	matches := stationRegexp.FindAllString(access, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// BucketAge maps a building age in years onto the reporting buckets.
func BucketAge(years int) string {
	switch {
	case years <= 5:
		return "0-5y"
	case years <= 10:
		return "6-10y"
	case years <= 20:
		return "11-20y"
	case years <= 30:
		return "21-30y"
	default:
		return "30y+"
	}
}
