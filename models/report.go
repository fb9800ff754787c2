package models

import "time"

// RunReport aggregates what happened during a single scrape run. Failures
// are counted here rather than aborting the run, so records collected before
// an error still reach the writers.
type RunReport struct {
	RunID          string    `json:"run_id"`
	Prefecture     string    `json:"prefecture"`
	TargetStations []string  `json:"target_stations"`
	TargetCount    int       `json:"target_count"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`

	PagesFetched      int            `json:"pages_fetched"`
	Accumulated       int            `json:"accumulated"`
	StationCounts     map[string]int `json:"station_counts"`
	TransientRetries  int            `json:"transient_retries"`
	StationsFailed    []string       `json:"stations_failed,omitempty"`
	Duplicates        int            `json:"duplicates"`
	ValidationRejects map[string]int `json:"validation_rejects,omitempty"`
}

// RecordStation adds n accepted listings to a station's tally.
func (r *RunReport) RecordStation(station string, n int) {
	if r.StationCounts == nil {
		r.StationCounts = make(map[string]int)
	}
	r.StationCounts[station] += n
}

// RecordReject counts a validation rejection under its field key.
func (r *RunReport) RecordReject(field string) {
	if r.ValidationRejects == nil {
		r.ValidationRejects = make(map[string]int)
	}
	r.ValidationRejects[field]++
}

// TotalRejects returns the number of records dropped by validation.
func (r *RunReport) TotalRejects() int {
	total := 0
	for _, n := range r.ValidationRejects {
		total += n
	}
	return total
}

// Duration returns the wall-clock time of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
