package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"suumo-scraper/models"
)

// JSONWriter writes validated listings as a single JSON array of objects.
// Like CSVWriter it stages the output in a temp file and renames it into
// place.
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (j *JSONWriter) Write(listings []*models.Listing) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return &WriteError{Format: "json", Path: j.path, Err: err}
	}

	// An empty run still produces a valid (empty) array.
	if listings == nil {
		listings = []*models.Listing{}
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return &WriteError{Format: "json", Path: j.path, Err: err}
	}
	data = append(data, '\n')

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &WriteError{Format: "json", Path: j.path, Err: err}
	}
	if err := os.Rename(tmp, j.path); err != nil {
		os.Remove(tmp)
		return &WriteError{Format: "json", Path: j.path, Err: err}
	}
	return nil
}
