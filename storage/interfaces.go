package storage

import (
	"fmt"

	"suumo-scraper/models"
)

// ListingWriter is the interface any output backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
}

// WriteError marks a failure of one output format. Callers attempt the other
// formats regardless.
type WriteError struct {
	Format string
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s write to %s failed: %v", e.Format, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
