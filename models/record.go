package models

import (
	"github.com/go-playground/validator/v10"
)

// SalesRecord is one row of vehicle registration sales data. Latitude and
// Longitude stay at (0, 0) until the geocode enricher resolves the record's
// city/state pair; that sentinel is indistinguishable from a true 0,0
// coordinate, which is a known limitation.
type SalesRecord struct {
	ID        int     `json:"id"`
	State     string  `json:"state" validate:"required"`
	City      string  `json:"city" validate:"required"`
	Maker     string  `json:"maker" validate:"required"`
	RTO       string  `json:"rto" validate:"required"`
	District  string  `json:"district"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sales2022 int     `json:"sales2022" validate:"min=0"`
	Sales2023 int     `json:"sales2023" validate:"min=0"`
	Sales2024 int     `json:"sales2024" validate:"min=0"`
	Sales2025 int     `json:"sales2025" validate:"min=0"`
	Total     int     `json:"total" validate:"min=0"`

	// Monthly carries the source row's per-month breakdown when the uploaded
	// schema has one. Not validated beyond the year total it was summed into.
	Monthly map[string]int `json:"monthly,omitempty"`
}

// HasCoordinates reports whether the record was already geocoded.
func (r *SalesRecord) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

var recordValidator = validator.New()

// Validate checks the assembled record against its schema tags.
func (r *SalesRecord) Validate() error {
	return recordValidator.Struct(r)
}
