package models

// AnalyticsSummary is the dashboard headline view over the current record
// set.
type AnalyticsSummary struct {
	RecordCount    int            `json:"recordCount"`
	SalesByYear    map[string]int `json:"salesByYear"`
	GrandTotal     int            `json:"grandTotal"`
	MakerCount     int            `json:"makerCount"`
	StateCount     int            `json:"stateCount"`
	GeocodedCount  int            `json:"geocodedCount"`
	PendingGeocode int            `json:"pendingGeocode"`
}

// MapPoint is a map-ready projection of a geocoded record.
type MapPoint struct {
	ID        int     `json:"id"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Maker     string  `json:"maker"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Total     int     `json:"total"`
}

// Summarize computes the analytics headline over a record slice.
func Summarize(records []SalesRecord, options FilterOptions) AnalyticsSummary {
	summary := AnalyticsSummary{
		RecordCount: len(records),
		SalesByYear: map[string]int{
			"2022": 0,
			"2023": 0,
			"2024": 0,
			"2025": 0,
		},
		MakerCount: len(options.Makers),
		StateCount: len(options.States),
	}
	for _, r := range records {
		summary.SalesByYear["2022"] += r.Sales2022
		summary.SalesByYear["2023"] += r.Sales2023
		summary.SalesByYear["2024"] += r.Sales2024
		summary.SalesByYear["2025"] += r.Sales2025
		summary.GrandTotal += r.Total
		if r.HasCoordinates() {
			summary.GeocodedCount++
		} else {
			summary.PendingGeocode++
		}
	}
	return summary
}

// MapPoints projects the geocoded subset of records for the dashboard map.
// Records still holding the (0, 0) sentinel are excluded.
func MapPoints(records []SalesRecord) []MapPoint {
	points := make([]MapPoint, 0, len(records))
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		points = append(points, MapPoint{
			ID:        r.ID,
			City:      r.City,
			State:     r.State,
			Maker:     r.Maker,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Total:     r.Total,
		})
	}
	return points
}
