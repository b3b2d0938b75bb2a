package models

import (
	"github.com/mmdatafocus/vehicle_sales_backend/utils"
)

// FilterSelection holds the user's chosen values per dimension. An empty or
// absent list means no constraint on that dimension.
type FilterSelection struct {
	Makers    []string `json:"makers"`
	RTOs      []string `json:"rtos"`
	States    []string `json:"states"`
	Districts []string `json:"districts"`
}

// FilterOptions lists the remaining valid choices per dimension.
type FilterOptions struct {
	Makers    []string `json:"makers"`
	RTOs      []string `json:"rtos"`
	States    []string `json:"states"`
	Districts []string `json:"districts"`
}

// FilterResult bundles the filtered record set with the cascading option
// lists.
type FilterResult struct {
	FilteredData     []SalesRecord `json:"filteredData"`
	AvailableOptions FilterOptions `json:"availableOptions"`
}

type dimension int

const (
	dimensionNone dimension = iota
	dimensionMaker
	dimensionRTO
	dimensionState
	dimensionDistrict
)

// ApplyFilters computes the record set matching every dimension (AND across
// dimensions, membership within one) and, per dimension, the option list
// computed against the OTHER three dimensions only. Self-exclusion keeps a
// user's own selection from shrinking their own option list.
func ApplyFilters(records []SalesRecord, selection FilterSelection) FilterResult {
	result := FilterResult{
		FilteredData: make([]SalesRecord, 0),
	}
	for _, r := range records {
		if matches(r, selection, dimensionNone) {
			result.FilteredData = append(result.FilteredData, r)
		}
	}

	result.AvailableOptions = FilterOptions{
		Makers:    optionValues(records, selection, dimensionMaker),
		RTOs:      optionValues(records, selection, dimensionRTO),
		States:    optionValues(records, selection, dimensionState),
		Districts: optionValues(records, selection, dimensionDistrict),
	}
	return result
}

// matches tests a record against the selection, skipping the excluded
// dimension's constraint.
func matches(r SalesRecord, sel FilterSelection, exclude dimension) bool {
	if exclude != dimensionMaker && !memberOf(r.Maker, sel.Makers) {
		return false
	}
	if exclude != dimensionRTO && !memberOf(r.RTO, sel.RTOs) {
		return false
	}
	if exclude != dimensionState && !memberOf(r.State, sel.States) {
		return false
	}
	if exclude != dimensionDistrict && !memberOf(r.District, sel.Districts) {
		return false
	}
	return true
}

func memberOf(value string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

func optionValues(records []SalesRecord, sel FilterSelection, dim dimension) []string {
	values := make([]string, 0, len(records))
	for _, r := range records {
		if !matches(r, sel, dim) {
			continue
		}
		values = append(values, dimensionValue(r, dim))
	}
	return utils.UniqueSorted(values)
}

func dimensionValue(r SalesRecord, dim dimension) string {
	switch dim {
	case dimensionMaker:
		return r.Maker
	case dimensionRTO:
		return r.RTO
	case dimensionState:
		return r.State
	case dimensionDistrict:
		return r.District
	default:
		return ""
	}
}

// collectOptions gathers distinct values per dimension with no constraints
// applied. Used by the store's option cache.
func collectOptions(records []SalesRecord) FilterOptions {
	return FilterOptions{
		Makers:    optionValues(records, FilterSelection{}, dimensionMaker),
		RTOs:      optionValues(records, FilterSelection{}, dimensionRTO),
		States:    optionValues(records, FilterSelection{}, dimensionState),
		Districts: optionValues(records, FilterSelection{}, dimensionDistrict),
	}
}
