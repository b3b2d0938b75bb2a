package utils

import (
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens a validator error into a field-to-tag map
// suitable for diagnostics. Returns nil for non-validation errors.
func ProcessValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

// UniqueSorted deduplicates a string slice, drops empties and returns the
// result in lexicographic order.
func UniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
