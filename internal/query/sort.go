package query

import (
	"strings"

	"formbase/internal/filter"
)

// sortColumns are the fixed response columns a caller may sort on.
var sortColumns = map[string]bool{
	"submittedAt": true,
	"updatedAt":   true,
	"id":          true,
}

// resolveSort normalizes the caller's sort request. Invalid values fall
// back independently: an unrecognized sortBy (not a fixed column and not
// a safe "data.<fieldId>" reference) defaults to submittedAt, an
// unrecognized order defaults to desc.
func resolveSort(sortBy, sortOrder string) (string, string) {
	order := strings.ToLower(sortOrder)
	if order != "asc" && order != "desc" {
		order = DefaultSortOrder
	}

	if sortColumns[sortBy] {
		return sortBy, order
	}
	if fieldID, ok := strings.CutPrefix(sortBy, "data."); ok {
		if _, err := filter.EnsureSafeFieldID(fieldID); err == nil {
			return sortBy, order
		}
	}
	return DefaultSortBy, order
}
