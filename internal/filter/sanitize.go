// Package filter holds the pieces of the response filter compiler shared
// by every execution strategy: the field identifier sanitizer, the
// pushdown classifier and the operand coercion helpers.
package filter

import (
	"fmt"
	"regexp"

	"formbase/pkg/model"
)

var safeFieldID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// EnsureSafeFieldID validates that a field identifier is safe to splice
// into a query as a JSON path fragment. Field ids are the only
// user-controlled text ever interpolated into SQL (JSON path keys cannot
// be bind parameters), so anything outside [A-Za-z0-9_-] is rejected
// outright and compilation for the request is aborted.
func EnsureSafeFieldID(fieldID string) (string, error) {
	if !safeFieldID.MatchString(fieldID) {
		return "", fmt.Errorf("%w: %q", model.ErrUnsafeFieldID, fieldID)
	}
	return fieldID, nil
}
